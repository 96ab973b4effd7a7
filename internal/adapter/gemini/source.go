package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Source 实现了 port.CandidateSource 接口
type Source struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSource 初始化 Gemini 客户端
func NewSource(ctx context.Context, apiKey string) (*Source, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeMissingCredential, "GEMINI_API_KEY 未配置")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeInternal, "Gemini 客户端初始化失败", err)
	}

	model := client.GenerativeModel("gemini-2.5-flash-lite")
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"

	return &Source{
		client: client,
		model:  model,
	}, nil
}

// FetchCandidates 按窗口长度询问热门项目，返回 LLM 的原始文本。
// 这里不做任何解析，容错交给验证管线。
func (s *Source) FetchCandidates(ctx context.Context, window domain.TimeFrame) (string, error) {
	prompt := buildPrompt(window)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", common.NewError(common.ErrCodeMalformedResponse, "LLM 返回内容为空")
	}

	// 拼接所有文本片段（通常只有一段）
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	raw := sb.String()
	if strings.TrimSpace(raw) == "" {
		return "", common.NewError(common.ErrCodeMalformedResponse, "LLM 返回内容为空")
	}

	return raw, nil
}

// ValidateKey 用最小的 CountTokens 探测请求验证凭证
func (s *Source) ValidateKey(ctx context.Context) (bool, error) {
	err := common.Do(ctx, func() error {
		_, probeErr := s.model.CountTokens(ctx, genai.Text("ping"))
		return probeErr
	}, common.WithMaxRetries(1))

	if err != nil {
		classified := classifyError(err)
		if common.CodeOf(classified) == common.ErrCodeAuthFailure {
			return false, nil
		}
		return false, classified
	}
	return true, nil
}

// buildPrompt 构造按窗口参数化的提示词
func buildPrompt(window domain.TimeFrame) string {
	days := window.Days()
	return fmt.Sprintf(`
你是一个紧跟开源社区动态的技术观察员。请列出最近 %d 天内 GitHub 上热度上升最快的开源项目。

要求：
1. 返回一个 JSON 数组，包含 15 个项目，按热度从高到低排列。
2. 每个元素包含以下字段：
   - name: 仓库全名，格式必须是 "owner/repo"
   - description: 一句话的中文项目简介
   - tags: 2 到 4 个技术标签组成的数组
   - stars_trend: 这 %d 天内 Star 增长的文字描述，例如 "+2.3k"
3. 只返回 JSON 数组本身，不要包含 Markdown 格式标记和任何额外说明。
`, days, days)
}

// classifyError 把底层错误归入应用错误分类
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return common.WrapError(common.ErrCodeAuthFailure, "Gemini 凭证无效", err)
		}
		return common.WrapError(common.ErrCodeNetworkFailure, "Gemini API 调用失败", err)
	}
	return common.WrapError(common.ErrCodeNetworkFailure, "Gemini 请求失败", err)
}
