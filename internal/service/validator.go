package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
	"github-trend-radar/internal/port"
)

// Validator 负责把 LLM 的原始输出核验成可展示的项目列表
type Validator struct {
	metadata    port.MetadataProvider
	targetCount int
}

// NewValidator 创建验证管线；targetCount 是每次扫描最终保留的项目数
func NewValidator(metadata port.MetadataProvider, targetCount int) *Validator {
	if targetCount <= 0 {
		targetCount = 10
	}
	return &Validator{
		metadata:    metadata,
		targetCount: targetCount,
	}
}

// ExtractCandidates 从 LLM 的自由文本里容错地抠出候选数组。
// 即使返回被 Markdown 代码块包裹、前后夹杂说明文字，也能精准截取
// 最外层的 [ ... ]；首次解析失败后去掉尾逗号再试一次。
func ExtractCandidates(raw string) ([]domain.RawCandidate, error) {
	cleaned := stripCodeFences(raw)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, common.NewError(common.ErrCodeMalformedResponse,
			fmt.Sprintf("无法从 LLM 返回中提取 JSON 数组: %.120s", raw))
	}

	jsonStr := cleaned[start : end+1]

	var candidates []domain.RawCandidate
	if err := json.Unmarshal([]byte(jsonStr), &candidates); err == nil {
		return candidates, nil
	}

	// 常见的 LLM 语法错误：数组或对象末尾多了一个逗号
	retried := stripTrailingCommas(jsonStr)
	if err := json.Unmarshal([]byte(retried), &candidates); err != nil {
		return nil, common.WrapError(common.ErrCodeMalformedResponse, "JSON 解析失败", err)
	}
	return candidates, nil
}

// stripCodeFences 去掉 ```json ... ``` 这类代码块标记
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return s
}

var trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)

// stripTrailingCommas 去掉 ] 或 } 前面多余的逗号
func stripTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// NormalizeName 把候选仓库名归一成 "owner/repo"：
// 去掉 URL 前缀、尾部 ".git" 和尾部斜杠。
// 第二个返回值为 false 表示归一后仍不是 owner/repo 形状，候选应被丢弃。
func NormalizeName(name string) (string, bool) {
	n := strings.TrimSpace(name)

	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		if strings.HasPrefix(n, prefix) {
			n = strings.TrimPrefix(n, prefix)
			break
		}
	}

	n = strings.TrimSuffix(n, "/")
	n = strings.TrimSuffix(n, ".git")

	parts := strings.Split(n, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return n, true
}

// Validate 逐个核验候选，直到凑够目标数量。
// 刻意串行调用元数据接口：顺序保留输入顺序，也避免触发限流。
// 结论处理策略（全厂商统一）：
//   - not-found    → 丢弃（LLM 幻觉，不计入目标数量）
//   - rate-limited → 保留，打上限流标记，不回填元数据
//   - 其他失败     → 按"存在但未知"保留，只带最小元数据，不打限流标记
//   - 成功         → 回填元数据
//
// 一个候选都没有通过时返回 EMPTY_RESULT 终止错误。
func (v *Validator) Validate(ctx context.Context, candidates []domain.RawCandidate) ([]domain.Repo, error) {
	accepted := make([]domain.Repo, 0, v.targetCount)

	for _, c := range candidates {
		if len(accepted) >= v.targetCount {
			break
		}

		name, ok := NormalizeName(c.Name)
		if !ok {
			log.Printf("[Validator] 丢弃形状非法的候选: %q", c.Name)
			continue
		}

		repo := domain.Repo{
			Name:        name,
			URL:         "https://github.com/" + name,
			Description: c.Description,
			StarsTrend:  c.StarsTrend,
			Tags:        c.Tags,
		}

		meta, outcome, err := v.metadata.Lookup(ctx, name)
		switch outcome {
		case port.OutcomeNotFound:
			log.Printf("[Validator] 丢弃不存在的仓库: %s", name)
			continue

		case port.OutcomeRateLimited:
			log.Printf("[Validator] 查询 %s 被限流，保留候选但不回填元数据", name)
			repo.IsRateLimited = true

		case port.OutcomeFailed:
			log.Printf("[Validator] 查询 %s 失败: %v，按存在但未知处理", name, err)

		case port.OutcomeFound:
			repo.LastPushedAt = meta.LastPushedAt
			repo.IsArchived = meta.IsArchived
			repo.StarsCount = meta.StarsCount
			repo.Language = meta.Language
		}

		accepted = append(accepted, repo)
	}

	if len(accepted) == 0 {
		return nil, common.NewError(common.ErrCodeEmptyResult, "没有候选通过验证")
	}

	return accepted, nil
}
