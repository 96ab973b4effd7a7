package github

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
	"github-trend-radar/internal/port"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Verifier 实现了 port.MetadataProvider 接口
type Verifier struct {
	client *github.Client
}

// NewVerifier 初始化 GitHub 客户端
// token: GitHub Personal Access Token (如果是空字符串，就是匿名访问，限制 60次/小时)
func NewVerifier(token string) *Verifier {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Verifier{client: client}
}

// Lookup 用 "owner/repo" 查询仓库元数据并给出结论：
//   - 404            → OutcomeNotFound，候选是 LLM 幻觉，应当丢弃
//   - 403/429 或限流 → OutcomeRateLimited，候选保留但不回填元数据
//   - 其他失败       → OutcomeFailed，按"存在但未知"处理
//   - 成功           → OutcomeFound + 元数据
func (v *Verifier) Lookup(ctx context.Context, name string) (*domain.RepoMetadata, port.LookupOutcome, error) {
	owner, repoName, ok := strings.Cut(name, "/")
	if !ok || owner == "" || repoName == "" {
		return nil, port.OutcomeFailed, common.NewError(common.ErrCodeInvalidInput, "仓库名不是 owner/repo 形式: "+name)
	}

	repo, resp, err := v.client.Repositories.Get(ctx, owner, repoName)
	if err != nil {
		return nil, classifyLookupError(resp, err), wrapLookupError(resp, err)
	}

	meta := &domain.RepoMetadata{
		IsArchived: repo.GetArchived(),
		StarsCount: repo.GetStargazersCount(),
		Language:   repo.GetLanguage(),
	}
	if ts := repo.PushedAt; ts != nil {
		pushed := ts.Time
		meta.LastPushedAt = &pushed
	}

	return meta, port.OutcomeFound, nil
}

// classifyLookupError 把查询错误归入结论分类
func classifyLookupError(resp *github.Response, err error) port.LookupOutcome {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return port.OutcomeRateLimited
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return port.OutcomeNotFound
		case http.StatusForbidden, http.StatusTooManyRequests:
			return port.OutcomeRateLimited
		}
	}

	return port.OutcomeFailed
}

// wrapLookupError 只有 OutcomeFailed 的情况需要携带错误；
// not-found 和限流是正常的业务结论，不算错误
func wrapLookupError(resp *github.Response, err error) error {
	outcome := classifyLookupError(resp, err)
	if outcome != port.OutcomeFailed {
		return nil
	}
	return common.WrapError(common.ErrCodeGitHubAPI, "GitHub API 调用失败", err)
}
