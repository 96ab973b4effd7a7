package port

import (
	"context"

	"github-trend-radar/internal/domain"
)

// CandidateSource (情报源): 负责向 LLM 询问热门项目候选
// 不同厂商（Gemini 等）的差异收敛在这个接口后面，由配置选择实现
type CandidateSource interface {
	// FetchCandidates 按窗口长度生成提示词并返回 LLM 的原始文本
	// （其中应当包含一个 JSON 数组，但不做任何保证，容错交给验证管线）
	FetchCandidates(ctx context.Context, window domain.TimeFrame) (string, error)

	// ValidateKey 用最小探测请求验证凭证是否可用
	ValidateKey(ctx context.Context) (bool, error)
}

// MetadataProvider (核验员): 负责用 "owner/repo" 查询托管平台元数据
type MetadataProvider interface {
	// Lookup 返回元数据和查询结论；只有 OutcomeFailed 时 err 非空
	Lookup(ctx context.Context, name string) (*domain.RepoMetadata, LookupOutcome, error)
}

// LookupOutcome 是一次元数据查询的结论
type LookupOutcome int

const (
	// OutcomeFound 查询成功，元数据可用
	OutcomeFound LookupOutcome = iota
	// OutcomeNotFound 仓库不存在（LLM 幻觉），候选应被丢弃
	OutcomeNotFound
	// OutcomeRateLimited 被限流或禁止访问，候选保留但标记限流
	OutcomeRateLimited
	// OutcomeFailed 其他失败（网络错误等），按"存在但未知"处理
	OutcomeFailed
)

// KVStore (仓库管理员): 命名空间化的键值持久化
// 缓存、收藏、凭证都以 JSON blob 形式存在这里
type KVStore interface {
	// Get 读取键值；键不存在时返回 ("", false, nil)
	Get(ctx context.Context, key string) (string, bool, error)

	// Put 写入或覆盖键值
	Put(ctx context.Context, key, value string) error
}

// Clipboard (剪贴板): 报告导出的落点
type Clipboard interface {
	Write(text string) error
}
