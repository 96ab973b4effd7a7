package domain

import (
	"strings"
	"time"
)

// Repo 代表一个经过验证的热门开源项目
type Repo struct {
	// 基础信息 (来自 LLM 候选)
	Name        string   `json:"name"` // 例如 "gohugoio/hugo"，作为唯一标识
	URL         string   `json:"url"`
	Description string   `json:"description"`
	StarsTrend  string   `json:"stars_trend"` // LLM 给出的趋势描述，如 "本周 +2.3k"
	Tags        []string `json:"tags"`

	// --- 验证后回填的 GitHub 元数据 ---

	LastPushedAt  *time.Time `json:"last_pushed_at,omitempty"`
	IsArchived    bool       `json:"is_archived"`
	StarsCount    int        `json:"stars_count"`
	Language      string     `json:"language"`
	IsRateLimited bool       `json:"is_rate_limited"` // 查询被限流，元数据不完整
}

// RawCandidate 是 LLM 返回的原始候选记录，尚未经过验证
type RawCandidate struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	StarsTrend  string   `json:"stars_trend"`
}

// RepoMetadata 是元数据接口返回的仓库信息
type RepoMetadata struct {
	LastPushedAt *time.Time
	IsArchived   bool
	StarsCount   int
	Language     string
}

// CacheEntry 是按时间窗口缓存的一次扫描结果
type CacheEntry struct {
	Data      []Repo    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeFrame 是用户选择的回溯窗口
type TimeFrame string

const (
	TimeFrame3Day  TimeFrame = "3d"
	TimeFrame7Day  TimeFrame = "7d"
	TimeFrame14Day TimeFrame = "14d"
)

// DefaultTimeFrame 默认窗口
const DefaultTimeFrame = TimeFrame3Day

// Days 返回窗口对应的天数
func (tf TimeFrame) Days() int {
	switch tf {
	case TimeFrame3Day:
		return 3
	case TimeFrame7Day:
		return 7
	case TimeFrame14Day:
		return 14
	default:
		return 3
	}
}

// Valid 判断窗口取值是否合法
func (tf TimeFrame) Valid() bool {
	switch tf {
	case TimeFrame3Day, TimeFrame7Day, TimeFrame14Day:
		return true
	}
	return false
}

// ParseTimeFrame 解析窗口字符串，空串回落到默认值
func ParseTimeFrame(s string) (TimeFrame, bool) {
	if s == "" {
		return DefaultTimeFrame, true
	}
	tf := TimeFrame(strings.ToLower(s))
	return tf, tf.Valid()
}

// AppStatus 驱动前端展示的单值状态
type AppStatus string

const (
	StatusIdle     AppStatus = "idle"
	StatusScanning AppStatus = "scanning"
	StatusComplete AppStatus = "complete"
	StatusError    AppStatus = "error"
)
