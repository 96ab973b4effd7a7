package domain

import "time"

// StatusTier 是仓库活跃度的展示档位
type StatusTier string

const (
	TierArchived    StatusTier = "archived"
	TierRateLimited StatusTier = "ratelimited"
	TierUnknown     StatusTier = "unknown"
	TierCritical    StatusTier = "critical" // ≤3 天内有提交，非常活跃
	TierOnline      StatusTier = "online"   // ≤7 天
	TierStable      StatusTier = "stable"   // ≤30 天
	TierIdle        StatusTier = "idle"     // ≤90 天
	TierDecaying    StatusTier = "decaying" // ≤180 天
	TierOffline     StatusTier = "offline"  // >180 天
)

// Tier 根据归档标记、限流标记和最近推送时间推导展示档位。
// 优先级：archived > ratelimited > 缺少时间戳(unknown) > 按天数分档。
// 纯函数，无副作用。
func Tier(isArchived, isRateLimited bool, lastPushedAt *time.Time, now time.Time) StatusTier {
	if isArchived {
		return TierArchived
	}
	if isRateLimited {
		return TierRateLimited
	}
	if lastPushedAt == nil {
		return TierUnknown
	}

	days := now.Sub(*lastPushedAt).Hours() / 24
	switch {
	case days <= 3:
		return TierCritical
	case days <= 7:
		return TierOnline
	case days <= 30:
		return TierStable
	case days <= 90:
		return TierIdle
	case days <= 180:
		return TierDecaying
	default:
		return TierOffline
	}
}

// StatusTier 返回该仓库当前的展示档位
func (r *Repo) StatusTier(now time.Time) StatusTier {
	return Tier(r.IsArchived, r.IsRateLimited, r.LastPushedAt, now)
}
