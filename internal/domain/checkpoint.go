package domain

import "time"

// 每天两个固定的缓存刷新边界（本地时间）
const (
	MorningCheckpointHour = 5
	EveningCheckpointHour = 17
)

// LatestCheckpoint 返回不晚于 now 的最近一个刷新边界：
//   - now < 05:00        → 昨天 17:00
//   - 05:00 ≤ now < 17:00 → 今天 05:00
//   - now ≥ 17:00        → 今天 17:00
func LatestCheckpoint(now time.Time) time.Time {
	morning := time.Date(now.Year(), now.Month(), now.Day(), MorningCheckpointHour, 0, 0, 0, now.Location())
	evening := time.Date(now.Year(), now.Month(), now.Day(), EveningCheckpointHour, 0, 0, 0, now.Location())

	switch {
	case now.Before(morning):
		// 凌晨时段，回落到昨天傍晚的边界
		return evening.AddDate(0, 0, -1)
	case now.Before(evening):
		return morning
	default:
		return evening
	}
}

// IsFresh 判断缓存条目是否仍然新鲜：
// 时间戳不早于最近一个刷新边界即视为新鲜
func (e *CacheEntry) IsFresh(now time.Time) bool {
	if e == nil {
		return false
	}
	return !e.Timestamp.Before(LatestCheckpoint(now))
}
