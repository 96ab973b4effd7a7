package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatestCheckpoint(t *testing.T) {
	loc := time.Local
	day := func(hour, minute int) time.Time {
		return time.Date(2026, 8, 24, hour, minute, 0, 0, loc)
	}

	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "凌晨时段回落到昨天17:00",
			now:      day(3, 30),
			expected: time.Date(2026, 8, 23, 17, 0, 0, 0, loc),
		},
		{
			name:     "刚过午夜回落到昨天17:00",
			now:      day(0, 0),
			expected: time.Date(2026, 8, 23, 17, 0, 0, 0, loc),
		},
		{
			name:     "05:00整点属于上午边界",
			now:      day(5, 0),
			expected: day(5, 0),
		},
		{
			name:     "上午时段返回今天05:00",
			now:      day(9, 15),
			expected: day(5, 0),
		},
		{
			name:     "16:59仍属于上午边界",
			now:      day(16, 59),
			expected: day(5, 0),
		},
		{
			name:     "17:00整点切换到傍晚边界",
			now:      day(17, 0),
			expected: day(17, 0),
		},
		{
			name:     "深夜时段返回今天17:00",
			now:      day(23, 45),
			expected: day(17, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LatestCheckpoint(tt.now))
		})
	}
}

func TestCacheEntry_IsFresh(t *testing.T) {
	loc := time.Local
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, loc) // 边界是今天05:00

	tests := []struct {
		name      string
		timestamp time.Time
		fresh     bool
	}{
		{
			name:      "边界之后写入的缓存是新鲜的",
			timestamp: time.Date(2026, 8, 24, 8, 0, 0, 0, loc),
			fresh:     true,
		},
		{
			name:      "恰好在边界上写入的缓存是新鲜的",
			timestamp: time.Date(2026, 8, 24, 5, 0, 0, 0, loc),
			fresh:     true,
		},
		{
			name:      "边界之前写入的缓存已过期",
			timestamp: time.Date(2026, 8, 24, 4, 59, 0, 0, loc),
			fresh:     false,
		},
		{
			name:      "昨天的缓存已过期",
			timestamp: time.Date(2026, 8, 23, 18, 0, 0, 0, loc),
			fresh:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{Timestamp: tt.timestamp}
			assert.Equal(t, tt.fresh, entry.IsFresh(now))
		})
	}

	t.Run("nil条目永远不新鲜", func(t *testing.T) {
		var entry *CacheEntry
		assert.False(t, entry.IsFresh(now))
	})
}
