package service

import (
	"fmt"
	"testing"
	"time"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_InitialState(t *testing.T) {
	store := NewStateStore()
	state := store.State()

	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.Equal(t, domain.DefaultTimeFrame, state.Window)
	assert.Empty(t, state.Repos)
	assert.Empty(t, state.ErrorCode)
}

func TestStateStore_ScanLifecycle(t *testing.T) {
	store := NewStateStore()

	store.Dispatch(ScanStarted{Window: domain.TimeFrame7Day})
	state := store.State()
	assert.Equal(t, domain.StatusScanning, state.Status)
	assert.Equal(t, domain.TimeFrame7Day, state.Window)

	repos := []domain.Repo{{Name: "a/b"}, {Name: "c/d"}}
	store.Dispatch(ScanCompleted{Window: domain.TimeFrame7Day, Repos: repos})
	state = store.State()
	assert.Equal(t, domain.StatusComplete, state.Status)
	assert.Equal(t, repos, state.Repos)
	assert.Empty(t, state.ErrorCode)
}

func TestStateStore_ScanFailed(t *testing.T) {
	tests := []struct {
		name           string
		code           string
		expectNeedsKey bool
	}{
		{name: "解析错误不提示录入凭证", code: common.ErrCodeMalformedResponse, expectNeedsKey: false},
		{name: "空结果不提示录入凭证", code: common.ErrCodeEmptyResult, expectNeedsKey: false},
		{name: "缺少凭证提示录入", code: common.ErrCodeMissingCredential, expectNeedsKey: true},
		{name: "凭证无效提示录入", code: common.ErrCodeAuthFailure, expectNeedsKey: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStateStore()
			store.Dispatch(ScanStarted{Window: domain.TimeFrame3Day})
			store.Dispatch(ScanFailed{Window: domain.TimeFrame3Day, Code: tt.code, Message: "boom"})

			state := store.State()
			assert.Equal(t, domain.StatusError, state.Status)
			assert.Equal(t, tt.code, state.ErrorCode)
			assert.Equal(t, tt.expectNeedsKey, state.NeedsKey)
		})
	}
}

func TestStateStore_ScanFailedWithFallback(t *testing.T) {
	store := NewStateStore()
	fallback := []domain.Repo{{Name: "stale/repo"}}

	store.Dispatch(ScanFailed{
		Window:   domain.TimeFrame3Day,
		Code:     common.ErrCodeNetworkFailure,
		Message:  "connection refused",
		Fallback: fallback,
	})

	state := store.State()
	assert.Equal(t, domain.StatusError, state.Status)
	// 降级展示：错误状态下仍然显示缓存数据
	assert.Equal(t, fallback, state.Repos)
}

func TestStateStore_CompletionClearsError(t *testing.T) {
	store := NewStateStore()

	store.Dispatch(ScanFailed{Window: domain.TimeFrame3Day, Code: common.ErrCodeAuthFailure, Message: "401"})
	require.True(t, store.State().NeedsKey)

	store.Dispatch(ScanCompleted{Window: domain.TimeFrame3Day, Repos: []domain.Repo{{Name: "a/b"}}})
	state := store.State()
	assert.Equal(t, domain.StatusComplete, state.Status)
	assert.Empty(t, state.ErrorCode)
	assert.False(t, state.NeedsKey)
}

func TestStateStore_Subscribe(t *testing.T) {
	store := NewStateStore()
	ch := store.Subscribe()

	store.Dispatch(ScanStarted{Window: domain.TimeFrame14Day})

	select {
	case state := <-ch:
		assert.Equal(t, domain.StatusScanning, state.Status)
		assert.Equal(t, domain.TimeFrame14Day, state.Window)
	case <-time.After(time.Second):
		t.Fatal("订阅者没有收到状态快照")
	}
}

func TestStateStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewStateStore()
	_ = store.Subscribe() // 从不消费

	done := make(chan struct{})
	go func() {
		// 超过通道容量的事件数量也不能阻塞
		for i := 0; i < 50; i++ {
			store.Dispatch(LogAppended{Line: fmt.Sprintf("line %d", i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("慢订阅者阻塞了状态机")
	}
}

func TestStateStore_LogCap(t *testing.T) {
	store := NewStateStore()

	for i := 0; i < maxLogLines+20; i++ {
		store.Dispatch(LogAppended{Line: fmt.Sprintf("line %d", i)})
	}

	logs := store.State().Logs
	assert.Len(t, logs, maxLogLines)
	// 最旧的被丢弃，最新的保留
	assert.Contains(t, logs[len(logs)-1], fmt.Sprintf("line %d", maxLogLines+19))
}

func TestReduce_IsPure(t *testing.T) {
	// 转移函数不得修改旧状态
	before := State{
		Status: domain.StatusIdle,
		Window: domain.TimeFrame3Day,
		Logs:   []string{"existing"},
	}

	after := reduce(before, ScanStarted{Window: domain.TimeFrame7Day}, time.Now())

	assert.Equal(t, domain.StatusIdle, before.Status)
	assert.Equal(t, domain.TimeFrame3Day, before.Window)
	assert.Len(t, before.Logs, 1)

	assert.Equal(t, domain.StatusScanning, after.Status)
	assert.Equal(t, domain.TimeFrame7Day, after.Window)
	assert.Len(t, after.Logs, 2)
}
