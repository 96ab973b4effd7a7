package service

import (
	"fmt"
	"sync"
	"time"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
)

// maxLogLines 日志面板最多保留的行数
const maxLogLines = 200

// State 是驱动前端展示的完整状态快照
type State struct {
	Status    domain.AppStatus `json:"status"`
	Window    domain.TimeFrame `json:"window"`
	Repos     []domain.Repo    `json:"repos"`
	ErrorCode string           `json:"error_code,omitempty"`
	ErrorMsg  string           `json:"error_msg,omitempty"`
	NeedsKey  bool             `json:"needs_key"` // 凭证错误时提示用户重新录入
	Logs      []string         `json:"logs"`
}

// Event 是状态机接受的事件
type Event interface {
	isEvent()
}

// ScanStarted 扫描开始（点击窗口页签或强制刷新）
type ScanStarted struct {
	Window domain.TimeFrame
	Forced bool
}

// ScanCompleted 扫描成功结束
type ScanCompleted struct {
	Window    domain.TimeFrame
	Repos     []domain.Repo
	FromCache bool
}

// ScanFailed 扫描失败；Fallback 是降级展示用的陈旧缓存数据（可能为空）
type ScanFailed struct {
	Window   domain.TimeFrame
	Code     string
	Message  string
	Fallback []domain.Repo
}

// LogAppended 追加一行日志
type LogAppended struct {
	Line string
}

func (ScanStarted) isEvent()   {}
func (ScanCompleted) isEvent() {}
func (ScanFailed) isEvent()    {}
func (LogAppended) isEvent()   {}

// reduce 是纯转移函数：旧状态 + 事件 → 新状态
func reduce(state State, ev Event, now time.Time) State {
	switch e := ev.(type) {
	case ScanStarted:
		state.Status = domain.StatusScanning
		state.Window = e.Window
		state.ErrorCode = ""
		state.ErrorMsg = ""
		if e.Forced {
			state = appendLog(state, now, fmt.Sprintf("🔄 强制刷新 [%s] 窗口", e.Window))
		} else {
			state = appendLog(state, now, fmt.Sprintf("🚀 开始扫描 [%s] 窗口", e.Window))
		}

	case ScanCompleted:
		state.Status = domain.StatusComplete
		state.Window = e.Window
		state.Repos = e.Repos
		state.ErrorCode = ""
		state.ErrorMsg = ""
		state.NeedsKey = false
		if e.FromCache {
			state = appendLog(state, now, fmt.Sprintf("📦 命中缓存，[%s] 窗口共 %d 个项目", e.Window, len(e.Repos)))
		} else {
			state = appendLog(state, now, fmt.Sprintf("✅ 扫描完成，[%s] 窗口共 %d 个项目", e.Window, len(e.Repos)))
		}

	case ScanFailed:
		state.Status = domain.StatusError
		state.Window = e.Window
		state.ErrorCode = e.Code
		state.ErrorMsg = e.Message
		if e.Code == common.ErrCodeMissingCredential || e.Code == common.ErrCodeAuthFailure {
			state.NeedsKey = true
		}
		state = appendLog(state, now, fmt.Sprintf("❌ 扫描失败: %s", e.Message))
		if len(e.Fallback) > 0 {
			// 降级展示：错误状态下仍然显示最近一次的缓存结果
			state.Repos = e.Fallback
			state = appendLog(state, now, fmt.Sprintf("📦 降级展示 %d 个缓存项目", len(e.Fallback)))
		}

	case LogAppended:
		state = appendLog(state, now, e.Line)
	}

	return state
}

// appendLog 追加带时间戳的日志行，超出上限时丢弃最旧的
func appendLog(state State, now time.Time, line string) State {
	entry := now.Format("15:04:05") + " " + line
	logs := make([]string, 0, len(state.Logs)+1)
	logs = append(logs, state.Logs...)
	logs = append(logs, entry)
	if len(logs) > maxLogLines {
		logs = logs[len(logs)-maxLogLines:]
	}
	state.Logs = logs
	return state
}

// StateStore 持有状态并向订阅者广播变更。
// 所有变更只能通过 Dispatch 走纯转移函数，不暴露可变共享变量。
type StateStore struct {
	mu      sync.RWMutex
	state   State
	subs    []chan State
	nowFunc func() time.Time
}

// NewStateStore 创建初始状态为 idle 的状态机
func NewStateStore() *StateStore {
	return &StateStore{
		state: State{
			Status: domain.StatusIdle,
			Window: domain.DefaultTimeFrame,
		},
		nowFunc: time.Now,
	}
}

// Dispatch 应用事件并广播新状态
func (s *StateStore) Dispatch(ev Event) {
	s.mu.Lock()
	s.state = reduce(s.state, ev, s.nowFunc())
	snapshot := s.state
	subs := make([]chan State, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		// 订阅者跟不上时丢弃快照，绝不阻塞状态机
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// State 返回当前状态的快照
func (s *StateStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe 返回一个接收状态快照的通道
func (s *StateStore) Subscribe() <-chan State {
	ch := make(chan State, 8)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}
