package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github-trend-radar/internal/adapter/repository"
	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
	"github-trend-radar/internal/port"
)

// ScanService 是扫描编排器：串起 LLM 候选获取、验证管线、缓存和状态机
type ScanService struct {
	srcMu  sync.RWMutex
	source port.CandidateSource

	validator *Validator
	kv        port.KVStore
	state     *StateStore

	// generation 是请求代数计数器：每次扫描请求递增，
	// 每个挂起点之后都要核对，代数过期的结果直接丢弃
	generation atomic.Int64

	// commitMu 保证代数核对和共享状态落盘在同一个临界区内完成，
	// 核对和写入之间不会被新请求插队
	commitMu sync.Mutex

	nowFunc func() time.Time
}

// NewScanService 创建扫描服务
func NewScanService(source port.CandidateSource, metadata port.MetadataProvider, kv port.KVStore, state *StateStore, targetCount int) *ScanService {
	return &ScanService{
		source:    source,
		validator: NewValidator(metadata, targetCount),
		kv:        kv,
		state:     state,
		nowFunc:   time.Now,
	}
}

// StateStore 暴露状态机给 API 层订阅
func (s *ScanService) StateStore() *StateStore {
	return s.state
}

// SwapSource 替换候选源（用户录入新凭证后热切换）。
// 换源不递增代数：进行中的扫描仍用旧源跑完，结果照常生效
func (s *ScanService) SwapSource(source port.CandidateSource) {
	s.srcMu.Lock()
	s.source = source
	s.srcMu.Unlock()
}

func (s *ScanService) currentSource() port.CandidateSource {
	s.srcMu.RLock()
	defer s.srcMu.RUnlock()
	return s.source
}

// Scan 执行一次扫描请求。
// force=false 时先查缓存，新鲜则直接短路返回；
// force=true 时跳过缓存读取，但成功后仍然写缓存。
// 返回执行后的状态快照；被新请求抢占的扫描静默丢弃结果，不返回错误。
func (s *ScanService) Scan(ctx context.Context, window domain.TimeFrame, force bool) State {
	// 同步占据"当前活跃请求"：此后旧请求的结果一律作废
	gen := s.generation.Add(1)
	s.state.Dispatch(ScanStarted{Window: window, Forced: force})

	if !force {
		if entry := s.loadCache(ctx, window); entry != nil {
			if entry.IsFresh(s.nowFunc()) {
				// 缓存命中，无需任何网络请求；
				// 读缓存也是挂起点，落盘前同样要核对代数
				if !s.commit(ctx, gen, ScanCompleted{Window: window, Repos: entry.Data, FromCache: true}) {
					return s.dropStale(gen, window)
				}
				return s.state.State()
			}
			log.Printf("[Scan] [%s] 缓存已过刷新边界，忽略 (写入于 %s)", window, entry.Timestamp.Format(time.RFC3339))
		}
	}

	raw, err := s.currentSource().FetchCandidates(ctx, window)
	if err != nil {
		return s.fail(ctx, gen, window, err)
	}
	if !s.isCurrent(gen) {
		return s.dropStale(gen, window)
	}

	candidates, err := ExtractCandidates(raw)
	if err != nil {
		return s.fail(ctx, gen, window, err)
	}

	repos, err := s.validator.Validate(ctx, candidates)
	if err != nil {
		return s.fail(ctx, gen, window, err)
	}

	if !s.commit(ctx, gen, ScanCompleted{Window: window, Repos: repos}) {
		return s.dropStale(gen, window)
	}
	return s.state.State()
}

// commit 在临界区内核对代数并落盘：写缓存和状态变更要么一起生效，
// 要么因为被抢占一起放弃；缓存命中的结果只更新状态不回写
func (s *ScanService) commit(ctx context.Context, gen int64, ev ScanCompleted) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.isCurrent(gen) {
		return false
	}
	if !ev.FromCache {
		s.writeCache(ctx, ev.Window, ev.Repos)
	}
	s.state.Dispatch(ev)
	return true
}

// isCurrent 判断本次扫描是否仍然是活跃请求
func (s *ScanService) isCurrent(gen int64) bool {
	return s.generation.Load() == gen
}

// dropStale 静默丢弃被抢占扫描的结果：不更新状态，不写缓存
func (s *ScanService) dropStale(gen int64, window domain.TimeFrame) State {
	log.Printf("[Scan] [%s] 第 %d 代请求已被抢占，结果作废", window, gen)
	return s.state.State()
}

// fail 处理扫描失败：核对代数后，尽力用最近的缓存（不论新鲜度）降级展示
func (s *ScanService) fail(ctx context.Context, gen int64, window domain.TimeFrame, err error) State {
	if !s.isCurrent(gen) {
		return s.dropStale(gen, window)
	}

	var fallback []domain.Repo
	if entry := s.loadCache(ctx, window); entry != nil {
		// 降级展示不看刷新边界，有什么用什么
		fallback = entry.Data
	}

	// 读降级缓存也是挂起点，错误状态落盘前再核对一次
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if !s.isCurrent(gen) {
		return s.dropStale(gen, window)
	}

	s.state.Dispatch(ScanFailed{
		Window:   window,
		Code:     common.CodeOf(err),
		Message:  err.Error(),
		Fallback: fallback,
	})
	return s.state.State()
}

// loadCache 读取某窗口的缓存条目；损坏的 blob 记日志后按未命中处理
func (s *ScanService) loadCache(ctx context.Context, window domain.TimeFrame) *domain.CacheEntry {
	value, found, err := s.kv.Get(ctx, repository.CacheKey(window))
	if err != nil {
		log.Printf("[Scan] [%s] 读取缓存失败: %v", window, err)
		return nil
	}
	if !found {
		return nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		// 存储损坏按缓存未命中处理，只记日志不上抛
		log.Printf("[Scan] [%s] 缓存 blob 损坏，按未命中处理: %v", window, err)
		return nil
	}
	return &entry
}

// writeCache 把扫描结果写入该窗口的缓存
func (s *ScanService) writeCache(ctx context.Context, window domain.TimeFrame, repos []domain.Repo) {
	entry := domain.CacheEntry{Data: repos, Timestamp: s.nowFunc()}
	blob, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[Scan] [%s] 序列化缓存失败: %v", window, err)
		return
	}
	if err := s.kv.Put(ctx, repository.CacheKey(window), string(blob)); err != nil {
		log.Printf("[Scan] [%s] 写入缓存失败: %v", window, err)
	}
}

// LoadCached 返回某窗口最近一次缓存的结果（不论新鲜度），供一次性命令使用
func (s *ScanService) LoadCached(ctx context.Context, window domain.TimeFrame) ([]domain.Repo, bool) {
	entry := s.loadCache(ctx, window)
	if entry == nil {
		return nil, false
	}
	return entry.Data, true
}

// ValidateKey 探测 LLM 凭证是否可用
func (s *ScanService) ValidateKey(ctx context.Context) (bool, error) {
	return s.currentSource().ValidateKey(ctx)
}
