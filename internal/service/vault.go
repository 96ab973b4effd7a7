package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github-trend-radar/internal/adapter/repository"
	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
	"github-trend-radar/internal/port"
)

// Vault 是收藏夹：按仓库名去重的集合，只支持 toggle 操作
type Vault struct {
	kv port.KVStore

	mu    sync.Mutex
	items []domain.Repo
}

// NewVault 创建收藏夹并从持久化存储加载。
// 旧版格式（纯仓库名字符串数组）检测到后整体丢弃，不做迁移。
func NewVault(ctx context.Context, kv port.KVStore) (*Vault, error) {
	v := &Vault{kv: kv}

	value, found, err := kv.Get(ctx, repository.FavoritesKey())
	if err != nil {
		return nil, common.WrapError(common.ErrCodeInternal, "读取收藏夹失败", err)
	}
	if !found {
		return v, nil
	}

	v.items = parseFavorites(value)
	return v, nil
}

// parseFavorites 解析收藏 blob。
// 旧版格式是 ["owner/repo", ...]，一旦检测到就整体丢弃；
// 损坏的 blob 同样按空集合处理。
func parseFavorites(value string) []domain.Repo {
	var legacy []string
	if err := json.Unmarshal([]byte(value), &legacy); err == nil && len(legacy) > 0 {
		log.Printf("[Vault] 检测到旧版收藏格式（%d 个裸仓库名），整体丢弃", len(legacy))
		return nil
	}

	var items []domain.Repo
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		log.Printf("[Vault] 收藏 blob 损坏，按空集合处理: %v", err)
		return nil
	}
	return items
}

// Toggle 切换收藏状态：已存在则移除，不存在则把完整记录追加到末尾。
// 每次切换都同步持久化整个集合。
// 返回值表示这次操作之后该仓库是否在收藏夹里。
func (v *Vault) Toggle(ctx context.Context, repo domain.Repo) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	found := false
	next := make([]domain.Repo, 0, len(v.items)+1)
	for _, item := range v.items {
		if item.Name == repo.Name {
			found = true
			continue
		}
		next = append(next, item)
	}
	if !found {
		next = append(next, repo)
	}

	blob, err := json.Marshal(next)
	if err != nil {
		return found, common.WrapError(common.ErrCodeInternal, "序列化收藏夹失败", err)
	}
	if err := v.kv.Put(ctx, repository.FavoritesKey(), string(blob)); err != nil {
		return found, err
	}

	v.items = next
	return !found, nil
}

// List 返回收藏夹当前内容的副本
func (v *Vault) List() []domain.Repo {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]domain.Repo, len(v.items))
	copy(out, v.items)
	return out
}

// Contains 判断某仓库是否在收藏夹里
func (v *Vault) Contains(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, item := range v.items {
		if item.Name == name {
			return true
		}
	}
	return false
}
