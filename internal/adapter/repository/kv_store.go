package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 持久化键的命名空间，对应原来的 localStorage key
const (
	keyPrefix        = "trendradar:"
	cacheKeyPrefix   = keyPrefix + "cache:"
	favoritesKey     = keyPrefix + "favorites"
	credentialKeyPfx = keyPrefix + "key:"
)

// KVRecord 是键值表的 gorm 模型
type KVRecord struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName 固定表名
func (KVRecord) TableName() string {
	return "kv_records"
}

// KVStore 实现了 port.KVStore 接口
type KVStore struct {
	db *gorm.DB
}

// NewSQLiteStore 打开本地 SQLite 文件并自动迁移表结构
func NewSQLiteStore(path string) (*KVStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 失败: %w", err)
	}
	return newStore(db)
}

// NewPostgresStore 连接 Postgres 并自动迁移表结构
func NewPostgresStore(dsn string) (*KVStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return newStore(db)
}

func newStore(db *gorm.DB) (*KVStore, error) {
	// 自动迁移 (Auto Migrate)，表不存在时自动创建
	if err := db.AutoMigrate(&KVRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return &KVStore{db: db}, nil
}

// Get 读取键值；键不存在返回 ("", false, nil)
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var record KVRecord
	err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, common.WrapError(common.ErrCodeInternal, "读取键值失败", err)
	}
	return record.Value, true, nil
}

// Put 写入或覆盖键值 (Upsert)
func (s *KVStore) Put(ctx context.Context, key, value string) error {
	record := KVRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return common.WrapError(common.ErrCodeInternal, "写入键值失败", err)
	}
	return nil
}

// CacheKey 返回某个时间窗口的缓存键
func CacheKey(window domain.TimeFrame) string {
	return cacheKeyPrefix + string(window)
}

// FavoritesKey 返回收藏集合的持久化键
func FavoritesKey() string {
	return favoritesKey
}

// CredentialKey 返回某个 LLM 厂商凭证的持久化键
func CredentialKey(provider string) string {
	return credentialKeyPfx + provider
}
