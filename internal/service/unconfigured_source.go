package service

import (
	"context"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
)

// UnconfiguredSource 是没有凭证时的占位候选源：
// 进程照常启动，扫描会以 MISSING_CREDENTIAL 失败并提示用户录入凭证
type UnconfiguredSource struct{}

// NewUnconfiguredSource 创建占位候选源
func NewUnconfiguredSource() *UnconfiguredSource {
	return &UnconfiguredSource{}
}

// FetchCandidates 始终返回缺少凭证错误
func (s *UnconfiguredSource) FetchCandidates(ctx context.Context, window domain.TimeFrame) (string, error) {
	return "", common.NewError(common.ErrCodeMissingCredential, "尚未配置 LLM 凭证")
}

// ValidateKey 没有凭证可探测，直接返回无效
func (s *UnconfiguredSource) ValidateKey(ctx context.Context) (bool, error) {
	return false, nil
}
