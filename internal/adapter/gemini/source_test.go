package gemini

import (
	"context"
	"errors"
	"testing"

	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestNewSource_MissingKey(t *testing.T) {
	source, err := NewSource(context.Background(), "")

	assert.Nil(t, source)
	assert.Error(t, err)
	assert.Equal(t, common.ErrCodeMissingCredential, common.CodeOf(err))
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name   string
		window domain.TimeFrame
		days   string
	}{
		{name: "3天窗口", window: domain.TimeFrame3Day, days: "3 天"},
		{name: "7天窗口", window: domain.TimeFrame7Day, days: "7 天"},
		{name: "14天窗口", window: domain.TimeFrame14Day, days: "14 天"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildPrompt(tt.window)

			assert.Contains(t, prompt, tt.days)
			assert.Contains(t, prompt, "JSON 数组")
			assert.Contains(t, prompt, "owner/repo")
			assert.Contains(t, prompt, "stars_trend")
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "401归为凭证错误",
			err:      &googleapi.Error{Code: 401},
			expected: common.ErrCodeAuthFailure,
		},
		{
			name:     "403归为凭证错误",
			err:      &googleapi.Error{Code: 403},
			expected: common.ErrCodeAuthFailure,
		},
		{
			name:     "500归为网络错误",
			err:      &googleapi.Error{Code: 500},
			expected: common.ErrCodeNetworkFailure,
		},
		{
			name:     "普通错误归为网络错误",
			err:      errors.New("connection reset"),
			expected: common.ErrCodeNetworkFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyError(tt.err)
			assert.Equal(t, tt.expected, common.CodeOf(classified))
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}
