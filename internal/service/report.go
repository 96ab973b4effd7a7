package service

import (
	"fmt"
	"strings"
	"time"

	"github-trend-radar/internal/domain"
)

// BuildReport 生成用户可读的多行文本报告，
// 用于复制到剪贴板分享当前展示或收藏的项目集合
func BuildReport(title string, repos []domain.Repo, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📡 %s (%s)\n", title, now.Format("2006-01-02 15:04")))
	sb.WriteString(strings.Repeat("=", 48) + "\n")

	if len(repos) == 0 {
		sb.WriteString("（空）\n")
		return sb.String()
	}

	for i, repo := range repos {
		sb.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, repo.Name, repo.StatusTier(now)))
		if repo.Description != "" {
			sb.WriteString("   " + repo.Description + "\n")
		}

		details := make([]string, 0, 3)
		if repo.StarsCount > 0 {
			details = append(details, fmt.Sprintf("⭐ %d", repo.StarsCount))
		}
		if repo.StarsTrend != "" {
			details = append(details, "趋势 "+repo.StarsTrend)
		}
		if repo.Language != "" {
			details = append(details, repo.Language)
		}
		if len(details) > 0 {
			sb.WriteString("   " + strings.Join(details, "  |  ") + "\n")
		}

		sb.WriteString("   " + repo.URL + "\n")
	}

	return sb.String()
}
