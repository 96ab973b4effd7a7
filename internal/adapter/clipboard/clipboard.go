package clipboard

import (
	"github-trend-radar/internal/common"
	"github-trend-radar/internal/port"

	"github.com/atotto/clipboard"
)

// Writer 实现了 port.Clipboard 接口，写系统剪贴板
type Writer struct{}

var _ port.Clipboard = (*Writer)(nil)

// NewWriter 创建剪贴板写入器
func NewWriter() *Writer {
	return &Writer{}
}

// Write 把报告文本写入系统剪贴板
func (w *Writer) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return common.WrapError(common.ErrCodeInternal, "写入剪贴板失败", err)
	}
	return nil
}
