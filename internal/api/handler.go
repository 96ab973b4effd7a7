package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github-trend-radar/internal/adapter/repository"
	"github-trend-radar/internal/common"
	"github-trend-radar/internal/domain"
	"github-trend-radar/internal/port"
	"github-trend-radar/internal/service"
)

// SourceFactory builds a candidate source from a freshly entered credential
type SourceFactory func(ctx context.Context, key string) (port.CandidateSource, error)

// Handler handles API requests
type Handler struct {
	scanner   *service.ScanService
	vault     *service.Vault
	kv        port.KVStore
	provider  string
	newSource SourceFactory
}

// NewHandler creates a new API handler
func NewHandler(scanner *service.ScanService, vault *service.Vault, kv port.KVStore, provider string, newSource SourceFactory) *Handler {
	return &Handler{
		scanner:   scanner,
		vault:     vault,
		kv:        kv,
		provider:  provider,
		newSource: newSource,
	}
}

// HealthCheck returns service health
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Scan runs a scan for the requested window and returns the resulting state
// GET /api/v1/scan?window=3d|7d|14d&force=true|false
func (h *Handler) Scan(c *gin.Context) {
	window, ok := domain.ParseTimeFrame(c.Query("window"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "window must be one of 3d, 7d, 14d",
			"code":  common.ErrCodeInvalidInput,
		})
		return
	}
	force := c.Query("force") == "true"

	state := h.scanner.Scan(c.Request.Context(), window, force)
	c.JSON(statusForState(state), gin.H{"data": state})
}

// GetState returns the current state snapshot
// GET /api/v1/state
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.scanner.StateStore().State()})
}

// GetFavorites returns the favorites set
// GET /api/v1/favorites
func (h *Handler) GetFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.vault.List()})
}

// ToggleFavorite toggles a full repo record in the favorites set
// POST /api/v1/favorites/toggle
func (h *Handler) ToggleFavorite(c *gin.Context) {
	var repo domain.Repo
	if err := c.ShouldBindJSON(&repo); err != nil || repo.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must be a repo record with a name",
			"code":  common.ErrCodeInvalidInput,
		})
		return
	}

	favorited, err := h.vault.Toggle(c.Request.Context(), repo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"code":  common.CodeOf(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"name":      repo.Name,
			"favorited": favorited,
		},
	})
}

// GetReport returns the shareable text report
// GET /api/v1/report?source=current|favorites
func (h *Handler) GetReport(c *gin.Context) {
	source := c.DefaultQuery("source", "current")

	var title string
	var repos []domain.Repo
	switch source {
	case "current":
		state := h.scanner.StateStore().State()
		title = "热门项目扫描报告 [" + string(state.Window) + "]"
		repos = state.Repos
	case "favorites":
		title = "收藏项目报告"
		repos = h.vault.List()
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "source must be 'current' or 'favorites'",
			"code":  common.ErrCodeInvalidInput,
		})
		return
	}

	// 返回纯文本，剪贴板写入由浏览器端完成
	c.String(http.StatusOK, service.BuildReport(title, repos, time.Now()))
}

// SaveKey validates a user-entered credential, persists it and hot-swaps
// the candidate source so the next scan uses the new key
// POST /api/v1/key
func (h *Handler) SaveKey(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must carry a non-empty key",
			"code":  common.ErrCodeInvalidInput,
		})
		return
	}

	ctx := c.Request.Context()
	source, err := h.newSource(ctx, req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.CodeOf(err),
		})
		return
	}

	valid, err := source.ValidateKey(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  common.CodeOf(err),
		})
		return
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "credential rejected by provider",
			"code":  common.ErrCodeAuthFailure,
		})
		return
	}

	if err := h.kv.Put(ctx, repository.CredentialKey(h.provider), req.Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"code":  common.CodeOf(err),
		})
		return
	}

	h.scanner.SwapSource(source)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"saved": true}})
}

// ValidateKey probes the LLM credential
// POST /api/v1/key/validate
func (h *Handler) ValidateKey(c *gin.Context) {
	valid, err := h.scanner.ValidateKey(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  common.CodeOf(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"valid": valid}})
}

// statusForState 扫描失败时仍然返回状态体，但用HTTP状态码区分
func statusForState(state service.State) int {
	if state.Status != domain.StatusError {
		return http.StatusOK
	}
	switch state.ErrorCode {
	case common.ErrCodeMissingCredential, common.ErrCodeAuthFailure:
		return http.StatusUnauthorized
	case common.ErrCodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
