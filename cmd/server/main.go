package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github-trend-radar/internal/adapter/gemini"
	"github-trend-radar/internal/adapter/github"
	"github-trend-radar/internal/adapter/repository"
	"github-trend-radar/internal/api"
	"github-trend-radar/internal/config"
	"github-trend-radar/internal/port"
	"github-trend-radar/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ 配置非法: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 初始化存储
	kv, err := newKVStore(cfg)
	if err != nil {
		log.Fatalf("❌ 存储初始化失败: %v", err)
	}

	// 3. 初始化 LLM 候选源：凭证优先取环境变量，其次取持久化存储；
	//    都没有时进程照常启动，等用户在面板录入
	key := resolveCredential(ctx, cfg, kv)
	var source port.CandidateSource
	if key == "" {
		log.Println("⚠️ 尚未配置 LLM 凭证，扫描前请先录入")
		source = service.NewUnconfiguredSource()
	} else {
		source, err = newCandidateSource(ctx, cfg.LLMProvider, key)
		if err != nil {
			log.Fatalf("❌ LLM 初始化失败: %v", err)
		}
	}

	// 4. 组装服务
	verifier := github.NewVerifier(cfg.GitHubToken)
	scanner := service.NewScanService(source, verifier, kv, service.NewStateStore(), cfg.TargetCount)

	vault, err := service.NewVault(ctx, kv)
	if err != nil {
		log.Fatalf("❌ 收藏夹加载失败: %v", err)
	}

	factory := func(ctx context.Context, key string) (port.CandidateSource, error) {
		return newCandidateSource(ctx, cfg.LLMProvider, key)
	}
	router := api.SetupRoutes(api.NewHandler(scanner, vault, kv, cfg.LLMProvider, factory))

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// 5. 启动并等待停止信号
	go func() {
		fmt.Printf("📡 Trend Radar 已启动: http://%s\n", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ HTTP 服务异常退出: %v", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("\n👋 收到停止信号，正在退出...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ 优雅关闭失败: %v", err)
	}
}

// newKVStore 按配置选择存储后端
func newKVStore(cfg *config.Config) (port.KVStore, error) {
	switch cfg.StorageType {
	case "postgres":
		return repository.NewPostgresStore(cfg.PostgresURL)
	default:
		return repository.NewSQLiteStore(cfg.SQLitePath)
	}
}

// newCandidateSource 按配置选择 LLM 厂商；未知厂商在 Validate 阶段已被拦下
func newCandidateSource(ctx context.Context, provider, key string) (port.CandidateSource, error) {
	switch provider {
	case "gemini":
		return gemini.NewSource(ctx, key)
	default:
		return nil, fmt.Errorf("不支持的 LLM 厂商: %s", provider)
	}
}

// resolveCredential 解析 LLM 凭证：环境变量优先，其次是用户之前录入的持久化凭证
func resolveCredential(ctx context.Context, cfg *config.Config, kv port.KVStore) string {
	if cfg.GeminiAPIKey != "" {
		return cfg.GeminiAPIKey
	}
	if stored, found, err := kv.Get(ctx, repository.CredentialKey(cfg.LLMProvider)); err == nil && found {
		return stored
	}
	return ""
}
