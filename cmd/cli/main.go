package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github-trend-radar/internal/adapter/clipboard"
	"github-trend-radar/internal/adapter/gemini"
	"github-trend-radar/internal/adapter/github"
	"github-trend-radar/internal/adapter/repository"
	"github-trend-radar/internal/config"
	"github-trend-radar/internal/domain"
	"github-trend-radar/internal/port"
	"github-trend-radar/internal/service"
)

// app 持有一次命令执行所需的全部依赖
type app struct {
	cfg      *config.Config
	kv       port.KVStore
	scanner  *service.ScanService
	vault    *service.Vault
	verifier *github.Verifier
	clip     port.Clipboard
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv, err := newKVStore(cfg)
	if err != nil {
		return nil, err
	}

	// 凭证优先取环境变量，其次取之前 set-key 存下的；都没有时命令仍可运行，
	// 需要 LLM 的操作会以缺少凭证失败
	key := resolveCredential(ctx, cfg, kv)
	var source port.CandidateSource
	if key == "" {
		source = service.NewUnconfiguredSource()
	} else {
		source, err = newCandidateSource(ctx, cfg.LLMProvider, key)
		if err != nil {
			return nil, err
		}
	}

	verifier := github.NewVerifier(cfg.GitHubToken)
	vault, err := service.NewVault(ctx, kv)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		kv:       kv,
		scanner:  service.NewScanService(source, verifier, kv, service.NewStateStore(), cfg.TargetCount),
		vault:    vault,
		verifier: verifier,
		clip:     clipboard.NewWriter(),
	}, nil
}

func newKVStore(cfg *config.Config) (port.KVStore, error) {
	switch cfg.StorageType {
	case "postgres":
		return repository.NewPostgresStore(cfg.PostgresURL)
	default:
		return repository.NewSQLiteStore(cfg.SQLitePath)
	}
}

func newCandidateSource(ctx context.Context, provider, key string) (port.CandidateSource, error) {
	switch provider {
	case "gemini":
		return gemini.NewSource(ctx, key)
	default:
		return nil, fmt.Errorf("不支持的 LLM 厂商: %s", provider)
	}
}

// resolveCredential 解析 LLM 凭证：环境变量优先，其次是 set-key 存下的持久化凭证
func resolveCredential(ctx context.Context, cfg *config.Config, kv port.KVStore) string {
	if cfg.GeminiAPIKey != "" {
		return cfg.GeminiAPIKey
	}
	if stored, found, err := kv.Get(ctx, repository.CredentialKey(cfg.LLMProvider)); err == nil && found {
		return stored
	}
	return ""
}

func main() {
	root := &cobra.Command{
		Use:   "trendradar",
		Short: "LLM 驱动的 GitHub 热门项目雷达",
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newFavoritesCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateKeyCmd())
	root.AddCommand(newSetKeyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newScanCmd() *cobra.Command {
	var windowFlag string
	var force bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "扫描一次热门项目并打印结果",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, ok := domain.ParseTimeFrame(windowFlag)
			if !ok {
				return fmt.Errorf("窗口必须是 3d、7d 或 14d，收到: %s", windowFlag)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			state := a.scanner.Scan(ctx, window, force)
			if state.Status == domain.StatusError {
				log.Printf("❌ 扫描失败 [%s]: %s", state.ErrorCode, state.ErrorMsg)
				if len(state.Repos) == 0 {
					return fmt.Errorf("扫描失败且没有可降级展示的缓存")
				}
				fmt.Println("📦 以下是降级展示的缓存结果:")
			}

			printRepos(state.Repos)
			return nil
		},
	}

	cmd.Flags().StringVar(&windowFlag, "window", string(domain.DefaultTimeFrame), "回溯窗口: 3d, 7d, 14d")
	cmd.Flags().BoolVar(&force, "force", false, "跳过缓存强制刷新")
	return cmd
}

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "管理收藏夹",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出收藏的项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			printRepos(a.vault.List())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <owner/repo>",
		Short: "切换某个项目的收藏状态",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := service.NormalizeName(args[0])
			if !ok {
				return fmt.Errorf("仓库名必须是 owner/repo 形式，收到: %s", args[0])
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			repo := domain.Repo{
				Name: name,
				URL:  "https://github.com/" + name,
			}
			// 尽力回填元数据，失败也不阻塞收藏操作
			if meta, outcome, _ := a.verifier.Lookup(ctx, name); outcome == port.OutcomeFound {
				repo.LastPushedAt = meta.LastPushedAt
				repo.IsArchived = meta.IsArchived
				repo.StarsCount = meta.StarsCount
				repo.Language = meta.Language
			}

			favorited, err := a.vault.Toggle(ctx, repo)
			if err != nil {
				return err
			}

			if favorited {
				fmt.Printf("⭐ 已收藏 %s\n", name)
			} else {
				fmt.Printf("🗑️ 已取消收藏 %s\n", name)
			}
			return nil
		},
	})

	return cmd
}

func newReportCmd() *cobra.Command {
	var favorites bool
	var windowFlag string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "生成文本报告并复制到剪贴板",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			var title string
			var repos []domain.Repo
			if favorites {
				title = "收藏项目报告"
				repos = a.vault.List()
			} else {
				window, ok := domain.ParseTimeFrame(windowFlag)
				if !ok {
					return fmt.Errorf("窗口必须是 3d、7d 或 14d，收到: %s", windowFlag)
				}
				cached, found := a.scanner.LoadCached(ctx, window)
				if !found {
					return fmt.Errorf("窗口 [%s] 还没有扫描结果，请先运行 trendradar scan", window)
				}
				title = "热门项目扫描报告 [" + string(window) + "]"
				repos = cached
			}

			report := service.BuildReport(title, repos, time.Now())
			fmt.Print(report)

			if err := a.clip.Write(report); err != nil {
				log.Printf("⚠️ 写入剪贴板失败: %v", err)
				return nil
			}
			fmt.Println("📋 报告已复制到剪贴板")
			return nil
		},
	}

	cmd.Flags().BoolVar(&favorites, "favorites", false, "导出收藏夹而不是当前扫描结果")
	cmd.Flags().StringVar(&windowFlag, "window", string(domain.DefaultTimeFrame), "要导出的回溯窗口: 3d, 7d, 14d")
	return cmd
}

func newValidateKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-key",
		Short: "探测 LLM 凭证是否可用",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			valid, err := a.scanner.ValidateKey(ctx)
			if err != nil {
				return err
			}
			if !valid {
				fmt.Println("❌ 凭证无效，请检查 GEMINI_API_KEY")
				os.Exit(1)
			}
			fmt.Println("✅ 凭证有效")
			return nil
		},
	}
}

func newSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <api-key>",
		Short: "校验并保存 LLM 凭证",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			kv, err := newKVStore(cfg)
			if err != nil {
				return err
			}

			source, err := newCandidateSource(ctx, cfg.LLMProvider, args[0])
			if err != nil {
				return err
			}
			valid, err := source.ValidateKey(ctx)
			if err != nil {
				return err
			}
			if !valid {
				return fmt.Errorf("凭证被 %s 拒绝，请确认后重试", cfg.LLMProvider)
			}

			if err := kv.Put(ctx, repository.CredentialKey(cfg.LLMProvider), args[0]); err != nil {
				return err
			}
			fmt.Printf("✅ 凭证已保存 (%s)\n", cfg.LLMProvider)
			return nil
		},
	}
}

// printRepos 用表格打印项目列表
func printRepos(repos []domain.Repo) {
	if len(repos) == 0 {
		fmt.Println("📭 没有可展示的项目")
		return
	}

	now := time.Now()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "仓库", "状态", "Stars", "趋势", "语言", "简介"})
	table.SetAutoWrapText(false)

	for i, repo := range repos {
		stars := ""
		if repo.StarsCount > 0 {
			stars = fmt.Sprintf("%d", repo.StarsCount)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			repo.Name,
			string(repo.StatusTier(now)),
			stars,
			repo.StarsTrend,
			repo.Language,
			repo.Description,
		})
	}

	table.Render()
}
