package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/chain"
	"github.com/blues/propdao/internal/config"
	"github.com/blues/propdao/internal/database"
	"github.com/blues/propdao/internal/handler"
	"github.com/blues/propdao/internal/logger"
	"github.com/blues/propdao/internal/monitor"
	"github.com/blues/propdao/internal/router"
	"github.com/blues/propdao/internal/task"
	"github.com/blues/propdao/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Fractional real-estate investment backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API and chain indexer",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Run database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return cfg, nil
}

func migrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	logger.Info("Database migrated (driver: %s)", cfg.Database.Driver)
	return nil
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	verifier, err := auth.NewJWTVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize identity verifier: %w", err)
	}

	store, err := upload.NewLocalStore(cfg.Upload)
	if err != nil {
		return err
	}

	// 链客户端可选，未配置网络时链上接口返回 503
	var chainClient handler.ChainClient
	if cfg.Chain.Network != "" {
		manager, err := chain.NewManager(ctx, cfg.Chain)
		if err != nil {
			return fmt.Errorf("failed to initialize chain manager: %w", err)
		}
		defer manager.Close()
		chainClient = manager

		// 启动定时任务
		tasks, err := task.NewManager()
		if err != nil {
			return err
		}
		indexer := monitor.NewEventMonitor(manager, db, cfg.Task.BatchSize)
		if err := tasks.Register(task.NewChainIndexJob(indexer, cfg.Task.Interval)); err != nil {
			return err
		}
		tasks.Start()
		defer tasks.Stop()
	} else {
		logger.Warn("No chain network configured, chain features disabled")
	}

	// 初始化路由
	r := router.Setup(db, cfg, verifier, chainClient, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
