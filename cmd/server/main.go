// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"inventory-management-service/config"
	"inventory-management-service/internal/handler"
	"inventory-management-service/internal/infra"
	"inventory-management-service/internal/repository"
	"inventory-management-service/internal/usecase"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// ログレベル設定
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg, logLevel)

	// DB初期化
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is not set")
		os.Exit(1)
	}
	client, db, err := infra.NewMongoDatabase(ctx, cfg)
	if err != nil {
		slog.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			slog.Error("failed to disconnect database", "error", err)
		}
	}()

	// DI
	runner := infra.NewTxRunner(client)
	retrier := infra.NewWriteConflictRetrier()

	catalogueItemRepo := repository.NewCatalogueItemRepository(db)
	itemRepo := repository.NewItemRepository(db)
	systemRepo := repository.NewSystemRepository(db)
	systemTypeRepo := repository.NewSystemTypeRepository(db)
	usageStatusRepo := repository.NewUsageStatusRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	catalogueItemService := usecase.NewCatalogueItemService(catalogueItemRepo)
	itemService := usecase.NewItemService(itemRepo, catalogueItemRepo, systemRepo, usageStatusRepo, ruleRepo, settingRepo, runner, retrier)
	systemService := usecase.NewSystemService(systemRepo, systemTypeRepo)
	usageStatusService := usecase.NewUsageStatusService(usageStatusRepo)
	ruleService := usecase.NewRuleService(ruleRepo, systemTypeRepo, usageStatusRepo)
	settingService := usecase.NewSettingService(settingRepo, systemTypeRepo, catalogueItemRepo, itemRepo, runner)

	router := handler.NewRouter(
		cfg,
		handler.NewCatalogueItemHandler(catalogueItemService),
		handler.NewItemHandler(itemService),
		handler.NewSystemHandler(systemService),
		handler.NewUsageStatusHandler(usageStatusService),
		handler.NewRuleHandler(ruleService),
		handler.NewSettingHandler(settingService),
	)

	// サーバー起動
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
