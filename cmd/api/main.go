package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-browser/internal/api"
	"recipe-browser/internal/core/catalog"
	"recipe-browser/internal/core/loader"
	"recipe-browser/internal/core/planner"
	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/core/store"
	"recipe-browser/internal/infrastructure/config"
	"recipe-browser/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.Strings("sources", cfg.Sources.Paths),
		zap.String("base_url", cfg.Sources.BaseURL),
		zap.String("planner_store", cfg.Planner.Store),
		zap.Bool("start_empty", cfg.Filter.StartEmpty),
		zap.Bool("require_meal_type", cfg.Recipes.RequireMealType),
	)

	// 初始化計畫儲存
	var plans store.Store
	switch cfg.Planner.Store {
	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := store.NewRedis(ctx, cfg.Planner.Redis)
		cancel()
		if err != nil {
			common.LogFatal("Failed to connect to redis",
				zap.String("addr", cfg.Planner.Redis.Addr),
				zap.String("password", config.MaskSecret(cfg.Planner.Redis.Password)),
				zap.Error(err),
			)
		}
		defer rdb.Close()
		plans = rdb
	default:
		plans = store.NewMemory()
	}

	// 初始化載入器
	normalizer := recipe.Normalizer{Policy: recipe.Permissive}
	if cfg.Recipes.RequireMealType {
		normalizer.Policy = recipe.RequireMealType
	}
	ld, err := loader.New(loader.Options{
		BaseURL:    cfg.Sources.BaseURL,
		Timeout:    cfg.Sources.Timeout,
		Normalizer: normalizer,
	})
	if err != nil {
		common.LogFatal("Failed to create loader", zap.Error(err))
	}

	// 首次載入；全部失敗時仍啟動，由 /ready 與 /api/v1/sources 回報
	cat := catalog.New(ld, cfg.Sources.Paths)
	res := cat.Reload(context.Background())
	if res.Loaded == 0 {
		common.LogWarn("No recipes loaded at startup",
			zap.Int("failed", len(res.Failures)),
		)
	}
	cat.StartRefresh(cfg.Sources.RefreshInterval)
	defer cat.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Catalog: cat,
		Planner: planner.New(plans, nil),
		Store:   plans,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
			zap.Int("recipes", res.Loaded),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		return
	}

	common.LogInfo("Server exited")
}
