package api

import (
	"context"
	"time"

	"recipe-browser/internal/api/handlers/health"
	plannerHandler "recipe-browser/internal/api/handlers/planner"
	recipeHandler "recipe-browser/internal/api/handlers/recipe"
	"recipe-browser/internal/api/middleware"
	"recipe-browser/internal/core/catalog"
	"recipe-browser/internal/core/filter"
	"recipe-browser/internal/core/planner"
	"recipe-browser/internal/core/store"
	"recipe-browser/internal/infrastructure/config"
	"recipe-browser/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 60 * time.Second
	// 請求體大小限制預設值 (64KB)
	defaultMaxBodySize = 64 << 10
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Catalog *catalog.Catalog
	Planner *planner.Planner
	Store   store.Store
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Session())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", middleware.SessionHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	maxBodySize := cfg.Server.MaxBodyBytes
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	engine := filter.Engine{Policy: filter.ShowEverything}
	if cfg.Filter.StartEmpty {
		engine.Policy = filter.StartEmpty
	}

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		// 設置配置與依賴
		c.Set(health.ConfigKey, cfg)
		c.Set(health.CatalogKey, deps.Catalog)
		c.Set(health.StoreKey, deps.Store)
		c.Set(middleware.DebugKey, cfg.App.Debug)

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeoutDuration),
			)
			middleware.RespondError(c, common.ErrGatewayTimeout)
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	recipes := recipeHandler.NewHandler(deps.Catalog, engine)
	plans := plannerHandler.NewHandler(deps.Planner, deps.Catalog)

	// 只對重複送出沒有意義的請求去重；替換與加入每次都應生效
	dedup := middleware.Deduplication(cfg)

	// API 路由組
	api := router.Group("/api/v1")
	{
		api.GET("/recipes", recipes.HandleList)
		api.GET("/recipes/:slug", recipes.HandleGet)
		api.GET("/chips", recipes.HandleChips)
		api.GET("/sources", recipes.HandleSources)
		api.POST("/sources/reload", dedup, recipes.HandleReload)

		today := api.Group("/plan/today")
		{
			today.GET("", plans.HandleGetToday)
			today.DELETE("", plans.HandleClearToday)
			today.POST("/:slot", plans.HandleAddToday)
			today.DELETE("/:slot/:index", plans.HandleRemoveToday)
		}

		week := api.Group("/plan/week")
		{
			week.GET("", plans.HandleGetWeek)
			week.DELETE("", plans.HandleClearWeek)
			week.POST("/auto", dedup, plans.HandleAutoWeek)
			week.POST("/:day/:slot/swap", plans.HandleSwap)
			week.DELETE("/:day/:slot", plans.HandleRemoveWeek)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		middleware.RespondError(c, common.ErrNotFound)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("start_empty", cfg.Filter.StartEmpty),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
		zap.Int("routes", len(router.Routes())),
	)

	return router, nil
}
