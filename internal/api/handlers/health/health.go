package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-browser/internal/core/loader"
	"recipe-browser/internal/infrastructure/config"
	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// gin context 中的依賴鍵
const (
	ConfigKey  = "config"
	CatalogKey = "catalog"
	StoreKey   = "plan_store"
)

// Catalog 健康檢查需要的食譜集合狀態
type Catalog interface {
	Ready() bool
	Report() *loader.Result
}

// Pinger 可檢查連線的儲存（Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Recipes   *RecipeStatus          `json:"recipes,omitempty"`
}

// RecipeStatus 食譜載入狀態
type RecipeStatus struct {
	Loaded   int       `json:"loaded"`
	Sources  int       `json:"sources"`
	Failures int       `json:"failures"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get(ConfigKey)
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// 構建響應
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if cat, ok := c.Get(CatalogKey); ok {
		if catalog, ok := cat.(Catalog); ok {
			report := catalog.Report()
			response.Recipes = &RecipeStatus{
				Loaded:   report.Loaded,
				Sources:  len(report.Sources),
				Failures: len(report.Failures),
				LoadedAt: report.At,
			}
		}
	}

	// 記錄請求
	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：食譜已載入且計畫儲存可連線
func ReadinessCheck(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if cat, ok := c.Get(CatalogKey); ok {
		if catalog, ok := cat.(Catalog); ok {
			checks["recipes"] = catalog.Ready()
			ready = ready && catalog.Ready()
		}
	}

	if st, ok := c.Get(StoreKey); ok {
		if p, ok := st.(Pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := p.Ping(ctx)
			cancel()
			checks["store"] = err == nil
			if err != nil {
				common.LogWarn("Plan store not reachable", zap.Error(err))
				ready = false
			}
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
