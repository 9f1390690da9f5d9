// Package catalog 保存目前載入的食譜集合，負責重新載入與定期更新。
package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"recipe-browser/internal/core/loader"
	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/pkg/common"

	"go.uber.org/zap"
)

// Source 載入食譜的來源（*loader.Loader 實作此介面）
type Source interface {
	LoadAll(ctx context.Context, paths []string) *loader.Result
}

// Catalog 目前的食譜集合與最近一次載入報告
type Catalog struct {
	source Source
	paths  []string

	mu      sync.RWMutex
	recipes []*recipe.Recipe
	bySlug  map[string]*recipe.Recipe
	report  *loader.Result
	everOK  bool

	reloadMu sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New 創建目錄；尚未載入前集合為空
func New(source Source, paths []string) *Catalog {
	return &Catalog{
		source: source,
		paths:  append([]string{}, paths...),
		bySlug: map[string]*recipe.Recipe{},
		report: &loader.Result{Sources: []string{}, Failures: []loader.Failure{}},
	}
}

// Reload 重新讀取所有來源並替換集合；回傳本次載入報告
func (c *Catalog) Reload(ctx context.Context) *loader.Result {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	res := c.source.LoadAll(ctx, c.paths)

	bySlug := make(map[string]*recipe.Recipe, len(res.Recipes))
	for _, r := range res.Recipes {
		bySlug[loader.DedupKey(r)] = r
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = res
	if res.Loaded == 0 && len(res.Failures) > 0 && len(c.recipes) > 0 {
		// 全部來源失敗時保留上一次的集合
		common.LogWarn("重新載入沒有取得任何食譜，保留現有集合",
			zap.Int("kept", len(c.recipes)),
			zap.Int("failed", len(res.Failures)),
		)
		return res
	}
	c.recipes = res.Recipes
	c.bySlug = bySlug
	if res.Loaded > 0 {
		c.everOK = true
	}

	return res
}

// Recipes 目前的集合（呼叫端不可修改）
func (c *Catalog) Recipes() []*recipe.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recipes
}

// Get 依 slug 取得食譜（不分大小寫）
func (c *Catalog) Get(slug string) (*recipe.Recipe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	return r, ok
}

// Report 最近一次載入報告
func (c *Catalog) Report() *loader.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report
}

// Ready 至少成功載入過一筆食譜，或最近一次載入沒有任何來源失敗
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.everOK || (!c.report.At.IsZero() && len(c.report.Failures) == 0)
}

// StartRefresh 每隔 interval 重新載入；interval <= 0 時不啟動
func (c *Catalog) StartRefresh(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithCancel(context.Background())
				go func() {
					select {
					case <-c.stop:
						cancel()
					case <-ctx.Done():
					}
				}()
				res := c.Reload(ctx)
				cancel()
				common.LogDebug("定期重新載入食譜",
					zap.Int("loaded", res.Loaded),
					zap.Int("failed", len(res.Failures)),
				)
			case <-c.stop:
				return
			}
		}
	}()
}

// Close 停止定期更新
func (c *Catalog) Close() {
	c.once.Do(func() {
		if c.stop == nil {
			return
		}
		close(c.stop)
		<-c.done
	})
}
