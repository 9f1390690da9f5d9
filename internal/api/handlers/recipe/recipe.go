package recipe

import (
	"context"
	"net/http"

	"recipe-browser/internal/api/middleware"
	"recipe-browser/internal/core/filter"
	"recipe-browser/internal/core/loader"
	recipeModel "recipe-browser/internal/core/recipe"
	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog 處理程序需要的食譜集合操作
type Catalog interface {
	Recipes() []*recipeModel.Recipe
	Get(slug string) (*recipeModel.Recipe, bool)
	Report() *loader.Result
	Reload(ctx context.Context) *loader.Result
}

// PantryInfo 食材櫃模式下的比對結果
type PantryInfo struct {
	Matched      int `json:"matched"`
	ExtrasNeeded int `json:"extrasNeeded"`
}

// RecipeView 列表中的食譜
type RecipeView struct {
	*recipeModel.Recipe
	Pantry *PantryInfo `json:"pantry,omitempty"`
}

// ListResponse 篩選結果
type ListResponse struct {
	Total   int          `json:"total"`
	Count   int          `json:"count"`
	Recipes []RecipeView `json:"recipes"`
	Hint    string       `json:"hint,omitempty"`
}

// ReloadFailedResponse 重新載入沒有取得任何食譜
type ReloadFailedResponse struct {
	common.ErrorResponse
	Report *loader.Result `json:"report"`
}

// 空狀態提示
const (
	hintChooseFilter = "Choose a filter or press ALL to see recipes."
	hintNoRecipes    = "No recipes loaded. Check the load report at /api/v1/sources."
)

// Handler 食譜處理程序
type Handler struct {
	catalog Catalog
	engine  filter.Engine
}

// NewHandler 創建新的食譜處理程序
func NewHandler(catalog Catalog, engine filter.Engine) *Handler {
	return &Handler{catalog: catalog, engine: engine}
}

// HandleList 依查詢參數篩選食譜
func (h *Handler) HandleList(c *gin.Context) {
	state := filter.ParseQuery(c.Request.URL.Query())
	all := h.catalog.Recipes()
	matched := h.engine.Apply(all, state)

	resp := ListResponse{
		Total:   len(all),
		Count:   len(matched),
		Recipes: make([]RecipeView, 0, len(matched)),
	}
	for _, r := range matched {
		view := RecipeView{Recipe: r}
		if state.Pantry.Active {
			m, extras := filter.PantryMatch(r, state.Pantry.Keys)
			view.Pantry = &PantryInfo{Matched: m, ExtrasNeeded: extras}
		}
		resp.Recipes = append(resp.Recipes, view)
	}
	switch {
	case len(all) == 0:
		resp.Hint = hintNoRecipes
	case h.engine.Policy == filter.StartEmpty && !state.ShowAll && !state.Active():
		resp.Hint = hintChooseFilter
	}

	common.LogDebug("篩選食譜",
		zap.Int("total", resp.Total),
		zap.Int("count", resp.Count),
		zap.String("query", c.Request.URL.RawQuery),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleGet 取得單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	r, ok := h.catalog.Get(c.Param("slug"))
	if !ok {
		middleware.RespondError(c, common.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleChips 篩選列選項
func (h *Handler) HandleChips(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": filter.Chips})
}

// HandleSources 最近一次載入報告
func (h *Handler) HandleSources(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Report())
}

// HandleReload 重新載入所有來源
func (h *Handler) HandleReload(c *gin.Context) {
	res := h.catalog.Reload(c.Request.Context())
	if res.Loaded == 0 && len(res.Failures) > 0 {
		common.LogWarn("重新載入失敗",
			zap.Int("failed", len(res.Failures)),
			zap.String("session_id", middleware.SessionID(c)),
		)
		ce := common.ErrReloadFailed
		c.JSON(ce.Status, ReloadFailedResponse{ErrorResponse: ce.ToResponse(false), Report: res})
		return
	}
	c.JSON(http.StatusOK, res)
}
