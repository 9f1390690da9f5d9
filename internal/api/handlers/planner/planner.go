package planner

import (
	"net/http"
	"strconv"

	"recipe-browser/internal/api/middleware"
	"recipe-browser/internal/core/filter"
	"recipe-browser/internal/core/planner"
	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog 計畫需要的食譜集合操作
type Catalog interface {
	Recipes() []*recipe.Recipe
	Get(slug string) (*recipe.Recipe, bool)
}

// AddRequest 加入今日計畫
type AddRequest struct {
	Slug string `json:"slug" binding:"required"`
}

// TodayResponse 今日計畫與營養合計
type TodayResponse struct {
	Today  planner.Today `json:"today"`
	Totals recipe.Macros `json:"totals"`
}

// WeekResponse 週計畫與每日合計
type WeekResponse struct {
	Days   []string        `json:"days"`
	Week   planner.Week    `json:"week"`
	Totals []recipe.Macros `json:"totals"`
	Filled int             `json:"filled"`
}

// AutoResponse 自動排程結果
type AutoResponse struct {
	WeekResponse
	Placed int `json:"placed"`
	Empty  int `json:"empty"`
}

// SwapResponse 替換結果；沒有其他候選時 swapped 為 false
type SwapResponse struct {
	WeekResponse
	Swapped bool   `json:"swapped"`
	Notice  string `json:"notice,omitempty"`
}

const noAlternative = "No alternative recipe found for this slot."

// Handler 餐點計畫處理程序
type Handler struct {
	planner *planner.Planner
	catalog Catalog
}

// NewHandler 創建新的計畫處理程序
func NewHandler(p *planner.Planner, catalog Catalog) *Handler {
	return &Handler{planner: p, catalog: catalog}
}

func (h *Handler) session(c *gin.Context) *planner.Session {
	return h.planner.Session(middleware.SessionID(c))
}

func todayResponse(t planner.Today) TodayResponse {
	return TodayResponse{Today: t, Totals: t.Totals()}
}

func weekResponse(w planner.Week) WeekResponse {
	totals := make([]recipe.Macros, 0, len(w))
	for _, d := range w {
		totals = append(totals, d.Totals())
	}
	return WeekResponse{Days: planner.Days, Week: w, Totals: totals, Filled: w.Filled()}
}

// HandleGetToday 讀取今日計畫
func (h *Handler) HandleGetToday(c *gin.Context) {
	t, err := h.session(c).Today(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todayResponse(t))
}

// HandleAddToday 將食譜加到某個餐次
func (h *Handler) HandleAddToday(c *gin.Context) {
	slot, err := planner.ParseSlot(c.Param("slot"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	r, ok := h.catalog.Get(req.Slug)
	if !ok {
		middleware.RespondError(c, common.ErrRecipeNotFound)
		return
	}

	t, err := h.session(c).AddToday(c.Request.Context(), slot, r)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	common.LogDebug("加入今日計畫",
		zap.String("slot", string(slot)),
		zap.String("slug", r.Slug),
		zap.String("session_id", middleware.SessionID(c)),
	)
	c.JSON(http.StatusOK, todayResponse(t))
}

// HandleRemoveToday 依位置移除
func (h *Handler) HandleRemoveToday(c *gin.Context) {
	slot, err := planner.ParseSlot(c.Param("slot"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		middleware.RespondError(c, common.ErrIndexOutOfRange.Wrap(err))
		return
	}

	t, err := h.session(c).RemoveToday(c.Request.Context(), slot, index)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todayResponse(t))
}

// HandleClearToday 清空今日計畫
func (h *Handler) HandleClearToday(c *gin.Context) {
	t, err := h.session(c).ClearToday(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todayResponse(t))
}

// HandleGetWeek 讀取週計畫
func (h *Handler) HandleGetWeek(c *gin.Context) {
	w, err := h.session(c).Week(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, weekResponse(w))
}

// HandleAutoWeek 依目前篩選自動填滿週計畫；cheap=1 時只挑平價食譜
func (h *Handler) HandleAutoWeek(c *gin.Context) {
	q := c.Request.URL.Query()
	state := filter.ParseQuery(q)
	if cheap, _ := strconv.ParseBool(q.Get("cheap")); cheap {
		state = planner.CheapState(state)
	}

	res, err := h.session(c).AutoPlanWeek(c.Request.Context(), h.catalog.Recipes(), state)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	common.LogInfo("自動排入週計畫",
		zap.Int("placed", res.Placed),
		zap.Int("empty", res.Empty),
		zap.String("session_id", middleware.SessionID(c)),
	)
	c.JSON(http.StatusOK, AutoResponse{WeekResponse: weekResponse(res.Week), Placed: res.Placed, Empty: res.Empty})
}

// HandleSwap 替換一格
func (h *Handler) HandleSwap(c *gin.Context) {
	day, slot, ok := dayAndSlot(c)
	if !ok {
		return
	}
	state := filter.ParseQuery(c.Request.URL.Query())

	w, swapped, err := h.session(c).SwapSlot(c.Request.Context(), h.catalog.Recipes(), state, day, slot)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	resp := SwapResponse{WeekResponse: weekResponse(w), Swapped: swapped}
	if !swapped {
		resp.Notice = noAlternative
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRemoveWeek 清空單一格
func (h *Handler) HandleRemoveWeek(c *gin.Context) {
	day, slot, ok := dayAndSlot(c)
	if !ok {
		return
	}
	w, err := h.session(c).RemoveWeek(c.Request.Context(), day, slot)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, weekResponse(w))
}

// HandleClearWeek 清空週計畫
func (h *Handler) HandleClearWeek(c *gin.Context) {
	w, err := h.session(c).ClearWeek(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, weekResponse(w))
}

func dayAndSlot(c *gin.Context) (int, planner.Slot, bool) {
	day, err := planner.ParseDay(c.Param("day"))
	if err != nil {
		middleware.RespondError(c, err)
		return 0, "", false
	}
	slot, err := planner.ParseSlot(c.Param("slot"))
	if err != nil {
		middleware.RespondError(c, err)
		return 0, "", false
	}
	return day, slot, true
}
