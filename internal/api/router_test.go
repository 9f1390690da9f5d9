package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-browser/internal/api/middleware"
	"recipe-browser/internal/core/catalog"
	"recipe-browser/internal/core/loader"
	"recipe-browser/internal/core/planner"
	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/core/store"
	"recipe-browser/internal/infrastructure/config"
	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{ docs []string }

func (s staticSource) LoadAll(_ context.Context, paths []string) *loader.Result {
	res := &loader.Result{Sources: paths, Failures: []loader.Failure{}, At: time.Now()}
	for _, d := range s.docs {
		if r, ok := recipe.Normalize(json.RawMessage(d)); ok {
			res.Recipes = append(res.Recipes, r)
		}
	}
	recipe.Enrich(res.Recipes)
	res.Loaded = len(res.Recipes)
	return res
}

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test"},
		Filter:      config.FilterConfig{StartEmpty: true},
		DedupWindow: time.Nanosecond,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	cat := catalog.New(staticSource{docs: []string{
		`{"title":"Oat Bowl","mealType":"breakfast","dietary":["Vegetarian"],"costTag":"Budget","ingredients":[{"item":"Oats"},{"item":"Milk"},{"item":"Berries"}],"nutritionPerServing":{"kcal":350,"protein_g":12}}`,
		`{"title":"Bean Chilli","mealType":"lunch, dinner","dietary":"Vegan, Gluten-free","ingredients":[{"item":"Kidney beans"},{"item":"Rice"}]}`,
		`{"title":"Trail Mix","mealType":"snack","dietary":["Vegan"],"pantryKeys":["almonds","raisins","seeds"]}`,
	}}, []string{"recipes.json"})
	cat.Reload(context.Background())

	st := store.NewMemory()
	router, err := SetupRouter(cfg, Dependencies{
		Catalog: cat,
		Planner: planner.New(st, firstRand{}),
		Store:   st,
	})
	require.NoError(t, err)
	return router
}

func do(t *testing.T, h http.Handler, method, target, session, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestRecipes_List(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := do(t, r, http.MethodGet, "/api/v1/recipes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, 3.0, body["total"])
	assert.NotEmpty(t, body["hint"])

	_, body = do(t, r, http.MethodGet, "/api/v1/recipes?all=1", "", "")
	assert.Equal(t, 3.0, body["count"])

	_, body = do(t, r, http.MethodGet, "/api/v1/recipes?diet=Vegan&meal=Snack", "", "")
	require.Equal(t, 1.0, body["count"])
	first := body["recipes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "trail-mix", first["slug"])

	_, body = do(t, r, http.MethodGet, "/api/v1/recipes?pantry=kidney+beans&extras=1", "", "")
	require.Equal(t, 1.0, body["count"])
	first = body["recipes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"matched": 1.0, "extrasNeeded": 1.0}, first["pantry"])
}

func TestRecipes_ShowEverythingPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Filter.StartEmpty = false
	_, body := do(t, newTestRouter(t, cfg), http.MethodGet, "/api/v1/recipes", "", "")
	assert.Equal(t, 3.0, body["count"])
	assert.Nil(t, body["hint"])
}

func TestRecipes_GetChipsSources(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := do(t, r, http.MethodGet, "/api/v1/recipes/OAT-BOWL", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Oat Bowl", body["title"])
	assert.Equal(t, "≤400", body["kcalBand"])

	w, body = do(t, r, http.MethodGet, "/api/v1/recipes/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RECIPE_NOT_FOUND", body["code"])

	_, body = do(t, r, http.MethodGet, "/api/v1/chips", "", "")
	assert.Len(t, body["groups"], 8)

	_, body = do(t, r, http.MethodGet, "/api/v1/sources", "", "")
	assert.Equal(t, 3.0, body["loaded"])
	assert.Equal(t, []interface{}{"recipes.json"}, body["sources"])

	w, body = do(t, r, http.MethodPost, "/api/v1/sources/reload", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3.0, body["loaded"])
}

func TestPlan_Today(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := do(t, r, http.MethodPost, "/api/v1/plan/today/breakfast", "alice", `{"slug":"oat-bowl"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice", w.Header().Get(middleware.SessionHeader))
	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, 350.0, totals["kcal"])

	_, body = do(t, r, http.MethodGet, "/api/v1/plan/today", "alice", "")
	today := body["today"].(map[string]interface{})
	assert.Len(t, today["breakfast"], 1)

	_, body = do(t, r, http.MethodGet, "/api/v1/plan/today", "bob", "")
	today = body["today"].(map[string]interface{})
	assert.Len(t, today["breakfast"], 0)

	w, body = do(t, r, http.MethodPost, "/api/v1/plan/today/brunch", "alice", `{"slug":"oat-bowl"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SLOT", body["code"])

	w, body = do(t, r, http.MethodPost, "/api/v1/plan/today/lunch", "alice", `{"slug":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RECIPE_NOT_FOUND", body["code"])

	w, body = do(t, r, http.MethodPost, "/api/v1/plan/today/lunch", "alice", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	w, body = do(t, r, http.MethodDelete, "/api/v1/plan/today/breakfast/3", "alice", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", body["code"])

	w, _ = do(t, r, http.MethodDelete, "/api/v1/plan/today/breakfast/0", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/plan/today", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlan_Week(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := do(t, r, http.MethodPost, "/api/v1/plan/week/auto", "carol", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// 早餐、午餐、晚餐、點心各只有一道可用（chilli 只能出現一次）
	assert.Equal(t, 3.0, body["placed"])
	assert.Equal(t, 25.0, body["empty"])
	assert.Len(t, body["days"], 7)

	w, body = do(t, r, http.MethodPost, "/api/v1/plan/week/mon/breakfast/swap", "carol", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["swapped"])
	assert.NotEmpty(t, body["notice"])

	w, body = do(t, r, http.MethodPost, "/api/v1/plan/week/9/breakfast/swap", "carol", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DAY", body["code"])

	w, body = do(t, r, http.MethodDelete, "/api/v1/plan/week/0/breakfast", "carol", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, body["filled"])

	w, body = do(t, r, http.MethodPost, "/api/v1/plan/week/0/breakfast/swap", "carol", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["swapped"])

	_, body = do(t, r, http.MethodDelete, "/api/v1/plan/week", "carol", "")
	assert.Equal(t, 0.0, body["filled"])

	_, body = do(t, r, http.MethodPost, "/api/v1/plan/week/auto?cheap=1", "carol", "")
	assert.Equal(t, 1.0, body["placed"])
}

func TestDeduplication(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	r := newTestRouter(t, cfg)
	// 去重快取為全域，每次執行使用新的工作階段
	dave, erin := common.GenerateUUID(), common.GenerateUUID()

	// 加入與替換可以重複送出
	for i := 0; i < 2; i++ {
		w, body := do(t, r, http.MethodPost, "/api/v1/plan/today/snack", dave, `{"slug":"trail-mix"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, body["today"].(map[string]interface{})["snack"], i+1)
	}
	for i := 0; i < 2; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/v1/plan/week/0/lunch/swap", dave, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// 重新載入與自動排程在時間窗內只處理一次
	w, _ := do(t, r, http.MethodPost, "/api/v1/sources/reload", dave, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, body := do(t, r, http.MethodPost, "/api/v1/sources/reload", dave, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", body["code"])
	assert.Equal(t, 60.0, body["retry_after"])

	w, _ = do(t, r, http.MethodPost, "/api/v1/plan/week/auto", dave, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/v1/plan/week/auto", dave, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/sources/reload", erin, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndSession(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := do(t, r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, 3.0, body["recipes"].(map[string]interface{})["loaded"])
	assert.NotEmpty(t, w.Header().Get(middleware.SessionHeader))

	w, body = do(t, r, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	w, _ = do(t, r, http.MethodGet, "/live", "bad session id!", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "bad session id!", w.Header().Get(middleware.SessionHeader))

	w, body = do(t, r, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
