package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"recipe-browser/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSourceServer 以路徑對應內容的測試伺服器，並記錄每次請求的 v 參數
func newSourceServer(t *testing.T, docs map[string]string) (*httptest.Server, *sync.Map) {
	t.Helper()
	seen := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.Path, r.URL.Query().Get("v"))
		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "!500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func newTestLoader(t *testing.T, base string) *Loader {
	t.Helper()
	l, err := New(Options{BaseURL: base})
	require.NoError(t, err)
	return l
}

func TestLoadAll_DedupAcrossSources(t *testing.T) {
	srv, _ := newSourceServer(t, map[string]string{
		"/data/recipes-01.json": `[{"title":"Oat Bowl","slug":"oat-bowl","mealType":"breakfast","nutritionPerServing":{"kcal":350}}]`,
		"/data/recipes-02.json": `{"recipes":[{"title":"Different Oats","slug":" OAT-BOWL ","mealType":"dinner","nutritionPerServing":{"kcal":900}}]}`,
	})

	res := newTestLoader(t, srv.URL+"/").LoadAll(context.Background(), []string{"data/recipes-01.json", "data/recipes-02.json"})

	require.Len(t, res.Recipes, 1)
	r := res.Recipes[0]
	assert.Equal(t, "oat-bowl", r.Slug)
	assert.Equal(t, "Oat Bowl", r.Title)
	assert.Equal(t, recipe.Band400, r.KcalBand)
	assert.Contains(t, r.MealTypes, recipe.Breakfast)
	assert.Equal(t, 1, res.Loaded)
	assert.Equal(t, []string{"data/recipes-01.json", "data/recipes-02.json"}, res.Sources)
	assert.Empty(t, res.Failures)
}

func TestLoadAll_NonLatinTitlesKeepDistinctSlugs(t *testing.T) {
	srv, _ := newSourceServer(t, map[string]string{
		"/recipes.json": `[{"title":"日本のカレー","mealType":"dinner"},{"title":"麻婆豆腐","mealType":"dinner"},{"title":"日本のカレー"}]`,
	})

	res := newTestLoader(t, srv.URL+"/").LoadAll(context.Background(), []string{"recipes.json"})

	require.Len(t, res.Recipes, 2)
	assert.NotEmpty(t, res.Recipes[0].Slug)
	assert.NotEmpty(t, res.Recipes[1].Slug)
	assert.NotEqual(t, res.Recipes[0].Slug, res.Recipes[1].Slug)
	assert.Equal(t, "日本のカレー", res.Recipes[0].Title)
}

func TestLoadAll_FailuresAreSettledPerSource(t *testing.T) {
	srv, _ := newSourceServer(t, map[string]string{
		"/good.json":     `[{"title":"Good"}]`,
		"/broken.json":   "!500",
		"/two.json":      `[{"title":"A"}]` + "\n" + `[{"title":"B"}]`,
		"/trailing.json": `[{"title":"A"},]`,
	})

	paths := []string{"broken.json", "two.json", "good.json", "trailing.json", "missing.json"}
	res := newTestLoader(t, srv.URL+"/").LoadAll(context.Background(), paths)

	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Good", res.Recipes[0].Title)
	assert.Equal(t, []string{"good.json"}, res.Sources)
	require.Len(t, res.Failures, 4)

	var httpErr *HTTPError
	require.True(t, errors.As(res.Failures[0].Err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "broken.json", res.Failures[0].Path)

	var parseErr *ParseError
	require.True(t, errors.As(res.Failures[1].Err, &parseErr))
	assert.True(t, parseErr.TwoArrays)
	assert.Contains(t, res.Failures[1].Error, "TWO top-level arrays")

	require.True(t, errors.As(res.Failures[2].Err, &parseErr))
	assert.False(t, parseErr.TwoArrays)
	assert.Contains(t, res.Failures[2].Error, "Invalid JSON")

	// missing.json 與 ../missing.json 都是 404
	require.True(t, errors.As(res.Failures[3].Err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "../missing.json", httpErr.URL)
}

func TestLoadAll_ParentFallback(t *testing.T) {
	srv, _ := newSourceServer(t, map[string]string{
		"/assets/data/recipes.json": `[{"title":"Lentil Soup"}]`,
	})

	res := newTestLoader(t, srv.URL+"/nutrition/").LoadAll(context.Background(), []string{"assets/data/recipes.json"})

	require.Len(t, res.Recipes, 1)
	assert.Equal(t, []string{"../assets/data/recipes.json"}, res.Sources)
	assert.Empty(t, res.Failures)
}

func TestLoadAll_CacheBust(t *testing.T) {
	srv, seen := newSourceServer(t, map[string]string{
		"/a.json": `[]`,
		"/b.json": `[]`,
	})

	res := newTestLoader(t, srv.URL+"/").LoadAll(context.Background(), []string{"a.json", "b.json?rev=3"})
	assert.Empty(t, res.Failures)

	v, _ := seen.Load("/a.json")
	assert.NotEmpty(t, v)
	v, _ = seen.Load("/b.json")
	assert.Empty(t, v)
}

func TestLoadAll_DocumentShapes(t *testing.T) {
	srv, _ := newSourceServer(t, map[string]string{
		"/object.json": `{"items":[{"title":"Ignored"}]}`,
		"/scalar.json": `"recipes"`,
		"/mixed.json":  `[1, "text", null, {"title":"Kept"}, {"name":"Also Kept"}]`,
		"/wrong.json":  `{"recipes":"not-a-list"}`,
	})

	res := newTestLoader(t, srv.URL+"/").LoadAll(context.Background(),
		[]string{"object.json", "scalar.json", "mixed.json", "wrong.json"})

	assert.Empty(t, res.Failures)
	assert.Len(t, res.Sources, 4)
	require.Len(t, res.Recipes, 2)
	assert.Equal(t, "Kept", res.Recipes[0].Title)
	assert.Equal(t, "Also Kept", res.Recipes[1].Title)
}

func TestLoadAll_ZeroRecipes(t *testing.T) {
	res := newTestLoader(t, "").LoadAll(context.Background(), nil)
	assert.NotNil(t, res)
	assert.Equal(t, 0, res.Loaded)
	assert.Empty(t, res.Recipes)
	assert.Empty(t, res.Failures)
}

func TestLoadAll_FileSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "recipes.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"title":"Hummus Plate","mealType":"lunch","ingredients":[{"item":"Hummus"},{"item":"Carrots"}]},
		{"title":"hummus plate","slug":"HUMMUS-PLATE"}
	]`), 0o644))

	res := newTestLoader(t, "").LoadAll(context.Background(), []string{"file://" + file, "file://" + filepath.Join(dir, "nope.json")})

	require.Len(t, res.Recipes, 1)
	r := res.Recipes[0]
	assert.Equal(t, "hummus-plate", r.Slug)
	assert.True(t, r.NoCook, "enrichment runs after dedup")
	require.Len(t, res.Failures, 1)
	assert.True(t, errors.Is(res.Failures[0].Err, os.ErrNotExist))
}

func TestLoadAll_RequireMealTypePolicy(t *testing.T) {
	srv, _ := newSourceServer(t, map[string]string{
		"/r.json": `[{"title":"Tagged","tags":["lunch"]},{"title":"Explicit","mealType":"Dinner"}]`,
	})
	l, err := New(Options{BaseURL: srv.URL + "/", Normalizer: recipe.Normalizer{Policy: recipe.RequireMealType}})
	require.NoError(t, err)

	res := l.LoadAll(context.Background(), []string{"r.json"})
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Explicit", res.Recipes[0].Title)
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "oat-bowl", DedupKey(&recipe.Recipe{Slug: "  Oat-Bowl ", Title: "x"}))
	assert.Equal(t, "title:oat bowl", DedupKey(&recipe.Recipe{Title: "Oat Bowl"}))
}
