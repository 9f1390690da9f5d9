package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir 切換到沒有 .env 的暫存目錄
func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{
		"assets/data/recipes-01.json",
		"assets/data/recipes-02.json",
		"assets/data/recipes.json",
	}, cfg.Sources.Paths)
	assert.Zero(t, cfg.Sources.Timeout)
	assert.Zero(t, cfg.Sources.RefreshInterval)
	assert.False(t, cfg.Recipes.RequireMealType)
	assert.True(t, cfg.Filter.StartEmpty)
	assert.Equal(t, StoreMemory, cfg.Planner.Store)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("RECIPE_SOURCES", " a.json, ,b.json ")
	t.Setenv("RECIPE_BASE_URL", "https://example.org/nutrition/")
	t.Setenv("APP_SOURCES_REFRESH_INTERVAL", "5m")
	t.Setenv("APP_FILTER_START_EMPTY", "false")
	t.Setenv("APP_RECIPES_REQUIRE_MEAL_TYPE", "true")
	t.Setenv("PLANNER_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.Sources.Paths)
	assert.Equal(t, "https://example.org/nutrition/", cfg.Sources.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Sources.RefreshInterval)
	assert.False(t, cfg.Filter.StartEmpty)
	assert.True(t, cfg.Recipes.RequireMealType)
	assert.Equal(t, StoreRedis, cfg.Planner.Store)
	assert.Equal(t, "redis:6380", cfg.Planner.Redis.Addr)
	assert.Equal(t, 2, cfg.Planner.Redis.DB)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":   {"PLANNER_STORE": "sqlite"},
		"no sources":      {"RECIPE_SOURCES": " , "},
		"bad rate limit":  {"RATE_LIMIT_REQUESTS": "0"},
		"negative period": {"APP_SOURCES_TIMEOUT": "-1s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			inTempDir(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "su...rd", MaskSecret("supersecretpassword"))
}
