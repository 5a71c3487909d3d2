package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"JWT_SECRET", "HTTP_ADDR", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "REPORT_CACHE_TTL", "CORS_ORIGINS", "LOG_LEVEL", "DB_AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.insecureSecret)
	assert.Equal(t, []byte(devJWTSecret), cfg.JWTSecret)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.insecureSecret)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	_, err := loadConfig()
	assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL")

	t.Setenv("ACCESS_TOKEN_TTL", "0s")
	_, err = loadConfig()
	assert.Error(t, err)

	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("LOG_LEVEL", "loud")
	_, err = loadConfig()
	assert.ErrorContains(t, err, "LOG_LEVEL")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nCACAU_TEST_A=1\nexport CACAU_TEST_B=\"quoted value\"\nCACAU_TEST_C='x'\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CACAU_TEST_C", "kept")
	t.Cleanup(func() {
		os.Unsetenv("CACAU_TEST_A")
		os.Unsetenv("CACAU_TEST_B")
	})

	loadDotEnv(path)
	assert.Equal(t, "1", os.Getenv("CACAU_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("CACAU_TEST_B"))
	assert.Equal(t, "kept", os.Getenv("CACAU_TEST_C"))

	loadDotEnv(filepath.Join(t.TempDir(), "missing"))
}

func TestReportCacheWithoutRedis(t *testing.T) {
	a := &app{cfg: Config{}, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	c, closeCache := a.reportCache(context.Background())
	assert.IsType(t, cache.Nop{}, c)
	assert.NotPanics(t, closeCache)
}
