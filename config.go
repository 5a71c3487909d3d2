package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const devJWTSecret = "dev-insecure-secret-change"

// Config is read once from the environment at startup.
type Config struct {
	DBDSN           string
	AutoMigrate     bool
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	HTTPAddr        string
	CORSOrigins     []string
	RedisAddr       string
	ReportCacheTTL  time.Duration
	TicketInbox     string
	AdminPassword   string
	LogLevel        slog.Level
	LogFormat       string
	GinMode         string
	// insecureSecret is set when JWT_SECRET was empty and the dev default is used.
	insecureSecret bool
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

// loadConfig parses the environment. DB_DSN is checked by the commands
// that need a database.
func loadConfig() (Config, error) {
	cfg := Config{
		DBDSN:         os.Getenv("DB_DSN"),
		AutoMigrate:   envBool("DB_AUTO_MIGRATE", true),
		HTTPAddr:      envOr("HTTP_ADDR", ":8081"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		TicketInbox:   envOr("TICKET_INBOX", "inbox/tickets"),
		AdminPassword: envOr("ADMIN_PASSWORD", "admin123"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		GinMode:       os.Getenv("GIN_MODE"),
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = devJWTSecret
		cfg.insecureSecret = true
	}
	cfg.JWTSecret = []byte(secret)

	for _, o := range strings.Split(envOr("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var err error
	if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.RefreshTokenTTL, err = envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.ReportCacheTTL, err = envDuration("REPORT_CACHE_TTL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.AccessTokenTTL == 0 || cfg.RefreshTokenTTL == 0 {
		return cfg, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.LogLevel, err = parseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// loadDotEnv loads key=value pairs from path into the environment without
// overwriting variables that are already set. Lines starting with # are
// ignored and surrounding quotes are stripped.
func loadDotEnv(path string) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
			val = val[1 : len(val)-1]
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, val)
		}
	}
}
