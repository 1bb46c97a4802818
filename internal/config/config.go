package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centralizes configuration loaded from the environment.
type Config struct {
	Port          int
	DBDSN         string
	RedisURL      string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	JWTSecret     string
	AllowOrigins  []string

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig

	GeminiAPIKey  string
	GeminiBaseURL string

	S3 S3Config
}

// RateLimitConfig holds simple throttling limits.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// S3Config holds object-storage credentials for photo uploads.
// An empty AccessKey disables uploads (noop backend).
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
}

// Load reads environment variables and applies safe defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("invalid PORT")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is required")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.GeminiAPIKey = strings.TrimSpace(getEnv("GEMINI_API_KEY", ""))
	cfg.GeminiBaseURL = strings.TrimSpace(getEnv("GEMINI_BASE_URL", ""))

	cfg.S3 = S3Config{
		Endpoint:     strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
		Region:       strings.TrimSpace(getEnv("S3_REGION", "auto")),
		Bucket:       strings.TrimSpace(getEnv("S3_BUCKET", "")),
		AccessKey:    strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
		SecretKey:    strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
		PublicDomain: strings.TrimSpace(getEnv("S3_PUBLIC_DOMAIN", "")),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return dur, nil
}
