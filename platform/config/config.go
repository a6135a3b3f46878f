// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int
	GetDatabaseMinConns() int
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIORegion() string
	GetMinioBucketCatalogAssets() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSearchReindexCron() string
}

// RedisConfig provides settings for the shared redis cache.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SearchConfig provides tuning for the product search subsystem.
type SearchConfig interface {
	GetSearchQueryTimeout() time.Duration
	GetSearchReindexTimeout() time.Duration
	GetSearchCursorSecret() string
	GetSearchFacetCacheTTL() time.Duration
	GetSearchFacetMaxCategories() int
	GetSearchRateLimitRPS() float64
	GetSearchRateLimitBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	DatabaseMaxConns         int
	DatabaseMinConns         int
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIORegion              string
	MinioBucketCatalogAssets string
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	SearchReindexCron        string
	SearchQueryTimeout       time.Duration
	SearchReindexTimeout     time.Duration
	SearchCursorSecret       string
	SearchFacetCacheTTL      time.Duration
	SearchFacetMaxCategories int
	SearchRateLimitRPS       float64
	SearchRateLimitBurst     int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int { return c.DatabaseMaxConns }
func (c *Config) GetDatabaseMinConns() int { return c.DatabaseMinConns }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinIORegion() string    { return c.MinIORegion }
func (c *Config) GetMinioBucketCatalogAssets() string {
	return c.MinioBucketCatalogAssets
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetSearchReindexCron() string { return c.SearchReindexCron }

// SearchConfig implementation
func (c *Config) GetSearchQueryTimeout() time.Duration   { return c.SearchQueryTimeout }
func (c *Config) GetSearchReindexTimeout() time.Duration { return c.SearchReindexTimeout }
func (c *Config) GetSearchCursorSecret() string          { return c.SearchCursorSecret }
func (c *Config) GetSearchFacetCacheTTL() time.Duration  { return c.SearchFacetCacheTTL }
func (c *Config) GetSearchFacetMaxCategories() int       { return c.SearchFacetMaxCategories }
func (c *Config) GetSearchRateLimitRPS() float64         { return c.SearchRateLimitRPS }
func (c *Config) GetSearchRateLimitBurst() int           { return c.SearchRateLimitBurst }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:         mustInt(getEnv("DB_MAX_CONNS", "25")),
		DatabaseMinConns:         mustInt(getEnv("DB_MIN_CONNS", "5")),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIORegion:              getEnv("MINIO_REGION", "us-east-1"),
		MinioBucketCatalogAssets: getEnv("MINIO_BUCKET_CATALOG_ASSETS", "catalog-assets"),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "search"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		SearchReindexCron:        getEnv("SEARCH_REINDEX_CRON", ""),
		SearchQueryTimeout:       mustDuration(getEnv("SEARCH_QUERY_TIMEOUT", "3s")),
		SearchReindexTimeout:     mustDuration(getEnv("SEARCH_REINDEX_TIMEOUT", "5m")),
		SearchCursorSecret:       getEnv("SEARCH_CURSOR_SECRET", ""),
		SearchFacetCacheTTL:      mustDuration(getEnv("SEARCH_FACET_CACHE_TTL", "60s")),
		SearchFacetMaxCategories: mustInt(getEnv("SEARCH_FACET_MAX_CATEGORIES", "50")),
		SearchRateLimitRPS:       mustFloat(getEnv("SEARCH_RATE_LIMIT_RPS", "20")),
		SearchRateLimitBurst:     mustInt(getEnv("SEARCH_RATE_LIMIT_BURST", "40")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if len(cfg.SearchCursorSecret) < 16 {
		return nil, fmt.Errorf("SEARCH_CURSOR_SECRET is required and must be at least 16 characters")
	}
	if cfg.DatabaseMinConns > cfg.DatabaseMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.SearchQueryTimeout <= 0 {
		return nil, fmt.Errorf("SEARCH_QUERY_TIMEOUT must be a positive duration")
	}
	if cfg.SearchReindexTimeout <= 0 {
		return nil, fmt.Errorf("SEARCH_REINDEX_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
