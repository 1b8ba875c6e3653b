// Package config loads service settings from the environment, reading an
// optional .env file first.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	TransportDirect  = "direct"
	TransportGateway = "gateway"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Port           string
	Transport      string
	BackendURL     string
	BackendTimeout time.Duration
	Gateway        GatewayConfig
	SessionStore   string
	SessionTTL     time.Duration
	Redis          RedisConfig
	RateLimit      string
	MetricsEnabled bool
	LookupWorkers  int
}

type GatewayConfig struct {
	URL           string
	Stage         string
	APIName       string
	APIKey        string
	SigningSecret string
	TokenTTL      time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Load reads the configuration. A missing .env file is not an error.
func Load(logger *zap.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("LOOKUP_WORKERS", "4"))
	if err != nil || workers < 1 {
		return Config{}, fmt.Errorf("invalid LOOKUP_WORKERS %q", os.Getenv("LOOKUP_WORKERS"))
	}
	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		Transport:    getEnv("TRANSPORT", TransportDirect),
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:7071/api"),
		SessionStore: getEnv("SESSION_STORE", StoreMemory),
		Gateway: GatewayConfig{
			URL:           getEnv("GATEWAY_URL", ""),
			Stage:         getEnv("GATEWAY_STAGE", "prod"),
			APIName:       getEnv("GATEWAY_API", "smaphregi"),
			APIKey:        getEnv("GATEWAY_API_KEY", ""),
			SigningSecret: getEnv("GATEWAY_SIGNING_SECRET", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RateLimit:      getEnv("RATE_LIMIT", "120-M"),
		MetricsEnabled: metricsEnabled,
		LookupWorkers:  workers,
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"BACKEND_TIMEOUT", "10s", &cfg.BackendTimeout},
		{"SESSION_TTL", "2h", &cfg.SessionTTL},
		{"GATEWAY_TOKEN_TTL", "5m", &cfg.Gateway.TokenTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Transport {
	case TransportDirect:
		if c.BackendURL == "" {
			return fmt.Errorf("BACKEND_URL is required for the direct transport")
		}
	case TransportGateway:
		if c.Gateway.URL == "" || c.Gateway.APIKey == "" || c.Gateway.SigningSecret == "" {
			return fmt.Errorf("GATEWAY_URL, GATEWAY_API_KEY and GATEWAY_SIGNING_SECRET are required for the gateway transport")
		}
	default:
		return fmt.Errorf("unknown TRANSPORT %q", c.Transport)
	}
	switch c.SessionStore {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	return nil
}

// NewRedisClient connects and pings the configured redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
