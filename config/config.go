package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

// Prefix префикс переменных окружения, например RANKED_VODS_CACHE_DIR
const Prefix = "RANKED_VODS"

// Cache backends
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config конфигурация сервиса
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// MCSR Ranked API
	APIBaseURL  string        `envconfig:"API_BASE_URL" default:"https://api.mcsrranked.com"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	UserAgent   string        `envconfig:"USER_AGENT" default:"ranked-vods/1.0"`

	// Кэш матчей
	CacheBackend  string `envconfig:"CACHE_BACKEND" default:"file"`
	CacheDir      string `envconfig:"CACHE_DIR" default:"./cache"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"1"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s"`
	Timezone         string        `envconfig:"TIMEZONE" default:"Europe/Berlin"`
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheFile:
		if c.CacheDir == "" {
			return fmt.Errorf("CACHE_DIR is required for the file cache")
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND: %s", c.CacheBackend)
	}

	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1, got %d", c.FetchConcurrency)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location возвращает часовой пояс для подписи времени смерти
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
