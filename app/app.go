package app

import (
	"fmt"

	"go.uber.org/zap"

	"ranked-vods/config"
	"ranked-vods/ranked"
	"ranked-vods/service"
	"ranked-vods/storage"
)

// App собранные зависимости сервиса
type App struct {
	Vods  *service.VodService
	store storage.RecordStore
}

// NewLogger создает логгер: development при уровне debug, иначе production
func NewLogger(level string) (*zap.Logger, error) {
	cfg, err := loggerConfig(level)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func loggerConfig(level string) (zap.Config, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg, nil
}

// New собирает клиент API, кэш и сервис по конфигурации
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := ranked.NewClient(ranked.ClientConfig{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	}, logger)

	cache := storage.NewMatchCache(store, logger)
	lister := service.NewMatchLister(client, logger, service.DefaultListerConfig())
	vods := service.NewVodService(lister, cache, client, logger, &service.VodConfig{
		FetchConcurrency: cfg.FetchConcurrency,
		RequestTimeout:   cfg.RequestTimeout,
		Location:         loc,
	})

	return &App{
		Vods:  vods,
		store: store,
	}, nil
}

// Close освобождает хранилище кэша
func (a *App) Close() error {
	return a.store.Close()
}

func newStore(cfg *config.Config, logger *zap.Logger) (storage.RecordStore, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		store, err := storage.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
		return store, nil
	case config.CacheFile:
		store, err := storage.NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		logger.Info("Using file cache", zap.String("dir", store.Dir()))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}
}
