package service

import (
	"context"
	"errors"
	"time"
	_ "time/tzdata" // Europe/Berlin без системной базы часовых поясов

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ranked-vods/apperr"
	"ranked-vods/models"
	"ranked-vods/storage"
)

// MatchCache кэш записей матчей
type MatchCache interface {
	GetMatch(ctx context.Context, id int64, fetch storage.FetchFunc) (*models.MatchRecord, error)
}

// VodConfig конфигурация сервиса ссылок
type VodConfig struct {
	FetchConcurrency int            // Сколько матчей загружать одновременно, 1: строго по очереди
	RequestTimeout   time.Duration  // Общий дедлайн GetVods, 0: без дедлайна
	Location         *time.Location // Часовой пояс подписи времени
}

// DefaultVodConfig возвращает конфигурацию по умолчанию
func DefaultVodConfig() *VodConfig {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.UTC
	}
	return &VodConfig{
		FetchConcurrency: 1,
		Location:         loc,
	}
}

// VodRequest входные параметры от слоя представления
type VodRequest struct {
	User   string
	Before *int64
	Season string // Сырое значение из запроса, проверяется здесь
}

// VodPage результат одной страницы
type VodPage struct {
	Events     []models.DeathEvent `json:"events"`
	NextCursor *int64              `json:"next_cursor,omitempty"` // Последний id страницы
	Season     *int                `json:"season,omitempty"`
}

// VodService единая точка входа: список матчей -> кэш -> сопоставление смертей
type VodService struct {
	lister *MatchLister
	cache  MatchCache
	source MatchSource
	logger *zap.Logger
	config *VodConfig
}

// NewVodService создает новый сервис
func NewVodService(lister *MatchLister, cache MatchCache, source MatchSource, logger *zap.Logger, config *VodConfig) *VodService {
	if config == nil {
		config = DefaultVodConfig()
	}
	if config.FetchConcurrency < 1 {
		config.FetchConcurrency = 1
	}
	return &VodService{
		lister: lister,
		cache:  cache,
		source: source,
		logger: logger,
		config: config,
	}
}

// GetVods возвращает ссылки на смерти для страницы матчей.
// Ошибка любого матча прерывает весь запрос.
func (s *VodService) GetVods(ctx context.Context, req VodRequest) (*VodPage, error) {
	season, err := ValidateSeason(req.Season)
	if err != nil {
		return nil, err
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	ids, err := s.lister.List(ctx, ListRequest{
		User:   req.User,
		Before: req.Before,
		Season: season,
	})
	if err != nil {
		return nil, s.deadline(ctx, err)
	}

	events, err := s.collect(ctx, ids)
	if err != nil {
		return nil, s.deadline(ctx, err)
	}

	page := &VodPage{
		Events: events,
		Season: season,
	}
	if len(ids) > 0 {
		last := ids[len(ids)-1]
		page.NextCursor = &last
	}

	s.logger.Info("Vods collected",
		zap.String("user", req.User),
		zap.Int("matches", len(ids)),
		zap.Int("events", len(events)),
	)

	return page, nil
}

// collect обрабатывает матчи; результат идёт в порядке ids независимо от параллелизма
func (s *VodService) collect(ctx context.Context, ids []int64) ([]models.DeathEvent, error) {
	perMatch := make([][]models.DeathEvent, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FetchConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			match, err := s.cache.GetMatch(gctx, id, func(ctx context.Context) (*models.MatchRecord, error) {
				return s.source.FetchMatch(ctx, id)
			})
			if err != nil {
				return err
			}

			perMatch[i] = Correlate(match, s.config.Location)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]models.DeathEvent, 0)
	for _, e := range perMatch {
		events = append(events, e...)
	}
	return events, nil
}

// deadline переводит истёкший дедлайн в ошибку Timeout
func (s *VodService) deadline(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperr.Is(err, apperr.KindTimeout) {
		return apperr.Timeout("request deadline exceeded", err)
	}
	if errors.Is(err, context.DeadlineExceeded) && apperr.KindOf(err) == apperr.KindUnknown {
		return apperr.Timeout("request deadline exceeded", err)
	}
	return err
}
