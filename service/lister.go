package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ranked-vods/apperr"
	"ranked-vods/models"
	"ranked-vods/ranked"
)

// MinSeason первый сезон, для которого API отдаёт VOD
const MinSeason = 8

const seasonErrorMessage = "Season must be a number greater than or equal to 8. " +
	"The MCSR Ranked API does not show VODs for earlier seasons."

// MatchSource удалённый источник матчей
type MatchSource interface {
	ListMatches(ctx context.Context, q ranked.MatchQuery) ([]models.MatchSummary, error)
	FetchMatch(ctx context.Context, id int64) (*models.MatchRecord, error)
}

// ListerConfig размеры страниц списка матчей
type ListerConfig struct {
	AllUsersPageSize int // Большинство игроков не публикуют VOD, поэтому страница больше
	UserPageSize     int
}

// DefaultListerConfig возвращает конфигурацию по умолчанию
func DefaultListerConfig() *ListerConfig {
	return &ListerConfig{
		AllUsersPageSize: 100,
		UserPageSize:     60,
	}
}

// ListRequest параметры страницы матчей
type ListRequest struct {
	User   string // Пустая строка: все игроки
	Before *int64 // Только матчи с id строго меньше
	Season *int
}

// MatchLister получает id матчей, у которых есть VOD
type MatchLister struct {
	source MatchSource
	logger *zap.Logger
	config *ListerConfig
}

// NewMatchLister создает новый MatchLister
func NewMatchLister(source MatchSource, logger *zap.Logger, config *ListerConfig) *MatchLister {
	if config == nil {
		config = DefaultListerConfig()
	}
	return &MatchLister{
		source: source,
		logger: logger,
		config: config,
	}
}

// List возвращает id матчей с VOD в порядке апстрима (от новых к старым)
func (l *MatchLister) List(ctx context.Context, req ListRequest) ([]int64, error) {
	if req.Season != nil && *req.Season < MinSeason {
		return nil, apperr.InvalidArgument(seasonErrorMessage)
	}

	count := l.config.AllUsersPageSize
	if req.User != "" {
		count = l.config.UserPageSize
	}

	summaries, err := l.source.ListMatches(ctx, ranked.MatchQuery{
		User:   req.User,
		Count:  count,
		Before: req.Before,
		Season: req.Season,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	ids := make([]int64, 0, len(summaries))
	for _, s := range summaries {
		if s.HasVod {
			ids = append(ids, s.ID)
		}
	}

	l.logger.Debug("Matches listed",
		zap.String("user", req.User),
		zap.Int("received", len(summaries)),
		zap.Int("with_vod", len(ids)),
	)

	return ids, nil
}

// ValidateSeason разбирает сезон из строки запроса. Пустая строка означает "без фильтра".
func ValidateSeason(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	season, err := strconv.Atoi(raw)
	if err != nil || season < MinSeason {
		return nil, apperr.InvalidArgument(seasonErrorMessage)
	}
	return &season, nil
}

// ParseCursor разбирает курсор пагинации before. Пустая строка: самая свежая страница.
func ParseCursor(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	before, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || before <= 0 {
		return nil, apperr.InvalidArgument("before must be a positive match id")
	}
	return &before, nil
}
