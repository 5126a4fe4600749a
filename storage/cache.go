package storage

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ranked-vods/apperr"
	"ranked-vods/models"
)

// FetchFunc загружает запись матча из удалённого сервиса
type FetchFunc func(ctx context.Context) (*models.MatchRecord, error)

// MatchCache отдаёт ранее полученные записи матчей без обращения к API.
// Записи никогда не устаревают: завершённый матч не меняется.
type MatchCache struct {
	store  RecordStore
	logger *zap.Logger
	group  singleflight.Group
}

// NewMatchCache создает кэш поверх хранилища
func NewMatchCache(store RecordStore, logger *zap.Logger) *MatchCache {
	return &MatchCache{
		store:  store,
		logger: logger,
	}
}

// GetMatch возвращает запись из кэша или вызывает fetch и сохраняет результат.
// Ошибка сохранения не прерывает запрос.
func (c *MatchCache) GetMatch(ctx context.Context, id int64, fetch FetchFunc) (*models.MatchRecord, error) {
	if record, ok := c.lookup(ctx, id); ok {
		return record, nil
	}

	// Одновременные промахи по одному id объединяются в один запрос к API.
	// Общий запрос не зависит от отмены конкретного вызывающего, его время
	// ограничено таймаутом HTTP клиента.
	key := strconv.FormatInt(id, 10)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)

		record, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		if err := models.ValidateMatchRecord(record); err != nil {
			return nil, err
		}

		c.persist(shared, id, record)
		return record, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to get match %d: %w", id,
			apperr.Timeout("request was cancelled while waiting for match", ctx.Err()))
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("failed to get match %d: %w", id, res.Err)
		}
		return res.Val.(*models.MatchRecord), nil
	}
}

// lookup возвращает валидную запись из хранилища. Повреждённая запись считается промахом.
func (c *MatchCache) lookup(ctx context.Context, id int64) (*models.MatchRecord, bool) {
	data, found, err := c.store.Load(ctx, id)
	if err != nil {
		c.logger.Warn("Failed to read cached match",
			zap.Int64("match_id", id),
			zap.Error(err),
		)
		cacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if !found {
		cacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	record, err := models.DecodeMatchRecord(data)
	if err == nil && record.ID != 0 && record.ID != id {
		err = fmt.Errorf("cached record has id %d", record.ID)
	}
	if err != nil {
		c.logger.Warn("Cached match is invalid, refetching",
			zap.Int64("match_id", id),
			zap.Error(err),
		)
		cacheLookupsTotal.WithLabelValues("corrupt").Inc()
		return nil, false
	}

	cacheLookupsTotal.WithLabelValues("hit").Inc()
	return record, true
}

// persist сохраняет запись; ошибки только логируются
func (c *MatchCache) persist(ctx context.Context, id int64, record *models.MatchRecord) {
	data, err := models.EncodeMatchRecord(record)
	if err == nil {
		err = c.store.Save(ctx, id, data)
	}
	if err != nil {
		cacheWriteFailuresTotal.Inc()
		c.logger.Warn("Failed to cache match",
			zap.Int64("match_id", id),
			zap.Error(err),
		)
	}
}
