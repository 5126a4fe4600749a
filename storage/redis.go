package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore хранит записи матчей в Redis без TTL
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStorage создает хранилище Redis и проверяет соединение
func NewRedisStorage(addr string, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger,
	}, nil
}

// Close закрывает соединение с Redis
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load возвращает запись матча по id
func (s *RedisStore) Load(ctx context.Context, id int64) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.matchKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get match: %w", err)
	}
	return data, true, nil
}

// Save записывает запись без TTL, существующая запись перезаписывается
func (s *RedisStore) Save(ctx context.Context, id int64, data []byte) error {
	if err := s.client.Set(ctx, s.matchKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	s.logger.Debug("Match stored in Redis",
		zap.Int64("match_id", id),
		zap.Int("bytes", len(data)),
	)

	return nil
}

// matchKey возвращает ключ для матча
func (s *RedisStore) matchKey(id int64) string {
	return fmt.Sprintf("match:%d", id)
}
