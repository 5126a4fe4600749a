package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ranked-vods/apperr"
	"ranked-vods/models"
	"ranked-vods/ranked"
	"ranked-vods/storage"
)

// fakeSource отдаёт заранее заданные матчи и запоминает запросы
type fakeSource struct {
	mu        sync.Mutex
	summaries []models.MatchSummary
	listErr   error
	records   map[int64]*models.MatchRecord
	fetchErr  map[int64]error
	delays    map[int64]time.Duration
	queries   []ranked.MatchQuery
	fetched   []int64
}

func (f *fakeSource) ListMatches(ctx context.Context, q ranked.MatchQuery) ([]models.MatchSummary, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

func (f *fakeSource) FetchMatch(ctx context.Context, id int64) (*models.MatchRecord, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	delay := f.delays[id]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, apperr.Timeout("fetch cancelled", ctx.Err())
		}
	}

	if err, ok := f.fetchErr[id]; ok {
		return nil, err
	}
	record, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("unexpected fetch of match %d", id)
	}
	return record, nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// passthroughCache всегда вызывает fetch
type passthroughCache struct{}

func (passthroughCache) GetMatch(ctx context.Context, id int64, fetch storage.FetchFunc) (*models.MatchRecord, error) {
	return fetch(ctx)
}

// deathMatch матч с одной смертью игрока, у которого есть VOD
func deathMatch(id int64, nickname string) *models.MatchRecord {
	uuid := fmt.Sprintf("uuid-%d", id)
	return &models.MatchRecord{
		ID:         id,
		StartUnix:  1000 + id,
		DurationMs: 5000,
		Timelines:  []models.TimelineEvent{{PlayerUUID: uuid, OffsetMs: 2000, Kind: models.DeathKind}},
		Vods:       []models.VodRef{{PlayerUUID: uuid, URL: fmt.Sprintf("https://vod/%d", id), StartUnix: 900}},
		Players:    []models.PlayerRef{{PlayerUUID: uuid, Nickname: nickname}},
	}
}
