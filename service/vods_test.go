package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ranked-vods/apperr"
	"ranked-vods/models"
	"ranked-vods/ranked"
	"ranked-vods/storage"
)

func newVodService(source *fakeSource, cache MatchCache, config *VodConfig) *VodService {
	lister := NewMatchLister(source, zap.NewNop(), nil)
	return NewVodService(lister, cache, source, zap.NewNop(), config)
}

func TestGetVods_EndToEnd(t *testing.T) {
	var matchFetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/Feinberg/matches":
			assert.Equal(t, "count=60&excludeDecayed=true&season=9", r.URL.RawQuery)
			fmt.Fprint(w, `{"status":"success","data":[
				{"id":5,"vod":[{"uuid":"aaa","url":"https://vod/5","startsAt":990}]},
				{"id":6,"vod":[]}
			]}`)
		case r.URL.Path == "/matches/5":
			matchFetches.Add(1)
			fmt.Fprint(w, `{"status":"success","data":{
				"id":5,"date":1000,"result":{"time":5000},
				"timelines":[{"uuid":"aaa","time":2000,"type":"projectelo.timeline.death"}],
				"vod":[{"uuid":"aaa","url":"https://vod/5","startsAt":990}],
				"players":[{"uuid":"aaa","nickname":"Feinberg"}]
			}}`)
		default:
			t.Errorf("unexpected request %s", r.URL.String())
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := ranked.NewClient(ranked.ClientConfig{BaseURL: srv.URL}, zap.NewNop())
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	cache := storage.NewMatchCache(store, zap.NewNop())
	lister := NewMatchLister(client, zap.NewNop(), nil)
	svc := NewVodService(lister, cache, client, zap.NewNop(), &VodConfig{Location: time.UTC})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		page, err := svc.GetVods(ctx, VodRequest{User: "Feinberg", Season: "9"})
		require.NoError(t, err)

		require.Len(t, page.Events, 1)
		assert.Equal(t, "https://vod/5?t=-3s", page.Events[0].Link)
		assert.Equal(t, "Feinberg", page.Events[0].Nickname)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, int64(5), *page.NextCursor)
		require.NotNil(t, page.Season)
		assert.Equal(t, 9, *page.Season)
	}

	// Второй запрос обслужен из кэша
	assert.Equal(t, int32(1), matchFetches.Load())
}

func TestGetVods_PreservesListingOrderWhenParallel(t *testing.T) {
	source := &fakeSource{
		summaries: []models.MatchSummary{{ID: 4, HasVod: true}, {ID: 3, HasVod: true}, {ID: 2, HasVod: true}, {ID: 1, HasVod: true}},
		records: map[int64]*models.MatchRecord{
			4: deathMatch(4, "d"), 3: deathMatch(3, "c"), 2: deathMatch(2, "b"), 1: deathMatch(1, "a"),
		},
		// Первые в списке загружаются дольше всех
		delays: map[int64]time.Duration{4: 60 * time.Millisecond, 3: 40 * time.Millisecond, 2: 20 * time.Millisecond},
	}
	svc := newVodService(source, passthroughCache{}, &VodConfig{FetchConcurrency: 4, Location: time.UTC})

	page, err := svc.GetVods(context.Background(), VodRequest{})
	require.NoError(t, err)

	nicknames := make([]string, 0, len(page.Events))
	for _, e := range page.Events {
		nicknames = append(nicknames, e.Nickname)
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, nicknames)
	assert.Equal(t, int64(1), *page.NextCursor)
}

func TestGetVods_FailsFast(t *testing.T) {
	source := &fakeSource{
		summaries: []models.MatchSummary{{ID: 3, HasVod: true}, {ID: 2, HasVod: true}, {ID: 1, HasVod: true}},
		records:   map[int64]*models.MatchRecord{3: deathMatch(3, "c"), 1: deathMatch(1, "a")},
		fetchErr:  map[int64]error{2: apperr.Upstream("API request failed to endpoint matches/2.")},
	}
	svc := newVodService(source, passthroughCache{}, &VodConfig{FetchConcurrency: 1, Location: time.UTC})

	page, err := svc.GetVods(context.Background(), VodRequest{})
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	// Матч 1 после ошибки не запрашивается
	assert.Equal(t, 2, source.fetchCount())
}

func TestGetVods_Timeout(t *testing.T) {
	source := &fakeSource{
		summaries: []models.MatchSummary{{ID: 1, HasVod: true}},
		records:   map[int64]*models.MatchRecord{1: deathMatch(1, "a")},
		delays:    map[int64]time.Duration{1: 5 * time.Second},
	}
	svc := newVodService(source, passthroughCache{}, &VodConfig{RequestTimeout: 30 * time.Millisecond, Location: time.UTC})

	_, err := svc.GetVods(context.Background(), VodRequest{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
}

func TestGetVods_InvalidSeason(t *testing.T) {
	source := &fakeSource{}
	svc := newVodService(source, passthroughCache{}, nil)

	_, err := svc.GetVods(context.Background(), VodRequest{Season: "7"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.True(t, strings.HasPrefix(apperr.PublicMessage(err), "Season must be a number"))
	assert.Empty(t, source.queries)
}

func TestGetVods_EmptyPage(t *testing.T) {
	source := &fakeSource{summaries: []models.MatchSummary{{ID: 9, HasVod: false}}}
	svc := newVodService(source, passthroughCache{}, nil)

	page, err := svc.GetVods(context.Background(), VodRequest{User: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, page.Events)
	assert.Empty(t, page.Events)
	assert.Nil(t, page.NextCursor)
	assert.Nil(t, page.Season)
}

func TestGetVods_MatchesWithoutVodDeathsContributeNothing(t *testing.T) {
	quiet := deathMatch(2, "b")
	quiet.Timelines = []models.TimelineEvent{}

	source := &fakeSource{
		summaries: []models.MatchSummary{{ID: 2, HasVod: true}, {ID: 1, HasVod: true}},
		records:   map[int64]*models.MatchRecord{2: quiet, 1: deathMatch(1, "a")},
	}
	svc := newVodService(source, passthroughCache{}, &VodConfig{Location: time.UTC})

	page, err := svc.GetVods(context.Background(), VodRequest{})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, int64(1), page.Events[0].MatchID)
	assert.Equal(t, int64(1), *page.NextCursor)
}
