package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranked-vods/models"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func death(uuid string, offsetMs int64) models.TimelineEvent {
	return models.TimelineEvent{PlayerUUID: uuid, OffsetMs: offsetMs, Kind: models.DeathKind}
}

func TestCorrelate_ClockExample(t *testing.T) {
	// Начало игры 1000 - 5000/1000 = 995, смерть 995 + 2 = 997, VOD с 990: 7 - 10 = -3
	match := &models.MatchRecord{
		ID:         1,
		StartUnix:  1000,
		DurationMs: 5000,
		Timelines:  []models.TimelineEvent{death("p1", 2000)},
		Vods:       []models.VodRef{{PlayerUUID: "p1", URL: "https://vod/1", StartUnix: 990}},
		Players:    []models.PlayerRef{{PlayerUUID: "p1", Nickname: "Alpha"}},
	}

	events := Correlate(match, berlin(t))
	require.Len(t, events, 1)

	// Отрицательная метка передаётся как есть, без обрезки до нуля
	assert.Equal(t, int64(-3), events[0].VodSeconds)
	assert.Equal(t, "https://vod/1?t=-3s", events[0].Link)
	assert.Equal(t, "Alpha", events[0].Nickname)
	assert.Equal(t, int64(1), events[0].MatchID)
	assert.Equal(t, "1.1.1970, 01:16:37", events[0].WallClock)
}

func TestCorrelate_RealisticMatch(t *testing.T) {
	// Матч закончился 2024-03-05 13:10:00 UTC и длился 10 минут
	match := &models.MatchRecord{
		ID:         2,
		StartUnix:  1709644200,
		DurationMs: 600000,
		Timelines: []models.TimelineEvent{
			{PlayerUUID: "p1", OffsetMs: 1000, Kind: "projectelo.timeline.reset"},
			death("p1", 125500),
			death("p2", 300000),
			death("p3", 400000),
		},
		Vods: []models.VodRef{
			{PlayerUUID: "p1", URL: "https://twitch.tv/videos/100", StartUnix: 1709643000},
			{PlayerUUID: "p2", URL: "https://youtu.be/abc", StartUnix: 1709643500},
		},
		Players: []models.PlayerRef{
			{PlayerUUID: "p1", Nickname: "Alpha"},
			{PlayerUUID: "p2", Nickname: "Bravo"},
			{PlayerUUID: "p3", Nickname: "Charlie"},
		},
	}

	events := Correlate(match, berlin(t))
	require.Len(t, events, 2)

	// Начало 1709643600; смерть p1 в 1709643725.5; VOD с 1709643000: floor(725.5) - 10 = 715
	assert.Equal(t, "Alpha", events[0].Nickname)
	assert.Equal(t, "https://twitch.tv/videos/100?t=715s", events[0].Link)
	assert.Equal(t, "5.3.2024, 14:02:05", events[0].WallClock)

	// Смерть p2 в 1709643900, VOD с 1709643500: 400 - 10 = 390
	assert.Equal(t, "Bravo", events[1].Nickname)
	assert.Equal(t, "https://youtu.be/abc?t=390s", events[1].Link)
	assert.Equal(t, int64(390), events[1].VodSeconds)
}

func TestCorrelate_NoDeaths(t *testing.T) {
	match := &models.MatchRecord{
		Timelines: []models.TimelineEvent{{PlayerUUID: "p1", OffsetMs: 10, Kind: "projectelo.timeline.complete"}},
		Vods:      []models.VodRef{{PlayerUUID: "p1", URL: "u", StartUnix: 0}},
	}

	events := Correlate(match, time.UTC)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestCorrelate_DeathWithoutVodIsOmitted(t *testing.T) {
	match := &models.MatchRecord{
		StartUnix:  100,
		DurationMs: 10000,
		Timelines:  []models.TimelineEvent{death("nobody", 1000)},
		Vods:       []models.VodRef{{PlayerUUID: "p1", URL: "u", StartUnix: 0}},
	}

	assert.Empty(t, Correlate(match, time.UTC))
}

func TestCorrelate_UnknownNicknameAndNilLocation(t *testing.T) {
	match := &models.MatchRecord{
		StartUnix:  100,
		DurationMs: 0,
		Timelines:  []models.TimelineEvent{death("p1", 0)},
		Vods:       []models.VodRef{{PlayerUUID: "p1", URL: "u", StartUnix: 50}},
	}

	events := Correlate(match, nil)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].Nickname)
	assert.Equal(t, "1.1.1970, 00:01:40", events[0].WallClock)
	assert.Equal(t, "u?t=40s", events[0].Link)
}

func TestVodTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		eventMs  int64
		vodStart int64
		want     int64
	}{
		{"whole seconds", 20000, 5, 5},
		{"fraction floors down", 20999, 5, 5},
		{"negative fraction floors down", 4500, 5, -11},
		{"exactly at vod start", 5000, 5, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VodTimestamp(tt.eventMs, tt.vodStart))
		})
	}
}
