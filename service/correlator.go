package service

import (
	"strconv"
	"time"

	"ranked-vods/models"
)

const (
	// VodPaddingSeconds ссылка ведёт на момент чуть раньше смерти
	VodPaddingSeconds = 10

	// Формат de-DE: "5.3.2024, 14:05:09"
	wallClockLayout = "2.1.2006, 15:04:05"
)

// Correlate сопоставляет смерти из таймлайна матча с VOD игроков.
// Смерть без VOD игрока пропускается. Порядок событий сохраняется.
func Correlate(match *models.MatchRecord, loc *time.Location) []models.DeathEvent {
	if loc == nil {
		loc = time.UTC
	}

	deaths := make([]models.TimelineEvent, 0)
	for _, e := range match.Timelines {
		if e.IsDeath() {
			deaths = append(deaths, e)
		}
	}
	if len(deaths) == 0 {
		return []models.DeathEvent{}
	}

	nicknames := make(map[string]string, len(match.Players))
	for _, p := range match.Players {
		nicknames[p.PlayerUUID] = p.Nickname
	}

	events := make([]models.DeathEvent, 0, len(deaths))
	for _, death := range deaths {
		vod, ok := match.VodFor(death.PlayerUUID)
		if !ok {
			continue
		}

		eventMs := eventUnixMilli(match, death)
		vodSeconds := VodTimestamp(eventMs, vod.StartUnix)

		events = append(events, models.DeathEvent{
			MatchID:    match.ID,
			Nickname:   nicknames[death.PlayerUUID],
			WallClock:  time.UnixMilli(eventMs).In(loc).Format(wallClockLayout),
			Link:       vod.URL + "?t=" + strconv.FormatInt(vodSeconds, 10) + "s",
			VodSeconds: vodSeconds,
		})
	}

	return events
}

// eventUnixMilli абсолютное время события в миллисекундах.
// date апстрима это время завершения, начало матча = date - длительность.
func eventUnixMilli(match *models.MatchRecord, e models.TimelineEvent) int64 {
	gameStartMs := match.StartUnix*1000 - match.DurationMs
	return gameStartMs + e.OffsetMs
}

// VodTimestamp смещение во VOD в секундах с учётом отступа.
// Отрицательное значение не обрезается до нуля.
func VodTimestamp(eventUnixMs, vodStartUnix int64) int64 {
	return floorDiv(eventUnixMs-vodStartUnix*1000, 1000) - VodPaddingSeconds
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
