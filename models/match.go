package models

// DeathKind тип события таймлайна, который означает смерть игрока
const DeathKind = "projectelo.timeline.death"

// MatchSummary представляет запись из списка матчей
type MatchSummary struct {
	ID     int64 `json:"id"`
	HasVod bool  `json:"has_vod"` // true только если у матча непустой массив vod
}

// MatchRecord представляет полные данные завершённого матча.
// После первого получения запись не меняется.
type MatchRecord struct {
	ID         int64           `json:"id"`
	StartUnix  int64           `json:"start_unix"`  // Поле date апстрима: время завершения матча, unix-секунды
	DurationMs int64           `json:"duration_ms"` // Поле result.time апстрима
	Timelines  []TimelineEvent `json:"timelines"`
	Vods       []VodRef        `json:"vods"`
	Players    []PlayerRef     `json:"players"`
}

// TimelineEvent событие внутри матча
type TimelineEvent struct {
	PlayerUUID string `json:"uuid"`
	OffsetMs   int64  `json:"time"` // Смещение от начала матча
	Kind       string `json:"type"`
}

// IsDeath проверяет, является ли событие смертью
func (e TimelineEvent) IsDeath() bool {
	return e.Kind == DeathKind
}

// VodRef запись матча, загруженная игроком
type VodRef struct {
	PlayerUUID string `json:"uuid"`
	URL        string `json:"url"`
	StartUnix  int64  `json:"startsAt"` // Начало записи, unix-секунды
}

// PlayerRef участник матча
type PlayerRef struct {
	PlayerUUID string `json:"uuid"`
	Nickname   string `json:"nickname"`
}

// DeathEvent ссылка на момент смерти игрока во VOD
type DeathEvent struct {
	MatchID    int64  `json:"match_id"`
	Nickname   string `json:"nickname"`
	WallClock  string `json:"time"`
	Link       string `json:"link"`
	VodSeconds int64  `json:"vod_seconds"`
}

// VodFor возвращает VOD игрока, если он есть
func (m *MatchRecord) VodFor(playerUUID string) (VodRef, bool) {
	for _, v := range m.Vods {
		if v.PlayerUUID == playerUUID {
			return v, true
		}
	}
	return VodRef{}, false
}
