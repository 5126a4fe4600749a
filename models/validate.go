package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ranked-vods/apperr"
)

// maxPayloadQuote ограничивает длину тела ответа в тексте ошибки
const maxPayloadQuote = 512

// Формат записи матча у апстрима. В кэше хранится этот же формат,
// поэтому свежий ответ API и файл из кэша проходят одну проверку.
type matchRecordWire struct {
	ID        int64           `json:"id"`
	Date      int64           `json:"date"`
	Result    matchResultWire `json:"result"`
	Timelines []TimelineEvent `json:"timelines"`
	Vod       []VodRef        `json:"vod"`
	Players   []PlayerRef     `json:"players"`
}

type matchResultWire struct {
	Time int64 `json:"time"`
}

type jsonKind int

const (
	jsonMissing jsonKind = iota
	jsonNull
	jsonNumber
	jsonString
	jsonBool
	jsonArray
	jsonObject
)

func kindOf(raw json.RawMessage) jsonKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return jsonMissing
	}
	switch c := raw[0]; {
	case c == '{':
		return jsonObject
	case c == '[':
		return jsonArray
	case c == '"':
		return jsonString
	case c == 't' || c == 'f':
		return jsonBool
	case c == 'n':
		return jsonNull
	default:
		return jsonNumber
	}
}

func protocolError(expected string, payload []byte, err error) error {
	quoted := string(payload)
	if len(quoted) > maxPayloadQuote {
		quoted = quoted[:maxPayloadQuote] + "..."
	}
	return apperr.Protocol(fmt.Sprintf("expected %s but got: %s", expected, quoted), err)
}

// DecodeSummaries проверяет и декодирует массив кратких записей матчей.
// Каждый элемент обязан иметь числовой id; поле vod должно быть объектом или массивом.
// Отсутствующий или null vod трактуется как "нет VOD".
func DecodeSummaries(payload []byte) ([]MatchSummary, error) {
	const expected = "an array of basic match data"

	if kindOf(payload) != jsonArray {
		return nil, protocolError(expected, payload, nil)
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, protocolError(expected, payload, err)
	}

	summaries := make([]MatchSummary, 0, len(items))
	for _, item := range items {
		if item == nil || kindOf(item["id"]) != jsonNumber {
			return nil, protocolError(expected, payload, nil)
		}

		var id int64
		if err := json.Unmarshal(item["id"], &id); err != nil {
			return nil, protocolError(expected, payload, err)
		}

		hasVod := false
		switch kindOf(item["vod"]) {
		case jsonMissing, jsonNull, jsonObject:
		case jsonArray:
			var vods []json.RawMessage
			if err := json.Unmarshal(item["vod"], &vods); err != nil {
				return nil, protocolError(expected, payload, err)
			}
			hasVod = len(vods) > 0
		default:
			return nil, protocolError(expected, payload, nil)
		}

		summaries = append(summaries, MatchSummary{ID: id, HasVod: hasVod})
	}

	return summaries, nil
}

// DecodeMatchRecord проверяет и декодирует полную запись матча
func DecodeMatchRecord(payload []byte) (*MatchRecord, error) {
	const expected = "a MatchData object"

	var fields map[string]json.RawMessage
	if kindOf(payload) != jsonObject {
		return nil, protocolError(expected, payload, nil)
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, protocolError(expected, payload, err)
	}

	if kindOf(fields["date"]) != jsonNumber ||
		kindOf(fields["result"]) != jsonObject ||
		kindOf(fields["timelines"]) != jsonArray ||
		kindOf(fields["vod"]) != jsonArray {
		return nil, protocolError(expected, payload, nil)
	}
	if k := kindOf(fields["players"]); k != jsonMissing && k != jsonArray {
		return nil, protocolError(expected, payload, nil)
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(fields["result"], &result); err != nil || kindOf(result["time"]) != jsonNumber {
		return nil, protocolError(expected, payload, err)
	}

	var wire matchRecordWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, protocolError(expected, payload, err)
	}

	record := &MatchRecord{
		ID:         wire.ID,
		StartUnix:  wire.Date,
		DurationMs: wire.Result.Time,
		Timelines:  wire.Timelines,
		Vods:       wire.Vod,
		Players:    wire.Players,
	}
	if record.Players == nil {
		record.Players = []PlayerRef{}
	}

	return record, nil
}

// ValidateMatchRecord проверяет уже декодированную запись перед сохранением
func ValidateMatchRecord(m *MatchRecord) error {
	if m == nil {
		return apperr.Protocol("expected a MatchData object but got: null", nil)
	}
	if m.Timelines == nil || m.Vods == nil {
		return apperr.Protocol(fmt.Sprintf("match %d has no timelines or vod array", m.ID), nil)
	}
	return nil
}

// EncodeMatchRecord сериализует запись в формате апстрима
func EncodeMatchRecord(m *MatchRecord) ([]byte, error) {
	wire := matchRecordWire{
		ID:        m.ID,
		Date:      m.StartUnix,
		Result:    matchResultWire{Time: m.DurationMs},
		Timelines: m.Timelines,
		Vod:       m.Vods,
		Players:   m.Players,
	}
	if wire.Timelines == nil {
		wire.Timelines = []TimelineEvent{}
	}
	if wire.Vod == nil {
		wire.Vod = []VodRef{}
	}
	if wire.Players == nil {
		wire.Players = []PlayerRef{}
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match %d: %w", m.ID, err)
	}
	return data, nil
}
