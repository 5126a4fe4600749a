package ranked

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"ranked-vods/apperr"
	"ranked-vods/models"
)

const (
	// DefaultBaseURL адрес MCSR Ranked API
	DefaultBaseURL = "https://api.mcsrranked.com"

	// Текст ошибки апстрима для несуществующего игрока
	playerNotExist = "This player is not exist."
)

// Client HTTP клиент MCSR Ranked API
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// ClientConfig настройки клиента
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// MatchQuery параметры запроса списка матчей. Пустые параметры не отправляются.
type MatchQuery struct {
	User   string // Пустая строка: матчи всех игроков
	Count  int
	Before *int64
	Season *int
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// errorPayload тело ошибки API; форма query и params не фиксирована
type errorPayload struct {
	Error  string          `json:"error"`
	Query  json.RawMessage `json:"query"`
	Params json.RawMessage `json:"params"`
}

// NewClient создает клиент API
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:   c,
		logger: logger,
	}
}

// ListMatches возвращает страницу кратких записей матчей
func (c *Client) ListMatches(ctx context.Context, q MatchQuery) ([]models.MatchSummary, error) {
	data, err := c.get(ctx, matchesEndpoint(q))
	if err != nil {
		return nil, err
	}
	return models.DecodeSummaries(data)
}

// FetchMatch возвращает полную запись матча
func (c *Client) FetchMatch(ctx context.Context, id int64) (*models.MatchRecord, error) {
	data, err := c.get(ctx, "matches/"+strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	return models.DecodeMatchRecord(data)
}

// matchesEndpoint собирает путь и query только из заданных параметров
func matchesEndpoint(q MatchQuery) string {
	path := "matches"
	if q.User != "" {
		path = "users/" + url.PathEscape(q.User) + "/matches"
	}

	// Порядок параметров фиксирован, url.Values отсортировал бы их
	params := []string{"count=" + strconv.Itoa(q.Count)}
	if q.Before != nil {
		params = append(params, "before="+strconv.FormatInt(*q.Before, 10))
	}
	params = append(params, "excludeDecayed=true")
	if q.Season != nil {
		params = append(params, "season="+strconv.Itoa(*q.Season))
	}

	return path + "?" + strings.Join(params, "&")
}

// get выполняет запрос и разбирает конверт {status, data}
func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	started := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/" + endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperr.Timeout(fmt.Sprintf("request to endpoint %s was cancelled", endpoint), ctxErr)
		}
		return nil, apperr.Network(fmt.Sprintf("request to endpoint %s failed", endpoint), err)
	}

	body := resp.String()
	c.logger.Debug("Ranked API response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(started)),
	)

	if !resp.IsSuccess() && !strings.HasPrefix(body, "{") {
		return nil, apperr.Network(fmt.Sprintf(
			"Network response was not ok for endpoint %s. Status: %d %s. Text: %s",
			endpoint, resp.StatusCode(), statusText(resp), body,
		), nil)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, apperr.Protocol(fmt.Sprintf("invalid response envelope from endpoint %s", endpoint), err)
	}

	if env.Status == "success" {
		return env.Data, nil
	}
	return nil, responseError(endpoint, resp.StatusCode(), env.Data)
}

// responseError переводит ошибку апстрима в типизированную
func responseError(endpoint string, status int, data json.RawMessage) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "API request failed to endpoint %s (status %d).", endpoint, status)

	var payload errorPayload
	var text string
	switch {
	case json.Unmarshal(data, &payload) == nil:
		if payload.Error != "" {
			if payload.Error == playerNotExist {
				return apperr.NotFound("This user does not exist.")
			}
			msg.WriteString(" " + payload.Error)
		}
		if details, ok := validationDetails(payload.Query); ok {
			msg.WriteString(" Query validation failed: " + details)
		}
		if details, ok := validationDetails(payload.Params); ok {
			msg.WriteString(" Parameter validation failed: " + details)
		}
	case json.Unmarshal(data, &text) == nil:
		msg.WriteString(" " + text)
	}

	return apperr.Upstream(msg.String())
}

// validationDetails возвращает детали в компактном JSON; null и пустое значение пропускаются
func validationDetails(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw), true
	}
	return buf.String(), true
}

func statusText(resp *resty.Response) string {
	// resty отдаёт "404 Not Found", код уже выведен отдельно
	s := resp.Status()
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[i+1:]
	}
	return s
}
