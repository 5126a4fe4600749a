package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ranked-vods/apperr"
	"ranked-vods/models"
	"ranked-vods/service"
)

// VodGetter источник страниц со ссылками на смерти
type VodGetter interface {
	GetVods(ctx context.Context, req service.VodRequest) (*service.VodPage, error)
}

// VodHandler обрабатывает HTTP запросы ссылок на VOD
type VodHandler struct {
	vods   VodGetter
	logger *zap.Logger
}

// VodResponse тело успешного ответа
type VodResponse struct {
	User        string              `json:"user"`
	Vods        []models.DeathEvent `json:"vods"`
	LastMatchID *int64              `json:"last_match_id,omitempty"`
	Season      *int                `json:"season,omitempty"`
}

type ctxKey struct{}

// NewVodHandler создает новый обработчик
func NewVodHandler(vods VodGetter, logger *zap.Logger) *VodHandler {
	return &VodHandler{
		vods:   vods,
		logger: logger,
	}
}

// Register регистрирует маршруты
func (h *VodHandler) Register(router *mux.Router) {
	router.Use(h.requestID)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/vods", h.GetVods).Methods("GET")
	api.HandleFunc("/users/{user}/vods", h.GetVods).Methods("GET")
}

// GetVods возвращает страницу ссылок на смерти.
// Пользователь берётся из пути или из параметра user.
func (h *VodHandler) GetVods(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	user := mux.Vars(r)["user"]
	if user == "" {
		user = query.Get("user")
	}

	before, err := service.ParseCursor(query.Get("before"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	page, err := h.vods.GetVods(r.Context(), service.VodRequest{
		User:   user,
		Before: before,
		Season: query.Get("season"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, VodResponse{
		User:        user,
		Vods:        page.Events,
		LastMatchID: page.NextCursor,
		Season:      page.Season,
	})
}

// requestID назначает каждому запросу идентификатор для логов
func (h *VodHandler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// StatusFor возвращает HTTP статус для ошибки ядра
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON отправляет JSON ответ
func (h *VodHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// respondError отправляет ошибку в формате JSON. Детали внутренних ошибок только логируются.
func (h *VodHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	requestID, _ := r.Context().Value(ctxKey{}).(string)

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("kind", apperr.KindOf(err).String()),
		zap.String("request_id", requestID),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Warn("Request error", fields...)
	}

	h.respondJSON(w, status, map[string]interface{}{
		"error":      apperr.PublicMessage(err),
		"request_id": requestID,
	})
}
