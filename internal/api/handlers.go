package api

import (
	"context"
	"net/http"
	"time"

	"lunch-roulette/internal/common/config"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/recommendation"

	"github.com/go-chi/chi/v5"
)

// BreakerStater reports an upstream circuit breaker state.
type BreakerStater interface {
	State() string
}

// FilterCatalog is what the frontend needs to render the filter panel and
// the map.
type FilterCatalog struct {
	DefaultCategory string                `json:"defaultCategory"`
	Categories      []string              `json:"categories"`
	DefaultRadius   int                   `json:"defaultRadius"`
	RadiusPresets   []config.RadiusPreset `json:"radiusPresets"`
	Map             MapSettings           `json:"map"`
}

type MapSettings struct {
	JSKey  string             `json:"jsKey"`
	Center models.Coordinates `json:"center"`
	Level  int                `json:"level"`
}

// CatalogFromConfig builds the filter catalogue from the loaded config.
func CatalogFromConfig(cfg *config.Config) FilterCatalog {
	return FilterCatalog{
		DefaultCategory: cfg.Recommendation.DefaultCategory,
		Categories:      cfg.Recommendation.Categories,
		DefaultRadius:   cfg.Recommendation.DefaultRadius,
		RadiusPresets:   cfg.Recommendation.RadiusPresets,
		Map: MapSettings{
			JSKey:  cfg.Map.JSKey,
			Center: models.Coordinates{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng},
			Level:  cfg.Map.Level,
		},
	}
}

// Handler serves the recommendation API.
type Handler struct {
	service  *recommendation.Service
	catalog  FilterCatalog
	breakers map[string]BreakerStater
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(service *recommendation.Service, catalog FilterCatalog, breakers map[string]BreakerStater, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		service:  service,
		catalog:  catalog,
		breakers: breakers,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
		now:      time.Now,
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Create(r.Context())
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusCreated, snap)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, snap)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Direct(w http.ResponseWriter, r *http.Request) {
	h.recommend(w, r, h.service.Direct)
}

func (h *Handler) Roulette(w http.ResponseWriter, r *http.Request) {
	h.recommend(w, r, h.service.Roulette)
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request, run func(context.Context, string, recommendation.Request) (recommendation.Snapshot, error)) {
	var body RecommendRequest
	if err := decodeBody(w, r, &body); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	snap, err := run(r.Context(), chi.URLParam(r, "id"), recommendation.Request{
		Locator: body.Locator(),
		Filters: body.Filters(),
	})
	if err != nil {
		h.respondError(w, r, err, snapshotOrNil(snap))
		return
	}
	h.respondOK(w, r, http.StatusOK, snap)
}

func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Spin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, snap)
}

// StopSpin is sent by the client when the wheel animation ends.
func (h *Handler) StopSpin(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.StopSpin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, snap)
}

// Retry repeats the last request. The body is optional and only used when
// the session never got a position.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	var body RecommendRequest
	if err := decodeBody(w, r, &body); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	snap, err := h.service.Retry(r.Context(), chi.URLParam(r, "id"), body.Locator())
	if err != nil {
		h.respondError(w, r, err, snapshotOrNil(snap))
		return
	}
	h.respondOK(w, r, http.StatusOK, snap)
}

func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Dismiss(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, snap)
}

func (h *Handler) SessionDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, h.detailsView(details))
}

// snapshotOrNil drops the zero snapshot returned alongside errors that
// happen before the session is touched.
func snapshotOrNil(snap recommendation.Snapshot) interface{} {
	if snap.ID == "" {
		return nil
	}
	return snap
}
