package api

import (
	"net/http"

	"lunch-roulette/internal/models"
)

// DetailsView adds today's opening hours to the enrichment.
type DetailsView struct {
	*models.PlaceDetails
	TodayHours string `json:"todayHours"`
}

func (h *Handler) detailsView(d *models.PlaceDetails) DetailsView {
	return DetailsView{PlaceDetails: d, TodayHours: d.TodayHours(h.now())}
}

// Recommend returns the aggregated candidates around a position without
// making a selection.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	set, err := h.service.Search(r.Context(), models.Coordinates{Lat: q.Lat, Lng: q.Lng}, models.Filters{
		Categories:   q.Categories,
		RadiusMeters: q.Radius,
	})
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, map[string]interface{}{"documents": set})
}

func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	q, err := parseDetailsQuery(r)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	details, err := h.service.PlaceDetails(r.Context(), q.Name, q.Lat, q.Lng)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.respondOK(w, r, http.StatusOK, h.detailsView(details))
}

func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	h.respondOK(w, r, http.StatusOK, h.catalog)
}
