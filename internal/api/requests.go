package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/validation"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/providers/geolocation"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 64 << 10

// RecommendRequest is the body of the direct, roulette and retry endpoints.
// The browser resolves the position itself and sends either coordinates or
// the GeolocationPositionError code it got.
type RecommendRequest struct {
	Lat          *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng          *float64 `json:"lng" validate:"omitempty,longitude"`
	GeoErrorCode int      `json:"geoErrorCode" validate:"gte=0,lte=3"`
	Categories   []string `json:"categories" validate:"max=20,dive,max=50"`
	Radius       int      `json:"radius" validate:"gte=0,lte=20000"`
}

// Locator returns nil when the request carries neither a position nor an
// error code.
func (r RecommendRequest) Locator() geolocation.Locator {
	if r.GeoErrorCode != geolocation.CodeNone {
		return geolocation.Reported(0, 0, r.GeoErrorCode)
	}
	if r.Lat == nil || r.Lng == nil {
		return nil
	}
	return geolocation.Reported(*r.Lat, *r.Lng, geolocation.CodeNone)
}

func (r RecommendRequest) Filters() models.Filters {
	return models.Filters{Categories: r.Categories, RadiusMeters: r.Radius}
}

// SearchQuery is the query string of GET /api/recommend.
type SearchQuery struct {
	Lat        float64  `validate:"latitude"`
	Lng        float64  `validate:"longitude"`
	Categories []string `validate:"max=20,dive,max=50"`
	Radius     int      `validate:"gte=0,lte=20000"`
}

// DetailsQuery is the query string of GET /api/details.
type DetailsQuery struct {
	Name string  `validate:"required,max=100"`
	Lat  float64 `validate:"latitude"`
	Lng  float64 `validate:"longitude"`
}

// decodeBody reads an optional JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body != nil {
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return apperrors.NewInvalidRequestError("malformed JSON body: " + err.Error())
		}
	}
	return validate(dst)
}

func validate(v interface{}) error {
	if res := validation.ValidateStruct(v); res != nil {
		return apperrors.NewInvalidRequestError(res.Error())
	}
	return nil
}

func parseSearchQuery(r *http.Request) (SearchQuery, error) {
	q := r.URL.Query()
	lat, err := floatParam(q.Get("lat"), "lat")
	if err != nil {
		return SearchQuery{}, err
	}
	lng, err := floatParam(q.Get("lng"), "lng")
	if err != nil {
		return SearchQuery{}, err
	}
	radius := 0
	if raw := q.Get("radius"); raw != "" {
		if radius, err = strconv.Atoi(raw); err != nil {
			return SearchQuery{}, apperrors.NewInvalidRequestError("radius must be an integer")
		}
	}

	sq := SearchQuery{
		Lat:        lat,
		Lng:        lng,
		Categories: splitCategories(q.Get("query")),
		Radius:     radius,
	}
	return sq, validate(sq)
}

func parseDetailsQuery(r *http.Request) (DetailsQuery, error) {
	q := r.URL.Query()
	lat, err := floatParam(q.Get("lat"), "lat")
	if err != nil {
		return DetailsQuery{}, err
	}
	lng, err := floatParam(q.Get("lng"), "lng")
	if err != nil {
		return DetailsQuery{}, err
	}
	dq := DetailsQuery{Name: strings.TrimSpace(q.Get("name")), Lat: lat, Lng: lng}
	return dq, validate(dq)
}

func floatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, apperrors.NewInvalidRequestError(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewInvalidRequestError(fmt.Sprintf("%s must be a number", name))
	}
	return v, nil
}

func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
