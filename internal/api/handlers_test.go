package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"lunch-roulette/internal/common/config"
	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/providers/kakao"
	"lunch-roulette/internal/recommendation"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    Meta            `json:"meta"`
}

type stubEnricher struct {
	details *models.PlaceDetails
	err     error
}

func (s stubEnricher) Details(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error) {
	return s.details, s.err
}

type testEnv struct {
	server   *httptest.Server
	upstream *httptest.Server
	status   atomic.Int32
}

// newTestEnv serves count generated places per keyword from a fake Kakao
// Local API.
func newTestEnv(t *testing.T, counts map[string]int, enricher recommendation.Enricher) *testEnv {
	t.Helper()
	env := &testEnv{}
	env.status.Store(http.StatusOK)

	env.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status := int(env.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		query := r.URL.Query().Get("query")
		docs := make([]map[string]string, 0)
		for i := 1; i <= counts[query]; i++ {
			docs = append(docs, map[string]string{
				"id":                fmt.Sprintf("p%d", i),
				"place_name":        fmt.Sprintf("%s %d", query, i),
				"road_address_name": "대전 중구 중앙로 " + strconv.Itoa(i),
				"x":                 "127.3845",
				"y":                 "36.3504",
				"place_url":         fmt.Sprintf("http://place.map.kakao.com/p%d", i),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"documents": docs})
	}))
	t.Cleanup(env.upstream.Close)

	log := logger.NewTestLogger(t)
	searcher := kakao.NewClient(kakao.Config{
		BaseURL: env.upstream.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, log)

	opts := recommendation.ServiceOptions{
		Searcher:      searcher,
		Store:         recommendation.NewMemoryStore(time.Minute),
		Selector:      recommendation.NewSelector(func() float64 { return 0.999 }),
		DefaultRadius: 800,
		Logger:        log,
	}
	if enricher != nil {
		opts.Enricher = enricher
	}
	svc, err := recommendation.NewService(opts)
	require.NoError(t, err)

	cfg := &config.Config{
		Recommendation: config.RecommendationConfig{
			DefaultCategory: recommendation.DefaultCategory,
			Categories:      config.DefaultCategories,
			DefaultRadius:   800,
			RadiusPresets:   config.DefaultRadiusPresets,
		},
		Map: config.MapConfig{JSKey: "js-key", DefaultLat: 36.3504, DefaultLng: 127.3845, Level: 3},
	}
	h := NewHandler(svc, CatalogFromConfig(cfg), map[string]BreakerStater{"kakao-local": searcher}, log)
	env.server = httptest.NewServer(NewRouter(h, MiddlewareConfig{CORSAllowedOrigins: []string{"*"}}))
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	var snap recommendation.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	require.NotEmpty(t, snap.ID)
	return snap.ID
}

func decodeSnapshot(t *testing.T, env envelope) recommendation.Snapshot {
	t.Helper()
	var snap recommendation.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

var position = map[string]interface{}{"lat": 36.3504, "lng": 127.3845}

func TestAPI_RouletteEndToEnd(t *testing.T) {
	env := newTestEnv(t, map[string]int{recommendation.DefaultCategory: 6}, nil)
	id := env.createSession(t)

	status, resp := env.do(t, http.MethodPost, "/api/sessions/"+id+"/roulette", position)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.Meta.RequestID)

	ready := decodeSnapshot(t, resp)
	assert.Equal(t, recommendation.StateRouletteReady, ready.State)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, models.CandidateSet(ready.WheelSlots).IDs())

	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/spin", nil)
	require.Equal(t, http.StatusOK, status)
	spinning := decodeSnapshot(t, resp)
	assert.Equal(t, recommendation.StateRouletteSpinning, spinning.State)
	assert.Equal(t, 4, spinning.Roulette.WinningIndex)
	assert.Nil(t, spinning.Selection)

	// a second click while the wheel turns changes nothing
	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/spin", nil)
	require.Equal(t, http.StatusOK, status)
	again := decodeSnapshot(t, resp)
	assert.Equal(t, recommendation.StateRouletteSpinning, again.State)
	assert.Equal(t, 4, again.Roulette.WinningIndex)
	assert.Equal(t, spinning.Generation, again.Generation)

	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/spin/stop", nil)
	require.Equal(t, http.StatusOK, status)
	result := decodeSnapshot(t, resp)
	assert.Equal(t, recommendation.StateRouletteResult, result.State)
	assert.Equal(t, 4, result.Roulette.WinningIndex)
	require.NotNil(t, result.Selection)
	assert.Equal(t, "p5", result.Selection.Place.ID)
	assert.Equal(t, result.Selection.Place.SearchURL(), result.Selection.SearchURL)
	assert.Contains(t, result.Selection.SearchURL, "https://search.naver.com/search.naver?query=")

	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/spin", nil)
	require.Equal(t, http.StatusOK, status)
	after := decodeSnapshot(t, resp)
	assert.Equal(t, recommendation.StateRouletteResult, after.State)
	assert.Equal(t, "p5", after.Selection.Place.ID)

	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/dismiss", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, recommendation.StateIdle, decodeSnapshot(t, resp).State)

	status, _ = env.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		counts     map[string]int
		upstream   int
		path       string
		body       interface{}
		wantStatus int
		wantCode   apperrors.ErrorCode
		wantNotice string
	}{
		{
			name:       "direct with nothing nearby",
			path:       "direct",
			body:       position,
			wantStatus: http.StatusOK,
			wantCode:   apperrors.ErrCodeEmptyCandidateSet,
			wantNotice: apperrors.NoticeNoRecommendation,
		},
		{
			name:       "roulette with four places",
			counts:     map[string]int{"한식": 4},
			path:       "roulette",
			body:       map[string]interface{}{"lat": 36.35, "lng": 127.38, "categories": []string{"한식"}},
			wantStatus: http.StatusOK,
			wantCode:   apperrors.ErrCodeInsufficientCandidates,
			wantNotice: apperrors.NoticeInsufficientCandidates,
		},
		{
			name:       "location denied",
			path:       "direct",
			body:       map[string]interface{}{"geoErrorCode": 1},
			wantStatus: http.StatusOK,
			wantCode:   apperrors.ErrCodeLocationUnavailable,
			wantNotice: apperrors.NoticeLocationUnavailable,
		},
		{
			name:       "upstream down",
			upstream:   http.StatusInternalServerError,
			path:       "direct",
			body:       position,
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.ErrCodeUpstreamSearchFailed,
			wantNotice: apperrors.NoticeUpstreamSearchFailed,
		},
		{
			name:       "radius out of range",
			path:       "direct",
			body:       map[string]interface{}{"lat": 36.35, "lng": 127.38, "radius": 50000},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeInvalidRequest,
		},
		{
			name:       "latitude out of range",
			path:       "roulette",
			body:       map[string]interface{}{"lat": 136.35, "lng": 127.38},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.counts, nil)
			if tt.upstream != 0 {
				env.status.Store(int32(tt.upstream))
			}
			id := env.createSession(t)

			status, resp := env.do(t, http.MethodPost, "/api/sessions/"+id+"/"+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
			assert.Equal(t, tt.wantNotice, resp.Error.Notice)
			assert.Equal(t, tt.wantCode == apperrors.ErrCodeUpstreamSearchFailed, resp.Error.Retryable)

			status, resp = env.do(t, http.MethodGet, "/api/sessions/"+id, nil)
			require.Equal(t, http.StatusOK, status)
			snap := decodeSnapshot(t, resp)
			assert.Equal(t, recommendation.StateIdle, snap.State)
			assert.Equal(t, tt.wantNotice, snap.Notice)
		})
	}
}

func TestAPI_RetryAfterUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, map[string]int{recommendation.DefaultCategory: 2}, nil)
	env.status.Store(http.StatusServiceUnavailable)
	id := env.createSession(t)

	status, _ := env.do(t, http.MethodPost, "/api/sessions/"+id+"/direct", position)
	require.Equal(t, http.StatusBadGateway, status)

	env.status.Store(http.StatusOK)
	status, resp := env.do(t, http.MethodPost, "/api/sessions/"+id+"/retry", nil)
	require.Equal(t, http.StatusOK, status)
	snap := decodeSnapshot(t, resp)
	assert.Equal(t, recommendation.StateDirectResult, snap.State)
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "p2", snap.Selection.Place.ID)
}

func TestAPI_SessionErrors(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, resp := env.do(t, http.MethodPost, "/api/sessions/missing/direct", position)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(apperrors.ErrCodeSessionNotFound), resp.Error.Code)

	id := env.createSession(t)
	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/spin", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(apperrors.ErrCodeInvalidSessionState), resp.Error.Code)

	status, resp = env.do(t, http.MethodPost, "/api/sessions/"+id+"/spin/stop", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(apperrors.ErrCodeInvalidSessionState), resp.Error.Code)

	status, _ = env.do(t, http.MethodPost, "/api/sessions/"+id+"/dismiss", nil)
	assert.Equal(t, http.StatusConflict, status)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/sessions/"+id+"/direct", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestAPI_SessionDetails(t *testing.T) {
	rating := 4.5
	enricher := stubEnricher{details: &models.PlaceDetails{
		Rating: &rating,
		OpeningHours: &models.OpeningHours{WeekdayText: []string{
			"월요일: 11:00~21:00", "화요일: 11:00~21:00", "수요일: 11:00~21:00",
			"목요일: 11:00~21:00", "금요일: 11:00~21:00", "토요일: 11:00~21:00", "일요일: 11:00~21:00",
		}},
	}}
	env := newTestEnv(t, map[string]int{recommendation.DefaultCategory: 1}, enricher)
	id := env.createSession(t)

	status, _ := env.do(t, http.MethodGet, "/api/sessions/"+id+"/details", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/api/sessions/"+id+"/direct", position)
	require.Equal(t, http.StatusOK, status)

	status, resp := env.do(t, http.MethodGet, "/api/sessions/"+id+"/details", nil)
	require.Equal(t, http.StatusOK, status)
	var view struct {
		Rating     float64 `json:"rating"`
		TodayHours string  `json:"todayHours"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, 4.5, view.Rating)
	assert.Equal(t, "11:00~21:00", view.TodayHours)
}

func TestAPI_DetailsNotFound(t *testing.T) {
	env := newTestEnv(t, nil, stubEnricher{err: apperrors.NewSentinel(apperrors.ErrCodeEnrichmentUnavailable)})

	status, resp := env.do(t, http.MethodGet, "/api/details?name=%EC%8B%9D%EB%8B%B9&lat=36.35&lng=127.38", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.NoticeEnrichmentUnavailable, resp.Error.Notice)

	status, _ = env.do(t, http.MethodGet, "/api/details?lat=36.35&lng=127.38", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Recommend(t *testing.T) {
	env := newTestEnv(t, map[string]int{"한식": 2, "중식": 3}, nil)

	status, resp := env.do(t, http.MethodGet, "/api/recommend?lat=36.35&lng=127.38&query=%ED%95%9C%EC%8B%9D,%EC%A4%91%EC%8B%9D&radius=500", nil)
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Documents []models.PlaceRecord `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, []string{"p1", "p2", "p3"}, models.CandidateSet(data.Documents).IDs())

	status, _ = env.do(t, http.MethodGet, "/api/recommend?lat=abc&lng=127.38", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_FiltersAndHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, resp := env.do(t, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, status)
	var catalog FilterCatalog
	require.NoError(t, json.Unmarshal(resp.Data, &catalog))
	assert.Equal(t, 800, catalog.DefaultRadius)
	assert.Equal(t, "js-key", catalog.Map.JSKey)
	assert.NotEmpty(t, catalog.Categories)
	assert.NotEmpty(t, catalog.RadiusPresets)

	status, _ = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), "kakao-local")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(apperrors.ErrCodeInvalidRequest))
	assert.Equal(t, http.StatusNotFound, statusFor(apperrors.ErrCodeSessionNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(apperrors.ErrCodeRequestSuperseded))
	assert.Equal(t, http.StatusOK, statusFor(apperrors.ErrCodeInsufficientCandidates))
	assert.Equal(t, http.StatusBadGateway, statusFor(apperrors.ErrCodeUpstreamSearchFailed))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperrors.ErrCodeInternal))
}
