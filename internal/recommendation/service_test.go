package recommendation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/mapview"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/providers/geolocation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	query  string
	lat    float64
	lng    float64
	radius int
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]models.PlaceRecord
	err     error
	calls   []searchCall
	hook    func(n int)
}

func (f *fakeSearcher) Search(ctx context.Context, query string, lat, lng float64, radius int) ([]models.PlaceRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{query: query, lat: lat, lng: lng, radius: radius})
	n := len(f.calls)
	hook, err, res := f.hook, f.err, f.results[query]
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *fakeSearcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSearcher) Calls() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]searchCall(nil), f.calls...)
}

type fakeEnricher struct {
	details *models.PlaceDetails
	err     error
	names   []string
}

func (f *fakeEnricher) Details(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error) {
	f.names = append(f.names, name)
	return f.details, f.err
}

func newTestService(t *testing.T, searcher *fakeSearcher, enricher Enricher, r float64) *Service {
	t.Helper()
	opts := ServiceOptions{
		Searcher:      searcher,
		Store:         NewMemoryStore(time.Minute),
		Aggregator:    NewAggregator(DefaultCategory, 2),
		Selector:      NewSelector(constRand(r)),
		DefaultRadius: 800,
		Logger:        logger.NewTestLogger(t),
	}
	if enricher != nil {
		opts.Enricher = enricher
	}
	svc, err := NewService(opts)
	require.NoError(t, err)
	return svc
}

func located() geolocation.Locator {
	return geolocation.Fixed(userPos)
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceOptions{Store: NewMemoryStore(time.Minute)})
	assert.Error(t, err)
	_, err = NewService(ServiceOptions{Searcher: &fakeSearcher{}})
	assert.Error(t, err)
}

func commandKinds(cmds []mapview.Command) []mapview.CommandKind {
	kinds := make([]mapview.CommandKind, 0, len(cmds))
	for _, c := range cmds {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func TestService_RouletteEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.PlaceRecord{
		DefaultCategory: places("1", "2", "3", "4", "5", "6"),
	}}
	svc := newTestService(t, searcher, nil, 0.999)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, created.State)

	ready, err := svc.Roulette(ctx, created.ID, Request{Locator: located()})
	require.NoError(t, err)
	assert.Equal(t, StateRouletteReady, ready.State)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, models.CandidateSet(ready.WheelSlots).IDs())

	calls := searcher.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, searchCall{query: DefaultCategory, lat: userPos.Lat, lng: userPos.Lng, radius: 800}, calls[0])

	spinning, err := svc.Spin(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRouletteSpinning, spinning.State)
	assert.Equal(t, 4, spinning.Roulette.WinningIndex)
	assert.Nil(t, spinning.Selection)
	assert.Equal(t, []mapview.CommandKind{mapview.CommandCenter}, commandKinds(spinning.Overlay))

	again, err := svc.Spin(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, spinning.Roulette, again.Roulette)

	result, err := svc.StopSpin(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRouletteResult, result.State)
	require.NotNil(t, result.Selection)
	assert.Equal(t, "5", result.Selection.Place.ID)
	assert.Equal(t, 4, result.Selection.SlotIndex)
	assert.Equal(t, 4, result.Roulette.WinningIndex)

	assert.Equal(t, []mapview.CommandKind{mapview.CommandCenter, mapview.CommandMarker, mapview.CommandPath}, commandKinds(result.Overlay))

	after, err := svc.Spin(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Selection.Place.ID, after.Selection.Place.ID)

	stopped, err := svc.StopSpin(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRouletteResult, stopped.State)

	dismissed, err := svc.Dismiss(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, dismissed.State)
}

func TestService_Direct(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.PlaceRecord{
		"한식": places("1", "2"),
		"중식": places("2", "3"),
	}}
	svc := newTestService(t, searcher, nil, 0.7)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	snap, err := svc.Direct(ctx, created.ID, Request{
		Locator: located(),
		Filters: models.Filters{Categories: []string{"한식", "중식"}, RadiusMeters: 500},
	})
	require.NoError(t, err)
	assert.Equal(t, StateDirectResult, snap.State)
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "3", snap.Selection.Place.ID)
	assert.Equal(t, models.ModeDirect, snap.Selection.Mode)

	for _, c := range searcher.Calls() {
		assert.Equal(t, 500, c.radius)
	}

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Selection.Place.ID, stored.Selection.Place.ID)
}

func TestService_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		mode       models.SelectionMode
		results    []models.PlaceRecord
		searchErr  error
		locator    geolocation.Locator
		wantCode   apperrors.ErrorCode
		wantNotice string
		wantCalls  int
	}{
		{
			name:       "no candidates",
			mode:       models.ModeDirect,
			locator:    located(),
			wantCode:   apperrors.ErrCodeEmptyCandidateSet,
			wantNotice: apperrors.NoticeNoRecommendation,
			wantCalls:  1,
		},
		{
			name:       "too few for the wheel",
			mode:       models.ModeRoulette,
			results:    places("1", "2", "3", "4"),
			locator:    located(),
			wantCode:   apperrors.ErrCodeInsufficientCandidates,
			wantNotice: apperrors.NoticeInsufficientCandidates,
			wantCalls:  1,
		},
		{
			name:       "search failure",
			mode:       models.ModeDirect,
			searchErr:  errors.New("status 500"),
			locator:    located(),
			wantCode:   apperrors.ErrCodeUpstreamSearchFailed,
			wantNotice: apperrors.NoticeUpstreamSearchFailed,
			wantCalls:  1,
		},
		{
			name:       "permission denied",
			mode:       models.ModeRoulette,
			locator:    geolocation.Reported(0, 0, geolocation.CodePermissionDenied),
			wantCode:   apperrors.ErrCodeLocationUnavailable,
			wantNotice: apperrors.NoticeLocationUnavailable,
		},
		{
			name:       "no locator",
			mode:       models.ModeDirect,
			wantCode:   apperrors.ErrCodeLocationUnavailable,
			wantNotice: apperrors.NoticeLocationUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{
				results: map[string][]models.PlaceRecord{DefaultCategory: tt.results},
				err:     tt.searchErr,
			}
			svc := newTestService(t, searcher, nil, 0)
			ctx := context.Background()
			created, err := svc.Create(ctx)
			require.NoError(t, err)

			run := svc.Direct
			if tt.mode == models.ModeRoulette {
				run = svc.Roulette
			}
			snap, err := run(ctx, created.ID, Request{Locator: tt.locator})
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantNotice, stdErr.Notice)
			assert.Equal(t, StateIdle, snap.State)
			assert.Equal(t, tt.wantNotice, snap.Notice)
			assert.Nil(t, snap.Selection)
			assert.Len(t, searcher.Calls(), tt.wantCalls)
		})
	}
}

func TestService_InvalidRadius(t *testing.T) {
	svc := newTestService(t, &fakeSearcher{}, nil, 0)
	ctx := context.Background()
	created, err := svc.Create(ctx)
	require.NoError(t, err)

	for _, radius := range []int{-1, 20001} {
		_, err := svc.Direct(ctx, created.ID, Request{
			Locator: located(),
			Filters: models.Filters{RadiusMeters: radius},
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidRequest), "radius %d", radius)
	}

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stored.Generation)
}

func TestService_UnknownSession(t *testing.T) {
	svc := newTestService(t, &fakeSearcher{}, nil, 0)
	_, err := svc.Direct(context.Background(), "nope", Request{Locator: located()})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_LastRequestWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	searcher := &fakeSearcher{
		results: map[string][]models.PlaceRecord{
			DefaultCategory: places("1", "2", "3", "4", "5"),
		},
		hook: func(n int) {
			if n == 1 {
				close(started)
				<-release
			}
		},
	}
	svc := newTestService(t, searcher, nil, 0)
	ctx := context.Background()
	created, err := svc.Create(ctx)
	require.NoError(t, err)

	type outcome struct {
		snap Snapshot
		err  error
	}
	first := make(chan outcome, 1)
	go func() {
		snap, err := svc.Direct(ctx, created.ID, Request{Locator: located()})
		first <- outcome{snap, err}
	}()

	<-started
	second, err := svc.Roulette(ctx, created.ID, Request{Locator: located()})
	require.NoError(t, err)
	assert.Equal(t, StateRouletteReady, second.State)

	close(release)
	got := <-first
	assert.ErrorIs(t, got.err, ErrSuperseded)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRouletteReady, stored.State)
	assert.Equal(t, models.ModeRoulette, stored.Mode)
	assert.Nil(t, stored.Selection)
}

func TestService_Retry(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]models.PlaceRecord{DefaultCategory: places("1", "2")},
		err:     errors.New("status 503"),
	}
	svc := newTestService(t, searcher, nil, 0)
	ctx := context.Background()
	created, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Direct(ctx, created.ID, Request{Locator: located()})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeUpstreamSearchFailed))

	searcher.setErr(nil)
	snap, err := svc.Retry(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, StateDirectResult, snap.State)
	assert.Empty(t, snap.Notice)
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "1", snap.Selection.Place.ID)

	_, err = svc.Retry(ctx, created.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidSessionState)
}

func TestService_Details(t *testing.T) {
	rating := 4.3
	enricher := &fakeEnricher{details: &models.PlaceDetails{Rating: &rating}}
	searcher := &fakeSearcher{results: map[string][]models.PlaceRecord{DefaultCategory: places("1")}}
	svc := newTestService(t, searcher, enricher, 0)
	ctx := context.Background()
	created, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Details(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidSessionState)

	_, err = svc.Direct(ctx, created.ID, Request{Locator: located()})
	require.NoError(t, err)

	details, err := svc.Details(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, &rating, details.Rating)
	assert.Equal(t, []string{"식당 1"}, enricher.names)

	enricher.err = errors.New("REQUEST_DENIED")
	_, err = svc.Details(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeEnrichmentUnavailable))

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDirectResult, stored.State, "enrichment never changes the session")
}

func TestService_DetailsWithoutProvider(t *testing.T) {
	svc := newTestService(t, &fakeSearcher{}, nil, 0)
	_, err := svc.PlaceDetails(context.Background(), "식당", 36.3, 127.3)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeEnrichmentUnavailable))
}

func TestService_Search(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.PlaceRecord{"카페": places("c1")}}
	svc := newTestService(t, searcher, nil, 0)

	set, err := svc.Search(context.Background(), userPos, models.Filters{Categories: []string{" 카페 "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, set.IDs())
	assert.Equal(t, 800, searcher.Calls()[0].radius)
	assert.Equal(t, "카페", searcher.Calls()[0].query)
}
