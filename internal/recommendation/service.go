package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lunch-roulette/internal/common/config"
	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/metrics"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/mapview"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/providers/geolocation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Searcher is the keyword-search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, lat, lng float64, radius int) ([]models.PlaceRecord, error)
}

// Enricher is the optional place-details collaborator.
type Enricher interface {
	Details(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error)
}

type ServiceOptions struct {
	Searcher      Searcher
	Enricher      Enricher
	Store         Store
	Aggregator    *Aggregator
	Selector      *Selector
	DefaultRadius int
	Logger        logger.Logger
	Observability *observability.Observability
	NewID         func() string
}

// Service runs recommendation sessions on top of a Store.
type Service struct {
	searcher      Searcher
	enricher      Enricher
	store         Store
	aggregator    *Aggregator
	selector      *Selector
	defaultRadius int
	logger        logger.Logger
	obs           *observability.Observability
	newID         func() string
}

// Request is what the caller supplies for a new recommendation.
type Request struct {
	Locator geolocation.Locator
	Filters models.Filters
}

func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Aggregator == nil {
		opts.Aggregator = NewAggregator(DefaultCategory, 4)
	}
	if opts.Selector == nil {
		opts.Selector = NewSelector(nil)
	}
	if opts.DefaultRadius == 0 {
		opts.DefaultRadius = 800
	}
	if opts.Observability == nil {
		opts.Observability = &observability.Observability{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Service{
		searcher:      opts.Searcher,
		enricher:      opts.Enricher,
		store:         opts.Store,
		aggregator:    opts.Aggregator,
		selector:      opts.Selector,
		defaultRadius: opts.DefaultRadius,
		logger:        opts.Logger.WithFields(map[string]interface{}{"component": "recommendation"}),
		obs:           opts.Observability,
		newID:         opts.NewID,
	}, nil
}

// Create starts an idle session.
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	sess := NewSession(s.newID(), s.selector, mapview.NewKakaoOverlay())
	snap := sess.Snapshot()
	if err := s.store.Create(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	s.logger.Debug("session created", map[string]interface{}{"sessionId": snap.ID})
	return snap, nil
}

func (s *Service) Get(ctx context.Context, id string) (Snapshot, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Direct recommends one place picked at random from the nearby candidates.
func (s *Service) Direct(ctx context.Context, id string, req Request) (Snapshot, error) {
	return s.start(ctx, id, models.ModeDirect, req)
}

// Roulette prepares the wheel; Spin picks the winner.
func (s *Service) Roulette(ctx context.Context, id string, req Request) (Snapshot, error) {
	return s.start(ctx, id, models.ModeRoulette, req)
}

// Spin starts the wheel. The winning slot is drawn here and returned in
// Roulette.WinningIndex so the client can animate towards it; nothing is
// committed until StopSpin. Repeated calls return the stored snapshot.
func (s *Service) Spin(ctx context.Context, id string) (Snapshot, error) {
	var out Snapshot
	var drawn bool
	err := s.store.Update(ctx, id, func(snap *Snapshot) error {
		sess := s.restore(*snap)
		before := sess.State()
		if _, err := sess.Spin(); err != nil {
			return err
		}
		drawn = before == StateRouletteReady
		out = sess.Snapshot()
		*snap = out
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	if drawn {
		metrics.RouletteSpins.WithLabelValues(strconv.Itoa(out.Roulette.WinningIndex)).Inc()
		s.logger.Info("roulette spinning", map[string]interface{}{
			"sessionId":    id,
			"winningIndex": out.Roulette.WinningIndex,
		})
	}
	return out, nil
}

// StopSpin commits the drawn slot once the wheel animation has ended and
// places the marker and path. Stopping again returns the committed result.
func (s *Service) StopSpin(ctx context.Context, id string) (Snapshot, error) {
	var out Snapshot
	var committed bool
	err := s.store.Update(ctx, id, func(snap *Snapshot) error {
		sess := s.restore(*snap)
		committed = sess.State() == StateRouletteSpinning
		if _, err := sess.CompleteSpin(); err != nil {
			return err
		}
		out = sess.Snapshot()
		*snap = out
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	if committed {
		s.logger.Info("roulette stopped", map[string]interface{}{
			"sessionId":    id,
			"winningIndex": out.Roulette.WinningIndex,
			"placeId":      out.Selection.Place.ID,
		})
	}
	return out, nil
}

// Retry repeats the last request from Idle. locator is only consulted when
// the session has no known origin; it may be nil otherwise.
func (s *Service) Retry(ctx context.Context, id string, locator geolocation.Locator) (Snapshot, error) {
	var gen uint64
	var begun Snapshot
	err := s.store.Update(ctx, id, func(snap *Snapshot) error {
		sess := s.restore(*snap)
		g, err := sess.Retry()
		if err != nil {
			return err
		}
		gen = g
		begun = sess.Snapshot()
		*snap = begun
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s.run(ctx, begun, gen, locator)
}

// Dismiss closes the current result.
func (s *Service) Dismiss(ctx context.Context, id string) (Snapshot, error) {
	var out Snapshot
	err := s.store.Update(ctx, id, func(snap *Snapshot) error {
		sess := s.restore(*snap)
		if err := sess.Dismiss(); err != nil {
			return err
		}
		out = sess.Snapshot()
		*snap = out
		return nil
	})
	return out, err
}

// Details enriches the session's committed selection. Failures are reported
// as ENRICHMENT_UNAVAILABLE and never change the session.
func (s *Service) Details(ctx context.Context, id string) (*models.PlaceDetails, error) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Selection == nil {
		return nil, fmt.Errorf("no selection to enrich: %w", ErrInvalidSessionState)
	}
	p := snap.Selection.Place
	return s.PlaceDetails(ctx, p.Name, p.Lat, p.Lng)
}

// PlaceDetails looks up enrichment for an arbitrary place.
func (s *Service) PlaceDetails(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error) {
	if s.enricher == nil {
		return nil, apperrors.NewEnrichmentUnavailableError(errors.New("no details provider configured"))
	}

	ctx, span := s.obs.StartSpan(ctx, "recommendation.details")
	defer span.End()

	details, err := s.enricher.Details(ctx, name, lat, lng)
	if err != nil {
		s.logger.Warn("place details unavailable", map[string]interface{}{
			"name":  name,
			"error": err,
		})
		return nil, apperrors.NewEnrichmentUnavailableError(err)
	}
	return details, nil
}

// Search runs the aggregation around origin without touching any session.
func (s *Service) Search(ctx context.Context, origin models.Coordinates, filters models.Filters) (models.CandidateSet, error) {
	filters, err := s.NormalizeFilters(filters)
	if err != nil {
		return nil, err
	}

	ctx, span := s.obs.StartSpan(ctx, "recommendation.aggregate",
		attribute.Int("categories", len(filters.Categories)),
		attribute.Int("radius", filters.RadiusMeters),
	)
	defer span.End()

	set, err := s.aggregator.Aggregate(ctx, filters.Categories, func(ctx context.Context, category string) ([]models.PlaceRecord, error) {
		return s.searcher.Search(ctx, category, origin.Lat, origin.Lng, filters.RadiusMeters)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.CandidateSetSize.Observe(float64(len(set)))
	return set, nil
}

// NormalizeFilters applies the default radius and rejects radii the search
// API would refuse.
func (s *Service) NormalizeFilters(f models.Filters) (models.Filters, error) {
	if f.RadiusMeters == 0 {
		f.RadiusMeters = s.defaultRadius
	}
	if f.RadiusMeters < 1 || f.RadiusMeters > config.MaxRadiusMeters {
		return f, apperrors.NewInvalidRequestError(
			fmt.Sprintf("radius must be within 1..%d, got %d", config.MaxRadiusMeters, f.RadiusMeters))
	}

	cats := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	f.Categories = cats
	return f, nil
}

// Ready reports whether the session store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) start(ctx context.Context, id string, mode models.SelectionMode, req Request) (Snapshot, error) {
	filters, err := s.NormalizeFilters(req.Filters)
	if err != nil {
		return Snapshot{}, err
	}

	var gen uint64
	var begun Snapshot
	err = s.store.Update(ctx, id, func(snap *Snapshot) error {
		sess := s.restore(*snap)
		gen = sess.Begin(mode, filters)
		begun = sess.Snapshot()
		*snap = begun
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s.run(ctx, begun, gen, req.Locator)
}

// run drives a begun request through locating and searching. Each step is
// written back only if the request is still the session's current one.
func (s *Service) run(ctx context.Context, begun Snapshot, gen uint64, locator geolocation.Locator) (Snapshot, error) {
	start := time.Now()
	mode := string(begun.Mode)
	ctx, span := s.obs.StartSpan(ctx, "recommendation."+mode,
		attribute.String("session.id", begun.ID),
		attribute.Int64("session.generation", int64(gen)),
	)
	defer span.End()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	current := begun
	if begun.State == StateLocatingUser {
		pos, locErr := s.locate(ctx, locator)
		snap, err := s.step(ctx, begun.ID, func(sess *Session) error {
			if locErr != nil {
				return sess.LocateFailed(gen, locErr)
			}
			return sess.Located(gen, pos)
		})
		if err != nil {
			return s.finish(begun, snap, outcomeLabel(apperrors.FromDomain(err).Code), err)
		}
		if locErr != nil {
			return s.finish(begun, snap, "location_error", apperrors.NewLocationUnavailableError(locErr.Error()))
		}
		current = snap
	}

	origin := *current.Origin
	set, searchErr := s.Search(ctx, origin, current.Filters)

	var outcome *apperrors.StandardError
	snap, err := s.step(ctx, begun.ID, func(sess *Session) error {
		stdErr, err := sess.Resolve(gen, set, searchErr)
		outcome = stdErr
		return err
	})
	if err != nil {
		return s.finish(begun, snap, outcomeLabel(apperrors.FromDomain(err).Code), err)
	}
	if outcome != nil {
		return s.finish(begun, snap, outcomeLabel(outcome.Code), outcome)
	}
	if snap.State == StateRouletteReady {
		return s.finish(begun, snap, "prepared", nil)
	}
	return s.finish(begun, snap, "selected", nil)
}

func (s *Service) step(ctx context.Context, id string, fn func(*Session) error) (Snapshot, error) {
	var out Snapshot
	err := s.store.Update(ctx, id, func(snap *Snapshot) error {
		sess := s.restore(*snap)
		if err := fn(sess); err != nil {
			return err
		}
		out = sess.Snapshot()
		*snap = out
		return nil
	})
	return out, err
}

func (s *Service) finish(begun, snap Snapshot, outcome string, err error) (Snapshot, error) {
	metrics.RecommendationsTotal.WithLabelValues(string(begun.Mode), outcome).Inc()

	fields := map[string]interface{}{
		"sessionId":  begun.ID,
		"mode":       begun.Mode,
		"generation": begun.Generation,
		"outcome":    outcome,
	}
	if snap.Selection != nil {
		fields["placeId"] = snap.Selection.Place.ID
	}
	if err != nil {
		fields["error"] = err
		s.logger.Warn("recommendation ended without a result", fields)
	} else {
		s.logger.Info("recommendation completed", fields)
	}
	return snap, err
}

func (s *Service) locate(ctx context.Context, locator geolocation.Locator) (models.Coordinates, error) {
	if locator == nil {
		return models.Coordinates{}, geolocation.ErrPositionUnavailable
	}
	return locator.CurrentPosition(ctx)
}

func (s *Service) restore(snap Snapshot) *Session {
	return RestoreSession(snap, s.selector, mapview.NewKakaoOverlay())
}

func outcomeLabel(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.ErrCodeEmptyCandidateSet:
		return "empty"
	case apperrors.ErrCodeInsufficientCandidates:
		return "insufficient"
	case apperrors.ErrCodeUpstreamSearchFailed:
		return "upstream_error"
	case apperrors.ErrCodeLocationUnavailable:
		return "location_error"
	case apperrors.ErrCodeRequestSuperseded:
		return "superseded"
	default:
		return strings.ToLower(string(code))
	}
}
