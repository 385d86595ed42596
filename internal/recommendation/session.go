package recommendation

import (
	"fmt"
	"time"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/mapview"
	"lunch-roulette/internal/models"
)

// State of a recommendation session.
//
//	Idle -> LocatingUser -> Searching -> DirectResult -> Idle
//	                                  -> RouletteReady -> RouletteSpinning -> RouletteResult -> Idle
type State string

const (
	StateIdle             State = "idle"
	StateLocatingUser     State = "locating_user"
	StateSearching        State = "searching"
	StateDirectResult     State = "direct_result"
	StateRouletteReady    State = "roulette_ready"
	StateRouletteSpinning State = "roulette_spinning"
	StateRouletteResult   State = "roulette_result"
)

var (
	ErrSuperseded          = apperrors.NewSentinel(apperrors.ErrCodeRequestSuperseded)
	ErrInvalidSessionState = apperrors.NewSentinel(apperrors.ErrCodeInvalidSessionState)
)

// Snapshot is the serialisable state of a session.
type Snapshot struct {
	ID         string               `json:"id"`
	State      State                `json:"state"`
	Mode       models.SelectionMode `json:"mode,omitempty"`
	Filters    models.Filters       `json:"filters"`
	Origin     *models.Coordinates  `json:"origin,omitempty"`
	WheelSlots []models.PlaceRecord `json:"wheelSlots,omitempty"`
	Roulette   RouletteSnapshot     `json:"roulette"`
	Selection  *models.Selection    `json:"selection,omitempty"`
	Notice     string               `json:"notice,omitempty"`
	ErrorCode  apperrors.ErrorCode  `json:"errorCode,omitempty"`
	Generation uint64               `json:"generation"`
	Overlay    []mapview.Command    `json:"overlay,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// overlayRecorder is implemented by surfaces whose drawing can be persisted.
type overlayRecorder interface {
	Commands() []mapview.Command
	Restore(cmds []mapview.Command)
}

// Session binds one user's request to the aggregator output, the selector
// and the map. Requests carry the generation returned by Begin or Retry; a
// step whose generation is no longer current fails with ErrSuperseded.
type Session struct {
	snap     Snapshot
	selector *Selector
	roulette *Roulette
	surface  mapview.Surface
	now      func() time.Time
}

func NewSession(id string, selector *Selector, surface mapview.Surface) *Session {
	now := time.Now().UTC()
	return RestoreSession(Snapshot{
		ID:        id,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}, selector, surface)
}

// RestoreSession rebuilds a session from a stored snapshot.
func RestoreSession(snap Snapshot, selector *Selector, surface mapview.Surface) *Session {
	if snap.State == "" {
		snap.State = StateIdle
	}
	if rec, ok := surface.(overlayRecorder); ok {
		rec.Restore(snap.Overlay)
	}
	return &Session{
		snap:     snap,
		selector: selector,
		roulette: selector.restoreRoulette(snap.Roulette, snap.WheelSlots),
		surface:  surface,
		now:      time.Now,
	}
}

// Snapshot returns a copy of the current state including the map overlay.
func (s *Session) Snapshot() Snapshot {
	out := s.snap
	out.Roulette = s.roulette.Snapshot()
	if rec, ok := s.surface.(overlayRecorder); ok {
		out.Overlay = rec.Commands()
	}
	return out
}

func (s *Session) ID() string { return s.snap.ID }

func (s *Session) State() State { return s.snap.State }

func (s *Session) Generation() uint64 { return s.snap.Generation }

func (s *Session) Filters() models.Filters { return s.snap.Filters }

func (s *Session) Origin() (models.Coordinates, bool) {
	if s.snap.Origin == nil {
		return models.Coordinates{}, false
	}
	return *s.snap.Origin, true
}

func (s *Session) Selection() (models.Selection, bool) {
	if s.snap.Selection == nil {
		return models.Selection{}, false
	}
	return *s.snap.Selection, true
}

// Begin starts a new request. Whatever was in flight is superseded and the
// previous marker and path are cleared before anything else happens.
func (s *Session) Begin(mode models.SelectionMode, filters models.Filters) uint64 {
	s.surface.Clear()
	s.snap.Generation++
	s.snap.Mode = mode
	s.snap.Filters = filters
	s.snap.WheelSlots = nil
	s.snap.Selection = nil
	s.snap.Notice = ""
	s.snap.ErrorCode = ""
	s.roulette = s.selector.NewRoulette()
	s.setState(StateLocatingUser)
	return s.snap.Generation
}

// Retry repeats the last request from Idle with the same mode and filters.
// It skips LocatingUser when the origin is already known.
func (s *Session) Retry() (uint64, error) {
	if s.snap.State != StateIdle || !s.snap.Mode.Valid() {
		return 0, fmt.Errorf("retry from %s: %w", s.snap.State, ErrInvalidSessionState)
	}
	origin := s.snap.Origin
	gen := s.Begin(s.snap.Mode, s.snap.Filters)
	if origin != nil {
		s.snap.Origin = origin
		s.surface.Center(*origin)
		s.setState(StateSearching)
	}
	return gen, nil
}

// Located records the user's position and moves on to Searching.
func (s *Session) Located(gen uint64, pos models.Coordinates) error {
	if err := s.expect(gen, StateLocatingUser); err != nil {
		return err
	}
	s.snap.Origin = &pos
	s.surface.Center(pos)
	s.setState(StateSearching)
	return nil
}

// LocateFailed returns to Idle with the location notice. There is no retry
// beyond an explicit Retry.
func (s *Session) LocateFailed(gen uint64, cause error) error {
	if err := s.expect(gen, StateLocatingUser); err != nil {
		return err
	}
	s.snap.Origin = nil
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	s.fail(apperrors.NewLocationUnavailableError(details))
	return nil
}

// Resolve applies the search outcome. It returns the user-facing error for
// empty, insufficient or failed searches after moving to Idle; the session
// itself is still consistent in that case.
func (s *Session) Resolve(gen uint64, set models.CandidateSet, searchErr error) (*apperrors.StandardError, error) {
	if err := s.expect(gen, StateSearching); err != nil {
		return nil, err
	}

	if searchErr != nil {
		stdErr := apperrors.FromDomain(searchErr).WithNotice(apperrors.NoticeUpstreamSearchFailed)
		s.fail(stdErr)
		return stdErr, nil
	}

	switch s.snap.Mode {
	case models.ModeRoulette:
		slots, err := s.roulette.Prepare(set)
		if err != nil {
			stdErr := apperrors.FromDomain(err).WithNotice(apperrors.NoticeInsufficientCandidates)
			s.fail(stdErr)
			return stdErr, nil
		}
		s.snap.WheelSlots = slots
		s.setState(StateRouletteReady)
		return nil, nil

	default:
		sel, err := s.selector.Direct(set)
		if err != nil {
			stdErr := apperrors.FromDomain(err).WithNotice(apperrors.NoticeNoRecommendation)
			s.fail(stdErr)
			return stdErr, nil
		}
		s.commit(sel, StateDirectResult)
		return nil, nil
	}
}

// Spin draws the winning wheel slot. Spinning again while the wheel turns
// or after it stopped is a no-op returning the same index.
func (s *Session) Spin() (int, error) {
	switch s.snap.State {
	case StateRouletteReady, StateRouletteSpinning:
	case StateRouletteResult:
		return s.roulette.WinningIndex(), nil
	default:
		return -1, ErrRouletteNotPrepared
	}

	idx, err := s.roulette.Spin()
	if err != nil {
		return idx, err
	}
	s.setState(StateRouletteSpinning)
	return idx, nil
}

// CompleteSpin commits the drawn slot once the wheel has stopped. Calling it
// again returns the committed selection.
func (s *Session) CompleteSpin() (models.Selection, error) {
	switch s.snap.State {
	case StateRouletteSpinning:
	case StateRouletteResult:
		if s.snap.Selection != nil {
			return *s.snap.Selection, nil
		}
		return models.Selection{}, ErrRouletteCommitted
	default:
		return models.Selection{}, fmt.Errorf("stop from %s: %w", s.snap.State, ErrRouletteNotSpinning)
	}

	sel, err := s.roulette.Commit()
	if err != nil {
		return models.Selection{}, err
	}
	s.commit(sel, StateRouletteResult)
	return sel, nil
}

// Dismiss closes the result (or an unspun wheel) and returns to Idle. The
// selection stays visible until the next request.
func (s *Session) Dismiss() error {
	switch s.snap.State {
	case StateDirectResult, StateRouletteResult, StateRouletteReady:
		s.setState(StateIdle)
		return nil
	default:
		return fmt.Errorf("dismiss from %s: %w", s.snap.State, ErrInvalidSessionState)
	}
}

func (s *Session) commit(sel models.Selection, state State) {
	s.snap.Selection = &sel
	place := sel.Place.Coordinates()
	s.surface.PlaceMarker(place)
	if s.snap.Origin != nil {
		s.surface.DrawPath(*s.snap.Origin, place)
	}
	s.setState(state)
}

func (s *Session) fail(stdErr *apperrors.StandardError) {
	s.snap.Notice = stdErr.Notice
	s.snap.ErrorCode = stdErr.Code
	s.setState(StateIdle)
}

func (s *Session) expect(gen uint64, state State) error {
	if gen != s.snap.Generation {
		return fmt.Errorf("generation %d, current %d: %w", gen, s.snap.Generation, ErrSuperseded)
	}
	if s.snap.State != state {
		return fmt.Errorf("expected %s, in %s: %w", state, s.snap.State, ErrInvalidSessionState)
	}
	return nil
}

func (s *Session) setState(state State) {
	s.snap.State = state
	s.snap.UpdatedAt = s.now().UTC()
}
