package recommendation

import (
	"fmt"
	"time"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/models"
)

type RouletteState string

const (
	RouletteIdle      RouletteState = "idle"
	RoulettePrepared  RouletteState = "prepared"
	RouletteSpinning  RouletteState = "spinning"
	RouletteCommitted RouletteState = "committed"
)

var (
	ErrRouletteNotPrepared = fmt.Errorf("roulette not prepared: %w", apperrors.NewSentinel(apperrors.ErrCodeInvalidSessionState))
	ErrRouletteCommitted   = fmt.Errorf("roulette already committed: %w", apperrors.NewSentinel(apperrors.ErrCodeInvalidSessionState))
	ErrRouletteNotSpinning = fmt.Errorf("roulette not spinning: %w", apperrors.NewSentinel(apperrors.ErrCodeInvalidSessionState))
)

// Roulette is the two-phase pick: Prepare fixes the wheel slots, Spin draws
// the winner once, Commit turns it into a Selection.
//
//	Idle -> Prepared -> Spinning -> Committed
type Roulette struct {
	rand    RandFunc
	now     func() time.Time
	state   RouletteState
	slots   []models.PlaceRecord
	winning int
}

// RouletteSnapshot is the persisted part of a Roulette; the slots live on
// the session.
type RouletteSnapshot struct {
	State        RouletteState `json:"state"`
	WinningIndex int           `json:"winningIndex"`
}

// Prepare takes the first WheelSize candidates as slots. It may be called in
// any state and discards a previous wheel.
func (r *Roulette) Prepare(set models.CandidateSet) ([]models.PlaceRecord, error) {
	r.state = RouletteIdle
	r.slots = nil
	r.winning = -1

	if len(set) == 0 {
		return nil, fmt.Errorf("%w: %w", insufficient(0), ErrEmptyCandidateSet)
	}
	if len(set) < WheelSize {
		return nil, insufficient(len(set))
	}

	r.slots = append([]models.PlaceRecord(nil), set[:WheelSize]...)
	r.state = RoulettePrepared
	return r.Slots(), nil
}

// Spin draws the winning slot. A second Spin before Commit returns the same
// index without drawing again.
func (r *Roulette) Spin() (int, error) {
	switch r.state {
	case RoulettePrepared:
		r.winning = drawIndex(r.rand(), len(r.slots))
		r.state = RouletteSpinning
		return r.winning, nil
	case RouletteSpinning:
		return r.winning, nil
	case RouletteCommitted:
		return r.winning, ErrRouletteCommitted
	default:
		return -1, ErrRouletteNotPrepared
	}
}

// Commit fixes the drawn slot as the Selection.
func (r *Roulette) Commit() (models.Selection, error) {
	switch r.state {
	case RouletteSpinning:
	case RouletteCommitted:
		return models.Selection{}, ErrRouletteCommitted
	default:
		return models.Selection{}, ErrRouletteNotSpinning
	}

	r.state = RouletteCommitted
	return models.Selection{
		Place:       r.slots[r.winning],
		Mode:        models.ModeRoulette,
		SlotIndex:   r.winning,
		CommittedAt: r.now().UTC(),
		SearchURL:   r.slots[r.winning].SearchURL(),
	}, nil
}

func (r *Roulette) State() RouletteState { return r.state }

// WinningIndex is -1 until Spin.
func (r *Roulette) WinningIndex() int { return r.winning }

func (r *Roulette) Slots() []models.PlaceRecord {
	return append([]models.PlaceRecord(nil), r.slots...)
}

func (r *Roulette) Snapshot() RouletteSnapshot {
	return RouletteSnapshot{State: r.state, WinningIndex: r.winning}
}

// restoreRoulette rebuilds a roulette from its snapshot and the session's slots.
func (s *Selector) restoreRoulette(snap RouletteSnapshot, slots []models.PlaceRecord) *Roulette {
	r := s.NewRoulette()
	if snap.State == "" || snap.State == RouletteIdle || len(slots) != WheelSize {
		return r
	}
	r.state = snap.State
	r.slots = append([]models.PlaceRecord(nil), slots...)
	r.winning = snap.WinningIndex
	if r.state != RoulettePrepared && (r.winning < 0 || r.winning >= WheelSize) {
		r.state = RoulettePrepared
		r.winning = -1
	}
	return r
}
