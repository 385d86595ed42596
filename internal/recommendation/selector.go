package recommendation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/models"
)

// WheelSize is the number of roulette slots and the minimum candidate count
// for a roulette recommendation.
const WheelSize = 5

var (
	ErrEmptyCandidateSet      = apperrors.NewSentinel(apperrors.ErrCodeEmptyCandidateSet)
	ErrInsufficientCandidates = apperrors.NewSentinel(apperrors.ErrCodeInsufficientCandidates)
)

// RandFunc returns a value in [0, 1).
type RandFunc func() float64

// DefaultRand is safe for concurrent use.
func DefaultRand() float64 {
	return rand.Float64()
}

// Selector commits to one place, either directly or through a Roulette.
type Selector struct {
	rand RandFunc
	now  func() time.Time
}

func NewSelector(r RandFunc) *Selector {
	if r == nil {
		r = DefaultRand
	}
	return &Selector{rand: r, now: time.Now}
}

// Direct picks floor(rand*size) from the set.
func (s *Selector) Direct(set models.CandidateSet) (models.Selection, error) {
	if len(set) == 0 {
		return models.Selection{}, ErrEmptyCandidateSet
	}
	idx := drawIndex(s.rand(), len(set))
	return models.Selection{
		Place:       set[idx],
		Mode:        models.ModeDirect,
		SlotIndex:   idx,
		CommittedAt: s.now().UTC(),
		SearchURL:   set[idx].SearchURL(),
	}, nil
}

// NewRoulette returns an idle roulette drawing from the selector's source.
func (s *Selector) NewRoulette() *Roulette {
	return &Roulette{rand: s.rand, now: s.now, state: RouletteIdle, winning: -1}
}

// drawIndex maps r in [0,1) to [0,size). Out-of-range sources are clamped.
func drawIndex(r float64, size int) int {
	idx := int(math.Floor(r * float64(size)))
	if idx >= size {
		idx = size - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func insufficient(size int) error {
	return fmt.Errorf("%w: have %d, need %d", ErrInsufficientCandidates, size, WheelSize)
}
