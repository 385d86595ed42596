package recommendation

import (
	"testing"

	"lunch-roulette/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constRand(v float64) RandFunc {
	return func() float64 { return v }
}

func TestSelector_Direct(t *testing.T) {
	tests := []struct {
		name    string
		rand    float64
		size    int
		wantIdx int
	}{
		{name: "lowest", rand: 0, size: 4, wantIdx: 0},
		{name: "floor", rand: 0.49, size: 4, wantIdx: 1},
		{name: "highest", rand: 0.999, size: 4, wantIdx: 3},
		{name: "out of range source clamps", rand: 1.0, size: 4, wantIdx: 3},
		{name: "negative source clamps", rand: -0.2, size: 4, wantIdx: 0},
		{name: "single candidate", rand: 0.7, size: 1, wantIdx: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := models.CandidateSet(places("a", "b", "c", "d")[:tt.size])
			sel, err := NewSelector(constRand(tt.rand)).Direct(set)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIdx, sel.SlotIndex)
			assert.Equal(t, set[tt.wantIdx], sel.Place)
			assert.Equal(t, models.ModeDirect, sel.Mode)
			assert.False(t, sel.CommittedAt.IsZero())
			assert.Equal(t, set[tt.wantIdx].SearchURL(), sel.SearchURL)
		})
	}
}

func TestSelector_DirectEmpty(t *testing.T) {
	_, err := NewSelector(nil).Direct(nil)
	assert.ErrorIs(t, err, ErrEmptyCandidateSet)
}

func TestSelector_DirectAlwaysFromSet(t *testing.T) {
	set := models.CandidateSet(places("a", "b", "c"))
	s := NewSelector(nil)
	for i := 0; i < 100; i++ {
		sel, err := s.Direct(set)
		require.NoError(t, err)
		assert.Contains(t, set, sel.Place)
	}
}

func TestRoulette_Prepare(t *testing.T) {
	tests := []struct {
		name      string
		set       []models.PlaceRecord
		wantSlots []string
		wantErr   error
	}{
		{name: "takes first five", set: places("1", "2", "3", "4", "5", "6", "7"), wantSlots: []string{"1", "2", "3", "4", "5"}},
		{name: "exactly five", set: places("1", "2", "3", "4", "5"), wantSlots: []string{"1", "2", "3", "4", "5"}},
		{name: "four is insufficient", set: places("1", "2", "3", "4"), wantErr: ErrInsufficientCandidates},
		{name: "empty is insufficient", set: nil, wantErr: ErrInsufficientCandidates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSelector(constRand(0)).NewRoulette()
			slots, err := r.Prepare(tt.set)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, RouletteIdle, r.State())
				assert.Empty(t, r.Slots())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlots, models.CandidateSet(slots).IDs())
			assert.Equal(t, RoulettePrepared, r.State())
		})
	}
}

func TestRoulette_SpinAndCommit(t *testing.T) {
	draws := 0
	r := NewSelector(func() float64 {
		draws++
		return 0.999
	}).NewRoulette()

	_, err := r.Spin()
	assert.ErrorIs(t, err, ErrRouletteNotPrepared)
	assert.Equal(t, -1, r.WinningIndex())

	_, err = r.Prepare(places("1", "2", "3", "4", "5", "6"))
	require.NoError(t, err)

	idx, err := r.Spin()
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	assert.Equal(t, RouletteSpinning, r.State())

	again, err := r.Spin()
	require.NoError(t, err)
	assert.Equal(t, idx, again)
	assert.Equal(t, 1, draws)

	sel, err := r.Commit()
	require.NoError(t, err)
	assert.Equal(t, "5", sel.Place.ID)
	assert.Equal(t, models.ModeRoulette, sel.Mode)
	assert.Equal(t, 4, sel.SlotIndex)
	assert.Equal(t, RouletteCommitted, r.State())

	_, err = r.Spin()
	assert.ErrorIs(t, err, ErrRouletteCommitted)
	_, err = r.Commit()
	assert.ErrorIs(t, err, ErrRouletteCommitted)
}

func TestRoulette_CommitBeforeSpin(t *testing.T) {
	r := NewSelector(constRand(0)).NewRoulette()
	_, err := r.Prepare(places("1", "2", "3", "4", "5"))
	require.NoError(t, err)

	_, err = r.Commit()
	assert.ErrorIs(t, err, ErrRouletteNotSpinning)
}

func TestRoulette_RestoreFromSnapshot(t *testing.T) {
	s := NewSelector(constRand(0.5))
	slots := places("1", "2", "3", "4", "5")

	r := s.restoreRoulette(RouletteSnapshot{State: RouletteSpinning, WinningIndex: 2}, slots)
	assert.Equal(t, RouletteSpinning, r.State())
	sel, err := r.Commit()
	require.NoError(t, err)
	assert.Equal(t, "3", sel.Place.ID)

	broken := s.restoreRoulette(RouletteSnapshot{State: RouletteSpinning, WinningIndex: 9}, slots)
	assert.Equal(t, RoulettePrepared, broken.State())
	assert.Equal(t, -1, broken.WinningIndex())

	noSlots := s.restoreRoulette(RouletteSnapshot{State: RoulettePrepared}, nil)
	assert.Equal(t, RouletteIdle, noSlots.State())
}
