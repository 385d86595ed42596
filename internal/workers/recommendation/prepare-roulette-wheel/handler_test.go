// internal/workers/recommendation/prepare-roulette-wheel/handler_test.go
package prepareroulettewheel

import (
	"context"
	"testing"

	"lunch-roulette/internal/common/config"
	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/recommendation"
	"lunch-roulette/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return LoadConfig(config.WorkerConfig{Enabled: true})
}

func candidates(n int) []models.PlaceRecord {
	out := make([]models.PlaceRecord, n)
	for i := range out {
		out[i] = models.PlaceRecord{ID: string(rune('a' + i)), Name: "place"}
	}
	return out
}

func TestHandler_Execute(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	h := NewHandler(createTestConfig(), recommendation.NewSelector(nil), reg, logger.NewTestLogger(t), nil)

	tests := []struct {
		name      string
		count     int
		wantSlots []string
		wantCode  apperrors.ErrorCode
	}{
		{name: "seven candidates", count: 7, wantSlots: []string{"a", "b", "c", "d", "e"}},
		{name: "exactly five", count: 5, wantSlots: []string{"a", "b", "c", "d", "e"}},
		{name: "four candidates", count: 4, wantCode: apperrors.ErrCodeInsufficientCandidates},
		{name: "none", count: 0, wantCode: apperrors.ErrCodeInsufficientCandidates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.execute(context.Background(), &Input{Candidates: candidates(tt.count)})
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.FromDomain(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlots, models.CandidateSet(out.WheelSlots).IDs())
		})
	}
}
