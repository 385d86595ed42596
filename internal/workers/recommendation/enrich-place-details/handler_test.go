// internal/workers/recommendation/enrich-place-details/handler_test.go
package enrichplacedetails

import (
	"context"
	"errors"
	"testing"
	"time"

	"lunch-roulette/internal/common/config"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/models"
	"lunch-roulette/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return LoadConfig(config.WorkerConfig{Enabled: true, Timeout: 5000})
}

type enricherFunc func(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error)

func (f enricherFunc) PlaceDetails(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error) {
	return f(ctx, name, lat, lng)
}

func TestHandler_Execute(t *testing.T) {
	rating := 4.1
	found := &models.PlaceDetails{
		Rating: &rating,
		Phone:  "042-123-4567",
		OpeningHours: &models.OpeningHours{WeekdayText: []string{
			"월요일: 11:00~15:00", "화요일: 휴무일", "수요일: 11:00~15:00",
			"목요일: 11:00~15:00", "금요일: 11:00~15:00", "토요일: 12:00~14:00", "일요일: 휴무일",
		}},
	}

	tests := []struct {
		name         string
		details      *models.PlaceDetails
		err          error
		wantEnriched bool
		wantHours    string
	}{
		{name: "found", details: found, wantEnriched: true, wantHours: "휴무일"},
		{name: "lookup failed", err: errors.New("REQUEST_DENIED"), wantHours: models.HoursUnknown},
		{name: "nothing useful", details: &models.PlaceDetails{}, wantHours: models.HoursUnknown},
	}

	reg, err := registry.Default()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enricher := enricherFunc(func(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error) {
				assert.Equal(t, "명동칼국수", name)
				return tt.details, tt.err
			})
			h := NewHandler(createTestConfig(), enricher, reg, logger.NewTestLogger(t), nil)
			// 2024-05-21 is a Tuesday.
			h.now = func() time.Time { return time.Date(2024, 5, 21, 12, 0, 0, 0, time.UTC) }

			out, err := h.execute(context.Background(), &Input{Name: "명동칼국수", Lat: 36.32, Lng: 127.42})
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnriched, out.Enriched)
			assert.Equal(t, tt.wantHours, out.TodayHours)
			if !tt.wantEnriched {
				assert.Nil(t, out.Details)
			}
		})
	}
}
