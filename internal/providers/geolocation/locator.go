// Package geolocation supplies the user's position to a recommendation
// session. Browsers resolve the position themselves and report either
// coordinates or a GeolocationPositionError code.
package geolocation

import (
	"context"
	"fmt"
	"math"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/models"
)

var ErrLocationUnavailable = apperrors.NewSentinel(apperrors.ErrCodeLocationUnavailable)

var (
	ErrPermissionDenied    = fmt.Errorf("permission denied: %w", ErrLocationUnavailable)
	ErrPositionUnavailable = fmt.Errorf("position unavailable: %w", ErrLocationUnavailable)
	ErrTimeout             = fmt.Errorf("timeout: %w", ErrLocationUnavailable)
)

// W3C GeolocationPositionError codes.
const (
	CodeNone                = 0
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// Locator resolves the current position.
type Locator interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (models.Coordinates, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	return f(ctx)
}

// Reported builds a Locator from what the client sent. A non-zero code wins
// over the coordinates.
func Reported(lat, lng float64, code int) Locator {
	return LocatorFunc(func(ctx context.Context) (models.Coordinates, error) {
		if err := ctx.Err(); err != nil {
			return models.Coordinates{}, ErrTimeout
		}
		if err := ErrorForCode(code); err != nil {
			return models.Coordinates{}, err
		}
		if !Valid(lat, lng) {
			return models.Coordinates{}, fmt.Errorf("(%v, %v): %w", lat, lng, ErrPositionUnavailable)
		}
		return models.Coordinates{Lat: lat, Lng: lng}, nil
	})
}

// Fixed always returns the same position.
func Fixed(pos models.Coordinates) Locator {
	return Reported(pos.Lat, pos.Lng, CodeNone)
}

// ErrorForCode maps a GeolocationPositionError code to its error; 0 is nil.
func ErrorForCode(code int) error {
	switch code {
	case CodeNone:
		return nil
	case CodePermissionDenied:
		return ErrPermissionDenied
	case CodeTimeout:
		return ErrTimeout
	default:
		return ErrPositionUnavailable
	}
}

// Valid reports whether lat/lng form a usable WGS84 position.
func Valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
