// internal/workers/recommendation/spin-roulette/models.go
package spinroulette

import "lunch-roulette/internal/models"

type Input struct {
	WheelSlots []models.PlaceRecord `json:"wheelSlots"`
}

type Output struct {
	WinningIndex int              `json:"winningIndex"`
	Selection    models.Selection `json:"selection"`
}
