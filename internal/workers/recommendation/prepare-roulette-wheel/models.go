// internal/workers/recommendation/prepare-roulette-wheel/models.go
package prepareroulettewheel

import "lunch-roulette/internal/models"

type Input struct {
	Candidates []models.PlaceRecord `json:"candidates"`
}

type Output struct {
	WheelSlots []models.PlaceRecord `json:"wheelSlots"`
}
