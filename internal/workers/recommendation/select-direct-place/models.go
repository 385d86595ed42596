// internal/workers/recommendation/select-direct-place/models.go
package selectdirectplace

import "lunch-roulette/internal/models"

type Input struct {
	Candidates []models.PlaceRecord `json:"candidates"`
}

type Output struct {
	Selection models.Selection `json:"selection"`
}
