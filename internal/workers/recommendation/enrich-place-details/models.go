// internal/workers/recommendation/enrich-place-details/models.go
package enrichplacedetails

import "lunch-roulette/internal/models"

type Input struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Output always completes the job; Enriched is false when nothing was found.
type Output struct {
	Details    *models.PlaceDetails `json:"details"`
	Enriched   bool                 `json:"enriched"`
	TodayHours string               `json:"todayHours"`
}
