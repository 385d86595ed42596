// internal/workers/recommendation/search-nearby-places/models.go
package searchnearbyplaces

import "lunch-roulette/internal/models"

type Input struct {
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Categories []string `json:"categories,omitempty"`
	Radius     int      `json:"radius,omitempty"`
}

type Output struct {
	Candidates     models.CandidateSet `json:"candidates"`
	CandidateCount int                 `json:"candidateCount"`
}
