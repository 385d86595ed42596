package kakao

import (
	"fmt"
	"strconv"

	"lunch-roulette/internal/models"
)

type searchResponse struct {
	Documents []document `json:"documents"`
	Meta      struct {
		TotalCount    int  `json:"total_count"`
		PageableCount int  `json:"pageable_count"`
		IsEnd         bool `json:"is_end"`
	} `json:"meta"`
}

// document mirrors one entry of the keyword search response. Coordinates
// and distance arrive as strings.
type document struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	CategoryName    string `json:"category_name"`
	Phone           string `json:"phone"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
	PlaceURL        string `json:"place_url"`
	Distance        string `json:"distance"`
}

func (d document) toPlace() (models.PlaceRecord, error) {
	lat, err := strconv.ParseFloat(d.Y, 64)
	if err != nil {
		return models.PlaceRecord{}, fmt.Errorf("parse y %q: %w", d.Y, err)
	}
	lng, err := strconv.ParseFloat(d.X, 64)
	if err != nil {
		return models.PlaceRecord{}, fmt.Errorf("parse x %q: %w", d.X, err)
	}

	address := d.RoadAddressName
	if address == "" {
		address = d.AddressName
	}

	distance, _ := strconv.Atoi(d.Distance)

	return models.PlaceRecord{
		ID:             d.ID,
		Name:           d.PlaceName,
		Category:       d.CategoryName,
		Address:        address,
		Lat:            lat,
		Lng:            lng,
		ExternalURL:    d.PlaceURL,
		Phone:          d.Phone,
		DistanceMeters: distance,
	}, nil
}
