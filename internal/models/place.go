package models

import (
	"net/url"
	"strings"
)

// naverSearchURL is where the result card links for a web search of the place.
const naverSearchURL = "https://search.naver.com/search.naver"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceRecord represents a candidate venue returned by a keyword search.
// ID is unique within one aggregated candidate set.
type PlaceRecord struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Address        string  `json:"address"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	ExternalURL    string  `json:"externalUrl"`
	Phone          string  `json:"phone,omitempty"`
	DistanceMeters int     `json:"distanceMeters,omitempty"`
}

// Coordinates returns the place's position.
func (p PlaceRecord) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lng: p.Lng}
}

// SearchURL is a Naver web search for the place name and road address.
func (p PlaceRecord) SearchURL() string {
	query := strings.TrimSpace(p.Name + " " + p.Address)
	return naverSearchURL + "?" + url.Values{"query": {query}}.Encode()
}

// CandidateSet is the ordered result of one recommendation request.
type CandidateSet []PlaceRecord

// IDs returns the place ids in order.
func (c CandidateSet) IDs() []string {
	ids := make([]string, len(c))
	for i, p := range c {
		ids[i] = p.ID
	}
	return ids
}

// Filters narrows a search. Empty Categories means the default category;
// a zero RadiusMeters means the configured default radius.
type Filters struct {
	Categories   []string `json:"categories"`
	RadiusMeters int      `json:"radius"`
}
