// Package mapview describes what a recommendation draws on the user's map.
package mapview

import "lunch-roulette/internal/models"

// Surface is the map capability a session draws on.
type Surface interface {
	Center(p models.Coordinates)
	PlaceMarker(p models.Coordinates)
	DrawPath(from, to models.Coordinates)
	// Clear removes the marker and path; the centre is kept.
	Clear()
}

type CommandKind string

const (
	CommandCenter CommandKind = "center"
	CommandMarker CommandKind = "marker"
	CommandPath   CommandKind = "path"
)

// PathStyle is passed through to kakao.maps.Polyline.
type PathStyle struct {
	StrokeColor   string  `json:"strokeColor"`
	StrokeWeight  int     `json:"strokeWeight"`
	StrokeOpacity float64 `json:"strokeOpacity"`
}

// DefaultPathStyle is the blue walking route.
var DefaultPathStyle = PathStyle{
	StrokeColor:   "#007BFF",
	StrokeWeight:  5,
	StrokeOpacity: 0.8,
}

// Command is one drawing instruction replayed by the browser.
type Command struct {
	Kind     CommandKind          `json:"kind"`
	Position *models.Coordinates  `json:"position,omitempty"`
	Path     []models.Coordinates `json:"path,omitempty"`
	Style    *PathStyle           `json:"style,omitempty"`
}
