package models

import "time"

// SelectionMode names the flow that produced a Selection.
type SelectionMode string

const (
	ModeDirect   SelectionMode = "direct"
	ModeRoulette SelectionMode = "roulette"
)

// Valid reports whether m is a known mode.
func (m SelectionMode) Valid() bool {
	return m == ModeDirect || m == ModeRoulette
}

// Selection is the committed pick of one request. It is never modified after
// commit; a new request produces a new Selection.
type Selection struct {
	Place       PlaceRecord   `json:"place"`
	Mode        SelectionMode `json:"mode"`
	SlotIndex   int           `json:"slotIndex"`
	CommittedAt time.Time     `json:"committedAt"`
	SearchURL   string        `json:"searchUrl"`
}
