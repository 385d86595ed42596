package models

import (
	"strings"
	"time"
)

// HoursUnknown is shown when no opening hours are known for today.
const HoursUnknown = "정보 없음"

// PlaceDetails is the optional enrichment for a selected place. Every field
// may be empty.
type PlaceDetails struct {
	Photos       []string      `json:"photos,omitempty"`
	Rating       *float64      `json:"rating,omitempty"`
	OpeningHours *OpeningHours `json:"openingHours,omitempty"`
	Phone        string        `json:"phone,omitempty"`
}

type OpeningHours struct {
	OpenNow     bool     `json:"openNow"`
	WeekdayText []string `json:"weekdayText,omitempty"`
}

// TodayHours returns today's entry of WeekdayText without the day prefix.
// WeekdayText starts on Monday.
func (d *PlaceDetails) TodayHours(now time.Time) string {
	if d == nil || d.OpeningHours == nil {
		return HoursUnknown
	}
	idx := (int(now.Weekday()) + 6) % 7
	if idx >= len(d.OpeningHours.WeekdayText) {
		return HoursUnknown
	}
	entry := d.OpeningHours.WeekdayText[idx]
	if _, hours, found := strings.Cut(entry, ": "); found {
		return hours
	}
	return entry
}

// Empty reports whether the details carry nothing worth showing.
func (d *PlaceDetails) Empty() bool {
	return d == nil || (len(d.Photos) == 0 && d.Rating == nil && d.OpeningHours == nil && d.Phone == "")
}
