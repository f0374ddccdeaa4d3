package models

import "time"

// Alert represents a single police-sighting report from the live map.
// The upstream API reports coordinates as x=longitude, y=latitude; that
// naming is kept end to end so persisted batches match the wire format.
type Alert struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	NThumbsUp int     `json:"nThumbsUp"`
	ReportBy  string  `json:"reportBy,omitempty"`
	Street    string  `json:"street,omitempty"`
	Since     int64   `json:"since"`

	// Image is the local path of the fetched map snapshot. It only lives
	// for the duration of one poll cycle and is never persisted.
	Image string `json:"-"`
}

// Latitude returns the alert's latitude (the source's y coordinate).
func (a Alert) Latitude() float64 {
	return a.Y
}

// Longitude returns the alert's longitude (the source's x coordinate).
func (a Alert) Longitude() float64 {
	return a.X
}

// ReportedAt converts the epoch-millisecond report time to time.Time.
func (a Alert) ReportedAt() time.Time {
	return time.UnixMilli(a.Since)
}
