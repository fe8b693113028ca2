package models

import "time"

// Asset represents an imported media file registered in the asset catalog.
// Clips reference assets by ID only; deleting an asset never cascades into
// the timeline.
type Asset struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Kind       string    `json:"kind"` // "video", "audio" or "image"
	Title      string    `json:"title"`
	Duration   float64   `json:"duration"` // seconds, 0 when unknown
	SampleRate int       `json:"sampleRate,omitempty"`
	Channels   int       `json:"channels,omitempty"`
	FileSize   int64     `json:"fileSize"`
	Online     bool      `json:"online"` // false when the backing file is missing
	ImportedAt time.Time `json:"importedAt"`
}
