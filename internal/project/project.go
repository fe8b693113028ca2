// Package project implements the hydrate/serialize contract the timeline
// core exposes to the application shell. The on-disk representation is a
// single JSON document; tracks are an ordered sequence with their clips
// nested in track-local order, markers a flat ordered sequence, and the loop
// region a nullable pair.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"montage/internal/timeline"
	"montage/pkg/models"

	"github.com/google/uuid"
)

// CurrentVersion is the project schema version written on save
const CurrentVersion = "2.0.0"

// Settings holds project-wide parameters the render and audio sides consume
type Settings struct {
	Resolution      [2]int  `json:"resolution"`
	FrameRate       float64 `json:"frameRate"`
	AudioSampleRate int     `json:"audioSampleRate"`
	MasterVolume    float64 `json:"masterVolume"`
	Seed            int64   `json:"seed"`
}

// Timeline is the serialized form of the timeline store
type Timeline struct {
	Duration   float64            `json:"duration"`
	Tracks     []models.Track     `json:"tracks"`
	Markers    []models.Marker    `json:"markers"`
	LoopRegion *models.LoopRegion `json:"loopRegion"`
}

// Project is the root document of a saved composition
type Project struct {
	Version  string                  `json:"version"`
	ID       string                  `json:"id"`
	Created  float64                 `json:"created"`  // unix seconds
	Modified float64                 `json:"modified"` // unix seconds
	Author   string                  `json:"author"`
	Settings Settings                `json:"settings"`
	Assets   map[string]models.Asset `json:"assets"`
	Timeline Timeline                `json:"timeline"`
}

// New creates an empty project with defaults
func New(author string) *Project {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	return &Project{
		Version:  CurrentVersion,
		ID:       uuid.New().String(),
		Created:  now,
		Modified: now,
		Author:   author,
		Settings: Settings{
			Resolution:      [2]int{1920, 1080},
			FrameRate:       30,
			AudioSampleRate: 48000,
			MasterVolume:    1.0,
			Seed:            0,
		},
		Assets: map[string]models.Asset{},
		Timeline: Timeline{
			Tracks:  []models.Track{},
			Markers: []models.Marker{},
		},
	}
}

// Validate checks the document's required shape, returning every problem found
func (p *Project) Validate() []string {
	var errs []string
	if p.Version == "" {
		errs = append(errs, "'version' must be a non-empty string")
	}
	if p.ID == "" {
		errs = append(errs, "'id' must be a non-empty string")
	}
	if p.Settings.FrameRate <= 0 {
		errs = append(errs, "'settings.frameRate' must be positive")
	}
	if p.Settings.AudioSampleRate <= 0 {
		errs = append(errs, "'settings.audioSampleRate' must be positive")
	}
	if p.Settings.Resolution[0] <= 0 || p.Settings.Resolution[1] <= 0 {
		errs = append(errs, "'settings.resolution' must be positive")
	}
	if p.Settings.MasterVolume < 0 || p.Settings.MasterVolume > 1 {
		errs = append(errs, "'settings.masterVolume' must be within [0, 1]")
	}
	return errs
}

// Serialize encodes the project to JSON, refreshing the modified timestamp.
func (p *Project) Serialize() ([]byte, error) {
	p.Modified = float64(time.Now().UnixNano()) / float64(time.Second)
	return json.MarshalIndent(p, "", "  ")
}

// Deserialize decodes and validates a project document
func Deserialize(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid project JSON: %w", err)
	}
	if errs := p.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid project: %s", errs[0])
	}
	return &p, nil
}

// Capture reads the timeline store verbatim into the project document
func (p *Project) Capture(store *timeline.Store) {
	p.Timeline = Timeline{
		Duration:   store.Duration(),
		Tracks:     store.Tracks(),
		Markers:    store.Markers(),
		LoopRegion: store.LoopRegion(),
	}
}

// Hydrate resets the store, then replays tracks (with nested clips),
// markers, loop region and duration — in that order, per the contract.
func (p *Project) Hydrate(store *timeline.Store) {
	store.Hydrate(p.Timeline.Tracks, p.Timeline.Markers, p.Timeline.LoopRegion, p.Timeline.Duration)
}

// SaveFile captures the store and writes the project document to disk
func SaveFile(path string, p *Project, store *timeline.Store) error {
	p.Capture(store)
	data, err := p.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// LoadFile reads a project document and hydrates the store from it
func LoadFile(path string, store *timeline.Store) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	p, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	p.Hydrate(store)
	return p, nil
}
