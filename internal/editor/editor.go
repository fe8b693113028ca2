// Package editor builds undoable editing operations: each call site captures
// the state a reversal needs, wraps the forward/inverse pair as a history
// command and executes it through the stack. Operations the store rejects
// (drag overshoot, stale IDs) are reported as false and never enter history,
// so undo never replays a no-op.
package editor

import (
	"fmt"

	"montage/internal/history"
	"montage/internal/timeline"
	"montage/pkg/models"

	"github.com/google/uuid"
)

// Editor pairs a timeline store with an undo stack
type Editor struct {
	store *timeline.Store
	stack *history.Stack
}

// New creates an editor around a store and undo stack
func New(store *timeline.Store, stack *history.Stack) *Editor {
	return &Editor{store: store, stack: stack}
}

// AddTrack appends a track undoably and returns its ID. The track value is
// built once so a redo recreates the identical track.
func (e *Editor) AddTrack(kind models.TrackKind, name, color string) string {
	track := models.Track{
		ID:        uuid.New().String(),
		Kind:      kind,
		Name:      name,
		Color:     color,
		Opacity:   1.0,
		BlendMode: "normal",
		Clips:     []models.Clip{},
	}
	index := -1
	e.stack.Execute(history.NewCommand(
		fmt.Sprintf("Add track %q", name),
		func() {
			if index < 0 {
				index = len(e.store.Tracks())
			}
			e.store.InsertTrack(track, index)
		},
		func() { e.store.RemoveTrack(track.ID) },
	))
	return track.ID
}

// RemoveTrack removes a track undoably. Returns false for a stale ID.
func (e *Editor) RemoveTrack(id string) bool {
	track, ok := e.store.GetTrack(id)
	if !ok {
		return false
	}
	index := e.store.TrackIndex(id)
	e.stack.Execute(history.NewCommand(
		fmt.Sprintf("Remove track %q", track.Name),
		func() { e.store.RemoveTrack(id) },
		func() { e.store.InsertTrack(track, index) },
	))
	return true
}

// ReorderTrack relocates a track in z-order undoably
func (e *Editor) ReorderTrack(from, to int) bool {
	n := len(e.store.Tracks())
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	e.stack.Execute(history.NewCommand(
		"Reorder track",
		func() { e.store.ReorderTrack(from, to) },
		func() { e.store.ReorderTrack(to, from) },
	))
	return true
}

// AddClip appends a clip to a track undoably and returns the clip ID
func (e *Editor) AddClip(trackID string, clip models.Clip) (string, bool) {
	if _, ok := e.store.GetTrack(trackID); !ok {
		return "", false
	}
	if clip.ID == "" {
		clip.ID = uuid.New().String()
	}
	clip.TrackID = trackID
	e.stack.Execute(history.NewCommand(
		"Add clip",
		func() { e.store.AddClip(trackID, clip) },
		func() { e.store.RemoveClip(clip.ID) },
	))
	return clip.ID, true
}

// RemoveClip removes a clip undoably. The inverse re-inserts it at its
// original index so track-local clip order survives the round trip.
func (e *Editor) RemoveClip(id string) bool {
	clip, ok := e.store.GetClip(id)
	if !ok {
		return false
	}
	index := e.store.ClipIndex(id)
	e.stack.Execute(history.NewCommand(
		"Remove clip",
		func() { e.store.RemoveClip(id) },
		func() { e.store.InsertClip(clip.TrackID, clip, index) },
	))
	return true
}

// MoveClip relocates a clip undoably, possibly across tracks
func (e *Editor) MoveClip(id, newTrackID string, newPosition float64) bool {
	before, ok := e.store.GetClip(id)
	if !ok {
		return false
	}
	if _, ok := e.store.GetTrack(newTrackID); !ok {
		return false
	}
	index := e.store.ClipIndex(id)
	e.stack.Execute(history.NewCommand(
		"Move clip",
		func() { e.store.MoveClip(id, newTrackID, newPosition) },
		func() { e.store.RestoreClip(before, index) },
	))
	return true
}

// TrimClipIn trims a clip's in point undoably. The store's rejection rules
// apply before anything enters history.
func (e *Editor) TrimClipIn(id string, newIn float64) bool {
	before, ok := e.store.GetClip(id)
	if !ok {
		return false
	}
	if newIn < 0 || newIn >= before.OutPoint {
		return false
	}
	index := e.store.ClipIndex(id)
	e.stack.Execute(history.NewCommand(
		"Trim clip in",
		func() { e.store.TrimClipIn(id, newIn) },
		func() { e.store.RestoreClip(before, index) },
	))
	return true
}

// TrimClipOut trims a clip's out point undoably
func (e *Editor) TrimClipOut(id string, newOut float64) bool {
	before, ok := e.store.GetClip(id)
	if !ok {
		return false
	}
	if newOut <= before.InPoint {
		return false
	}
	index := e.store.ClipIndex(id)
	e.stack.Execute(history.NewCommand(
		"Trim clip out",
		func() { e.store.TrimClipOut(id, newOut) },
		func() { e.store.RestoreClip(before, index) },
	))
	return true
}

// SplitClip splits a clip undoably, returning the right half's ID. Redo
// reuses the same right-half ID so the post-redo state matches pre-undo.
func (e *Editor) SplitClip(id string, time float64) (string, bool) {
	before, ok := e.store.GetClip(id)
	if !ok {
		return "", false
	}
	if time <= before.Position || time >= before.End() {
		return "", false
	}
	index := e.store.ClipIndex(id)
	rightID := uuid.New().String()
	e.stack.Execute(history.NewCommand(
		"Split clip",
		func() { e.store.SplitClipAs(id, time, rightID) },
		func() {
			e.store.RemoveClip(rightID)
			e.store.RestoreClip(before, index)
		},
	))
	return rightID, true
}

// SetClipSpeed changes a clip's playback rate undoably
func (e *Editor) SetClipSpeed(id string, speed float64) bool {
	before, ok := e.store.GetClip(id)
	if !ok {
		return false
	}
	e.stack.Execute(history.NewCommand(
		"Set clip speed",
		func() { e.store.SetClipSpeed(id, speed) },
		func() { e.store.SetClipSpeed(id, before.Speed) },
	))
	return true
}

// AddMarker adds a marker undoably and returns its ID
func (e *Editor) AddMarker(time float64, label, color string) string {
	marker := models.Marker{
		ID:    uuid.New().String(),
		Time:  time,
		Label: label,
		Color: color,
	}
	e.stack.Execute(history.NewCommand(
		fmt.Sprintf("Add marker %q", label),
		func() { e.store.RestoreMarker(marker) },
		func() { e.store.RemoveMarker(marker.ID) },
	))
	return marker.ID
}

// RemoveMarker removes a marker undoably
func (e *Editor) RemoveMarker(id string) bool {
	var captured models.Marker
	found := false
	for _, m := range e.store.Markers() {
		if m.ID == id {
			captured = m
			found = true
			break
		}
	}
	if !found {
		return false
	}
	e.stack.Execute(history.NewCommand(
		"Remove marker",
		func() { e.store.RemoveMarker(id) },
		func() { e.store.RestoreMarker(captured) },
	))
	return true
}

// SetLoopRegion stores the loop pair undoably
func (e *Editor) SetLoopRegion(in, out float64) {
	before := e.store.LoopRegion()
	e.stack.Execute(history.NewCommand(
		"Set loop region",
		func() { e.store.SetLoopRegion(in, out) },
		func() { e.restoreLoop(before) },
	))
}

// ClearLoopRegion clears the loop pair undoably
func (e *Editor) ClearLoopRegion() {
	before := e.store.LoopRegion()
	e.stack.Execute(history.NewCommand(
		"Clear loop region",
		func() { e.store.ClearLoopRegion() },
		func() { e.restoreLoop(before) },
	))
}

func (e *Editor) restoreLoop(region *models.LoopRegion) {
	if region == nil {
		e.store.ClearLoopRegion()
		return
	}
	e.store.SetLoopRegion(region.In, region.Out)
}
