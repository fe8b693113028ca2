package timeline

import (
	"sync"

	"montage/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Zoom and scroll clamping bounds, in pixels per second / pixels.
const (
	MinZoom = 10.0
	MaxZoom = 200.0
)

// MinClipSpeed is the lowest playback rate a clip can be set to.
const MinClipSpeed = 0.1

// Store owns the temporal data model: tracks, clips, markers, loop region,
// playhead, zoom and scroll. Every editing operation is synchronous and
// invariant-preserving: invalid input leaves state unchanged and is reported
// as "did nothing" via the returned bool, never as an error. Callers are UI
// handlers firing on every drag tick and cannot handle an error per tick.
//
// The store is safe for concurrent use; the playback engine reads it from
// its tick goroutine while edits run on the caller's goroutine.
type Store struct {
	mutex sync.RWMutex

	tracks     []models.Track
	markers    []models.Marker
	loopRegion *models.LoopRegion

	duration float64 // cached max clip end, recalculated after structural edits
	playhead float64
	zoom     float64 // pixels per second
	scrollX  float64 // pixels

	selectedTrackID string
	selectedClipID  string

	logger *logrus.Logger
}

// NewStore creates an empty timeline store
func NewStore(logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		zoom:   100,
		logger: logger,
	}
}

// AddTrack appends a new track with defaults and returns its ID.
func (s *Store) AddTrack(kind models.TrackKind, name, color string) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	track := models.Track{
		ID:        uuid.New().String(),
		Kind:      kind,
		Name:      name,
		Color:     color,
		Opacity:   1.0,
		BlendMode: "normal",
		Clips:     []models.Clip{},
	}
	s.tracks = append(s.tracks, track)

	s.logger.WithFields(logrus.Fields{
		"trackId": track.ID,
		"kind":    kind,
		"name":    name,
	}).Debug("Track added")

	return track.ID
}

// InsertTrack places a fully-formed track at the given index. Used by undo
// inverses and project hydration; index is clamped into range.
func (s *Store) InsertTrack(track models.Track, index int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if index < 0 {
		index = 0
	}
	if index > len(s.tracks) {
		index = len(s.tracks)
	}
	s.tracks = append(s.tracks, models.Track{})
	copy(s.tracks[index+1:], s.tracks[index:])
	s.tracks[index] = track
	s.recalculateDuration()
}

// RemoveTrack removes a track by ID, clearing any selection referencing it
// or one of its clips. Returns false if no such track exists.
func (s *Store) RemoveTrack(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, track := range s.tracks {
		if track.ID != id {
			continue
		}
		if s.selectedTrackID == id {
			s.selectedTrackID = ""
		}
		for _, clip := range track.Clips {
			if s.selectedClipID == clip.ID {
				s.selectedClipID = ""
			}
		}
		s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
		s.recalculateDuration()

		s.logger.WithField("trackId", id).Debug("Track removed")
		return true
	}
	return false
}

// ReorderTrack relocates the track at index from to index to, affecting
// composite z-order. Out-of-range indices are a no-op.
func (s *Store) ReorderTrack(from, to int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if from < 0 || from >= len(s.tracks) || to < 0 || to >= len(s.tracks) {
		return false
	}
	if from == to {
		return true
	}
	track := s.tracks[from]
	s.tracks = append(s.tracks[:from], s.tracks[from+1:]...)
	s.tracks = append(s.tracks, models.Track{})
	copy(s.tracks[to+1:], s.tracks[to:])
	s.tracks[to] = track
	return true
}

// AddClip appends a clip to the given track, forcing the clip's TrackID to
// match. Returns false if the track does not exist.
func (s *Store) AddClip(trackID string, clip models.Clip) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.tracks {
		if s.tracks[i].ID != trackID {
			continue
		}
		clip.TrackID = trackID
		if clip.ID == "" {
			clip.ID = uuid.New().String()
		}
		s.tracks[i].Clips = append(s.tracks[i].Clips, clip)
		s.recalculateDuration()

		s.logger.WithFields(logrus.Fields{
			"clipId":   clip.ID,
			"trackId":  trackID,
			"position": clip.Position,
			"duration": clip.Duration,
		}).Debug("Clip added")
		return true
	}
	return false
}

// InsertClip places a fully-formed clip at the given index in a track's clip
// list. Used by undo inverses to restore track-local clip order; index is
// clamped into range. Returns false if the track does not exist.
func (s *Store) InsertClip(trackID string, clip models.Clip, index int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.tracks {
		if s.tracks[i].ID != trackID {
			continue
		}
		clip.TrackID = trackID
		s.tracks[i].Clips = insertClipAt(s.tracks[i].Clips, clip, index)
		s.recalculateDuration()
		return true
	}
	return false
}

// RemoveClip removes a clip wherever it is found, clearing a matching
// selection. Returns false if no such clip exists.
func (s *Store) RemoveClip(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for ti := range s.tracks {
		for ci, clip := range s.tracks[ti].Clips {
			if clip.ID != id {
				continue
			}
			if s.selectedClipID == id {
				s.selectedClipID = ""
			}
			s.tracks[ti].Clips = append(s.tracks[ti].Clips[:ci], s.tracks[ti].Clips[ci+1:]...)
			s.recalculateDuration()
			return true
		}
	}
	return false
}

// MoveClip relocates a clip, possibly across tracks, to a new position.
// No-op if the clip or the destination track is missing.
func (s *Store) MoveClip(id, newTrackID string, newPosition float64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	destIndex := -1
	for i := range s.tracks {
		if s.tracks[i].ID == newTrackID {
			destIndex = i
			break
		}
	}
	if destIndex < 0 {
		return false
	}

	for ti := range s.tracks {
		for ci, clip := range s.tracks[ti].Clips {
			if clip.ID != id {
				continue
			}
			s.tracks[ti].Clips = append(s.tracks[ti].Clips[:ci], s.tracks[ti].Clips[ci+1:]...)
			clip.TrackID = newTrackID
			clip.Position = newPosition
			s.tracks[destIndex].Clips = append(s.tracks[destIndex].Clips, clip)
			s.recalculateDuration()
			return true
		}
	}
	return false
}

// TrimClipIn moves a clip's in point, keeping its right edge fixed. The
// position shifts and the duration shrinks/grows by the same delta. Rejected
// when newIn is negative or would not leave inPoint < outPoint.
func (s *Store) TrimClipIn(id string, newIn float64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clip := s.findClip(id)
	if clip == nil {
		return false
	}
	if newIn < 0 || newIn >= clip.OutPoint {
		return false
	}
	delta := newIn - clip.InPoint
	clip.InPoint = newIn
	clip.Position += delta
	clip.Duration -= delta
	s.recalculateDuration()
	return true
}

// TrimClipOut moves a clip's out point, keeping its left edge fixed.
// Rejected when newOut would not leave inPoint < outPoint.
func (s *Store) TrimClipOut(id string, newOut float64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clip := s.findClip(id)
	if clip == nil {
		return false
	}
	if newOut <= clip.InPoint {
		return false
	}
	clip.OutPoint = newOut
	clip.Duration = newOut - clip.InPoint
	s.recalculateDuration()
	return true
}

// SplitClip splits a clip at an on-track time strictly inside it, replacing
// it with two clips contiguous in both track time and source time. The left
// half keeps the original ID; the right half gets a fresh one, whose ID is
// returned. Splitting at or outside the clip's edges is a no-op.
func (s *Store) SplitClip(id string, time float64) (string, bool) {
	return s.SplitClipAs(id, time, uuid.New().String())
}

// SplitClipAs is SplitClip with a caller-chosen ID for the right half, so a
// redone split reproduces the exact pre-undo state.
func (s *Store) SplitClipAs(id string, time float64, rightID string) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for ti := range s.tracks {
		for ci := range s.tracks[ti].Clips {
			clip := &s.tracks[ti].Clips[ci]
			if clip.ID != id {
				continue
			}
			if time <= clip.Position || time >= clip.End() {
				return "", false
			}

			offset := time - clip.Position
			splitSource := clip.InPoint + offset*clip.Speed

			right := models.Clip{
				ID:       rightID,
				AssetID:  clip.AssetID,
				TrackID:  clip.TrackID,
				Position: time,
				Duration: clip.Duration - offset,
				InPoint:  splitSource,
				OutPoint: clip.OutPoint,
				Speed:    clip.Speed,
			}

			clip.Duration = offset
			clip.OutPoint = splitSource

			clips := s.tracks[ti].Clips
			clips = append(clips, models.Clip{})
			copy(clips[ci+2:], clips[ci+1:])
			clips[ci+1] = right
			s.tracks[ti].Clips = clips
			s.recalculateDuration()

			s.logger.WithFields(logrus.Fields{
				"clipId":  id,
				"newId":   right.ID,
				"splitAt": time,
			}).Debug("Clip split")
			return right.ID, true
		}
	}
	return "", false
}

// RestoreClip overwrites the clip matching the given clip's ID with the
// given field values exactly, placing it at the given index of the clip's
// recorded track. Undo inverses use it to put captured state — including
// track-local clip order — back without re-running edit arithmetic.
func (s *Store) RestoreClip(clip models.Clip, index int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	destIndex := -1
	for i := range s.tracks {
		if s.tracks[i].ID == clip.TrackID {
			destIndex = i
			break
		}
	}
	if destIndex < 0 {
		return false
	}
	for ti := range s.tracks {
		for ci := range s.tracks[ti].Clips {
			if s.tracks[ti].Clips[ci].ID != clip.ID {
				continue
			}
			s.tracks[ti].Clips = append(s.tracks[ti].Clips[:ci], s.tracks[ti].Clips[ci+1:]...)
			s.tracks[destIndex].Clips = insertClipAt(s.tracks[destIndex].Clips, clip, index)
			s.recalculateDuration()
			return true
		}
	}
	return false
}

// SetClipSpeed sets a clip's playback rate, clamped to MinClipSpeed. The
// clip's duration is deliberately left untouched; it is only recomputed by
// structural edits.
func (s *Store) SetClipSpeed(id string, speed float64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clip := s.findClip(id)
	if clip == nil {
		return false
	}
	if speed < MinClipSpeed {
		speed = MinClipSpeed
	}
	clip.Speed = speed
	return true
}

// SetLoopRegion stores the loop in/out pair verbatim. Validity (in < out) is
// the caller's responsibility.
func (s *Store) SetLoopRegion(in, out float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.loopRegion = &models.LoopRegion{In: in, Out: out}
}

// ClearLoopRegion removes the loop region
func (s *Store) ClearLoopRegion() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.loopRegion = nil
}

// LoopRegion returns a copy of the active loop region, or nil
func (s *Store) LoopRegion() *models.LoopRegion {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.loopRegion == nil {
		return nil
	}
	region := *s.loopRegion
	return &region
}

// SetPlayhead moves the time cursor driving preview
func (s *Store) SetPlayhead(t float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if t < 0 {
		t = 0
	}
	s.playhead = t
}

// Playhead returns the current time cursor
func (s *Store) Playhead() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.playhead
}

// SetZoom sets the horizontal zoom in pixels per second, clamped to [MinZoom, MaxZoom].
func (s *Store) SetZoom(pixelsPerSecond float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if pixelsPerSecond < MinZoom {
		pixelsPerSecond = MinZoom
	}
	if pixelsPerSecond > MaxZoom {
		pixelsPerSecond = MaxZoom
	}
	s.zoom = pixelsPerSecond
}

// Zoom returns the current zoom in pixels per second
func (s *Store) Zoom() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.zoom
}

// SetScrollX sets the horizontal scroll offset in pixels, clamped to >= 0.
func (s *Store) SetScrollX(px float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if px < 0 {
		px = 0
	}
	s.scrollX = px
}

// ScrollX returns the current horizontal scroll offset in pixels
func (s *Store) ScrollX() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.scrollX
}

// SelectTrack marks a track as selected; empty string clears the selection.
func (s *Store) SelectTrack(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.selectedTrackID = id
}

// SelectClip marks a clip as selected; empty string clears the selection.
func (s *Store) SelectClip(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.selectedClipID = id
}

// Selection returns the currently selected track and clip IDs (either may be empty)
func (s *Store) Selection() (trackID, clipID string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.selectedTrackID, s.selectedClipID
}

// ActiveClipAt is a (track, clip) pair active at a given timeline time
type ActiveClipAt struct {
	Track models.Track
	Clip  models.Clip
}

// GetActiveClipsAtTime returns all (track, clip) pairs whose half-open
// interval [position, position+duration) contains t, in track order.
func (s *Store) GetActiveClipsAtTime(t float64) []ActiveClipAt {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var active []ActiveClipAt
	for _, track := range s.tracks {
		for _, clip := range track.Clips {
			if clip.Contains(t) {
				active = append(active, ActiveClipAt{Track: copyTrack(track), Clip: clip})
			}
		}
	}
	return active
}

// GetTimelineDuration recomputes the timeline duration from scratch without
// mutating the cached field.
func (s *Store) GetTimelineDuration() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	max := 0.0
	for _, track := range s.tracks {
		for _, clip := range track.Clips {
			if end := clip.End(); end > max {
				max = end
			}
		}
	}
	return max
}

// Duration returns the cached timeline duration
func (s *Store) Duration() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.duration
}

// Tracks returns a deep copy of the ordered track list
func (s *Store) Tracks() []models.Track {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return copyTracks(s.tracks)
}

// TrackIndex returns the z-order index of a track, or -1
func (s *Store) TrackIndex(id string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for i, track := range s.tracks {
		if track.ID == id {
			return i
		}
	}
	return -1
}

// GetTrack returns a copy of a track by ID
func (s *Store) GetTrack(id string) (models.Track, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, track := range s.tracks {
		if track.ID == id {
			return copyTrack(track), true
		}
	}
	return models.Track{}, false
}

// ClipIndex returns a clip's index within its track's clip list, or -1
func (s *Store) ClipIndex(id string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, track := range s.tracks {
		for i, clip := range track.Clips {
			if clip.ID == id {
				return i
			}
		}
	}
	return -1
}

// GetClip returns a copy of a clip by ID
func (s *Store) GetClip(id string) (models.Clip, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, track := range s.tracks {
		for _, clip := range track.Clips {
			if clip.ID == id {
				return clip, true
			}
		}
	}
	return models.Clip{}, false
}

// AddMarker adds an annotation marker and returns its ID
func (s *Store) AddMarker(time float64, label, color string) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	marker := models.Marker{
		ID:    uuid.New().String(),
		Time:  time,
		Label: label,
		Color: color,
	}
	s.markers = append(s.markers, marker)
	return marker.ID
}

// RestoreMarker re-adds a previously removed marker verbatim (undo path)
func (s *Store) RestoreMarker(marker models.Marker) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.markers = append(s.markers, marker)
}

// RemoveMarker removes a marker by ID and returns it for undo capture.
func (s *Store) RemoveMarker(id string) (models.Marker, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, marker := range s.markers {
		if marker.ID == id {
			s.markers = append(s.markers[:i], s.markers[i+1:]...)
			return marker, true
		}
	}
	return models.Marker{}, false
}

// Markers returns a copy of the marker list
func (s *Store) Markers() []models.Marker {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	markers := make([]models.Marker, len(s.markers))
	copy(markers, s.markers)
	return markers
}

// Reset clears every field back to a fresh store. Project hydration calls
// this before replaying tracks, markers, loop region and duration.
func (s *Store) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tracks = nil
	s.markers = nil
	s.loopRegion = nil
	s.duration = 0
	s.playhead = 0
	s.zoom = 100
	s.scrollX = 0
	s.selectedTrackID = ""
	s.selectedClipID = ""
}

// Hydrate replays a serialized timeline in contract order: tracks (with
// their nested clips), markers, loop region, then the cached duration.
func (s *Store) Hydrate(tracks []models.Track, markers []models.Marker, loop *models.LoopRegion, duration float64) {
	s.Reset()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tracks = copyTracks(tracks)
	s.markers = make([]models.Marker, len(markers))
	copy(s.markers, markers)
	if loop != nil {
		region := *loop
		s.loopRegion = &region
	}
	s.duration = duration
}

// findClip locates a clip by ID. Caller must hold the lock.
func (s *Store) findClip(id string) *models.Clip {
	for ti := range s.tracks {
		for ci := range s.tracks[ti].Clips {
			if s.tracks[ti].Clips[ci].ID == id {
				return &s.tracks[ti].Clips[ci]
			}
		}
	}
	return nil
}

// recalculateDuration refreshes the cached duration. Caller must hold the lock.
func (s *Store) recalculateDuration() {
	max := 0.0
	for _, track := range s.tracks {
		for _, clip := range track.Clips {
			if end := clip.End(); end > max {
				max = end
			}
		}
	}
	s.duration = max
}

// insertClipAt inserts a clip at an index clamped into range
func insertClipAt(clips []models.Clip, clip models.Clip, index int) []models.Clip {
	if index < 0 {
		index = 0
	}
	if index > len(clips) {
		index = len(clips)
	}
	clips = append(clips, models.Clip{})
	copy(clips[index+1:], clips[index:])
	clips[index] = clip
	return clips
}

func copyTrack(track models.Track) models.Track {
	clips := make([]models.Clip, len(track.Clips))
	copy(clips, track.Clips)
	track.Clips = clips
	return track
}

func copyTracks(tracks []models.Track) []models.Track {
	out := make([]models.Track, len(tracks))
	for i, track := range tracks {
		out[i] = copyTrack(track)
	}
	return out
}
