package editor

import (
	"reflect"
	"testing"

	"montage/internal/history"
	"montage/internal/timeline"
	"montage/pkg/models"

	"github.com/sirupsen/logrus"
)

func newTestEditor() (*Editor, *timeline.Store, *history.Stack) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	store := timeline.NewStore(logger)
	stack := history.NewStack(0, logger)
	return New(store, stack), store, stack
}

// snapshot captures every piece of observable timeline state the editor can
// touch, for before/after comparison across undo/redo cycles.
type snapshot struct {
	tracks   []models.Track
	markers  []models.Marker
	loop     *models.LoopRegion
	duration float64
}

func takeSnapshot(s *timeline.Store) snapshot {
	return snapshot{
		tracks:   s.Tracks(),
		markers:  s.Markers(),
		loop:     s.LoopRegion(),
		duration: s.Duration(),
	}
}

func requireEqualState(t *testing.T, want, got snapshot, context string) {
	t.Helper()
	if !reflect.DeepEqual(want.tracks, got.tracks) {
		t.Errorf("%s: tracks diverged\nwant %+v\ngot  %+v", context, want.tracks, got.tracks)
	}
	if !reflect.DeepEqual(want.markers, got.markers) {
		t.Errorf("%s: markers diverged", context)
	}
	if !reflect.DeepEqual(want.loop, got.loop) {
		t.Errorf("%s: loop region diverged: want %+v, got %+v", context, want.loop, got.loop)
	}
	if want.duration != got.duration {
		t.Errorf("%s: duration %v, want %v", context, got.duration, want.duration)
	}
}

func TestUndoRedoRoundTripRestoresState(t *testing.T) {
	edit, store, stack := newTestEditor()

	// A realistic editing session touching every undoable operation.
	initial := takeSnapshot(store)

	videoTrack := edit.AddTrack(models.TrackKindVideo, "V1", "#4488ff")
	audioTrack := edit.AddTrack(models.TrackKindAudio, "A1", "#44ff88")
	clipID, ok := edit.AddClip(videoTrack, models.Clip{
		AssetID: "asset-1", Position: 2, Duration: 8, InPoint: 0, OutPoint: 8, Speed: 1,
	})
	if !ok {
		t.Fatal("AddClip should succeed")
	}
	if _, ok := edit.SplitClip(clipID, 6); !ok {
		t.Fatal("SplitClip should succeed")
	}
	if !edit.TrimClipIn(clipID, 1) {
		t.Fatal("TrimClipIn should succeed")
	}
	if !edit.MoveClip(clipID, audioTrack, 20) {
		t.Fatal("MoveClip should succeed")
	}
	if !edit.SetClipSpeed(clipID, 2) {
		t.Fatal("SetClipSpeed should succeed")
	}
	edit.AddMarker(4, "chorus", "#ffffff")
	edit.SetLoopRegion(2, 10)
	if !edit.ReorderTrack(0, 1) {
		t.Fatal("ReorderTrack should succeed")
	}

	final := takeSnapshot(store)
	depth := stack.UndoDepth()
	if depth != 10 {
		t.Fatalf("undo depth = %d, want 10", depth)
	}

	// Full unwind must restore the empty initial state.
	for i := 0; i < depth; i++ {
		if !stack.Undo() {
			t.Fatalf("undo %d should succeed", i+1)
		}
	}
	requireEqualState(t, initial, takeSnapshot(store), "after full undo")

	// Full replay must restore the final state exactly, IDs included.
	for i := 0; i < depth; i++ {
		if !stack.Redo() {
			t.Fatalf("redo %d should succeed", i+1)
		}
	}
	requireEqualState(t, final, takeSnapshot(store), "after full redo")
}

func TestRedoReproducesIdenticalIDs(t *testing.T) {
	edit, store, stack := newTestEditor()

	trackID := edit.AddTrack(models.TrackKindVideo, "V1", "")
	clipID, _ := edit.AddClip(trackID, models.Clip{
		AssetID: "asset-1", Position: 0, Duration: 10, OutPoint: 10, Speed: 1,
	})
	rightID, ok := edit.SplitClip(clipID, 4)
	if !ok {
		t.Fatal("SplitClip should succeed")
	}

	stack.Undo() // un-split
	stack.Redo() // re-split

	if _, ok := store.GetClip(rightID); !ok {
		t.Error("redo must recreate the right half with its original id")
	}
	left, _ := store.GetClip(clipID)
	if left.Duration != 4 {
		t.Errorf("left duration = %v after redo, want 4", left.Duration)
	}
}

func TestRejectedOperationsRecordNothing(t *testing.T) {
	edit, _, stack := newTestEditor()

	trackID := edit.AddTrack(models.TrackKindVideo, "V1", "")
	clipID, _ := edit.AddClip(trackID, models.Clip{
		AssetID: "asset-1", Position: 5, Duration: 4, InPoint: 1, OutPoint: 5, Speed: 1,
	})
	before := stack.UndoDepth()

	if edit.TrimClipIn(clipID, -1) {
		t.Error("negative trim must be rejected")
	}
	if edit.TrimClipOut(clipID, 0.5) {
		t.Error("trim below in point must be rejected")
	}
	if _, ok := edit.SplitClip(clipID, 5); ok {
		t.Error("boundary split must be rejected")
	}
	if edit.RemoveClip("missing") {
		t.Error("removing a missing clip must be rejected")
	}
	if edit.RemoveTrack("missing") {
		t.Error("removing a missing track must be rejected")
	}
	if edit.ReorderTrack(0, 5) {
		t.Error("out-of-range reorder must be rejected")
	}
	if edit.RemoveMarker("missing") {
		t.Error("removing a missing marker must be rejected")
	}

	if got := stack.UndoDepth(); got != before {
		t.Errorf("undo depth = %d, want unchanged %d; rejections must not record history", got, before)
	}
}

func TestRemoveTrackUndoRestoresIndexAndClips(t *testing.T) {
	edit, store, stack := newTestEditor()

	edit.AddTrack(models.TrackKindVideo, "A", "")
	middle := edit.AddTrack(models.TrackKindVideo, "B", "")
	edit.AddTrack(models.TrackKindVideo, "C", "")
	edit.AddClip(middle, models.Clip{AssetID: "asset-1", Position: 0, Duration: 5, OutPoint: 5, Speed: 1})

	if !edit.RemoveTrack(middle) {
		t.Fatal("RemoveTrack should succeed")
	}
	stack.Undo()

	tracks := store.Tracks()
	if len(tracks) != 3 || tracks[1].ID != middle {
		t.Fatal("undo must reinsert the track at its original index")
	}
	if len(tracks[1].Clips) != 1 {
		t.Error("undo must restore the track's clips")
	}
}

func TestRemoveClipUndoRestoresClipOrder(t *testing.T) {
	edit, store, stack := newTestEditor()
	trackID := edit.AddTrack(models.TrackKindVideo, "V1", "")
	first, _ := edit.AddClip(trackID, models.Clip{AssetID: "a", Position: 0, Duration: 4, OutPoint: 4, Speed: 1})
	second, _ := edit.AddClip(trackID, models.Clip{AssetID: "a", Position: 5, Duration: 4, OutPoint: 4, Speed: 1})

	before := store.Tracks()
	if !edit.RemoveClip(first) {
		t.Fatal("RemoveClip should succeed")
	}
	stack.Undo()

	after := store.Tracks()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("tracks diverged after undo\nwant %+v\ngot  %+v", before, after)
	}
	clips := after[0].Clips
	if clips[0].ID != first || clips[1].ID != second {
		t.Errorf("clip order = [%s %s], want the removed clip back at index 0", clips[0].ID, clips[1].ID)
	}
}

func TestMoveClipUndoRestoresClipOrder(t *testing.T) {
	edit, store, stack := newTestEditor()
	trackA := edit.AddTrack(models.TrackKindVideo, "A", "")
	trackB := edit.AddTrack(models.TrackKindVideo, "B", "")
	first, _ := edit.AddClip(trackA, models.Clip{AssetID: "a", Position: 0, Duration: 4, OutPoint: 4, Speed: 1})
	edit.AddClip(trackA, models.Clip{AssetID: "a", Position: 5, Duration: 4, OutPoint: 4, Speed: 1})

	before := store.Tracks()
	if !edit.MoveClip(first, trackB, 10) {
		t.Fatal("MoveClip should succeed")
	}
	stack.Undo()

	after := store.Tracks()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("tracks diverged after undo\nwant %+v\ngot  %+v", before, after)
	}
	if after[0].Clips[0].ID != first {
		t.Errorf("moved clip returned at index %d, want 0", store.ClipIndex(first))
	}
}

func TestLoopRegionUndo(t *testing.T) {
	edit, store, stack := newTestEditor()

	edit.SetLoopRegion(2, 8)
	edit.SetLoopRegion(4, 12)
	edit.ClearLoopRegion()

	stack.Undo()
	if region := store.LoopRegion(); region == nil || region.In != 4 || region.Out != 12 {
		t.Fatalf("loop after undoing clear = %+v, want {4 12}", region)
	}

	stack.Undo()
	if region := store.LoopRegion(); region == nil || region.In != 2 || region.Out != 8 {
		t.Fatalf("loop after second undo = %+v, want {2 8}", region)
	}

	stack.Undo()
	if store.LoopRegion() != nil {
		t.Fatal("loop after third undo should be nil")
	}
}

func TestMarkerUndoRedo(t *testing.T) {
	edit, store, stack := newTestEditor()

	markerID := edit.AddMarker(3.5, "verse", "#ff00ff")
	if !edit.RemoveMarker(markerID) {
		t.Fatal("RemoveMarker should succeed")
	}

	stack.Undo()
	markers := store.Markers()
	if len(markers) != 1 || markers[0].ID != markerID || markers[0].Label != "verse" {
		t.Fatalf("markers after undo = %+v, want the removed marker back verbatim", markers)
	}

	stack.Undo()
	if len(store.Markers()) != 0 {
		t.Error("undoing the add must remove the marker")
	}

	stack.Redo()
	if len(store.Markers()) != 1 || store.Markers()[0].ID != markerID {
		t.Error("redo must recreate the marker with its original id")
	}
}
