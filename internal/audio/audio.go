package audio

import "math"

// Frame rate clamping bounds for the derived video clock
const (
	MinFPS = 1.0
	MaxFPS = 240.0
)

// LoadInfo describes a successfully loaded audio source
type LoadInfo struct {
	Duration   float64 `json:"duration"` // seconds
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	NumSamples int64   `json:"numSamples"`
}

// Snapshot is one poll of the audio clock: everything the sync loop needs to
// derive the video frame to display. Audio is the master clock; video frame
// selection is computed from it and never the other way around.
type Snapshot struct {
	AudioTime   float64 `json:"audioTime"` // seconds
	TargetFrame int     `json:"targetFrame"`
	TotalFrames int     `json:"totalFrames"`
	IsPlaying   bool    `json:"isPlaying"`
	Duration    float64 `json:"duration"` // seconds
	FPS         float64 `json:"fps"`
	Volume      float64 `json:"volume"`
}

// Engine is the audio subsystem consumed by the playback sync loop. A failed
// Load or Poll must leave no partial state behind; the loop treats a Poll
// failure as "skip this tick".
type Engine interface {
	Load(path string) (LoadInfo, error)
	Play() bool
	Pause() bool
	Stop()
	Seek(timeSeconds float64) bool
	SetVolume(volume float64)
	SetFPS(fps float64)
	Loaded() bool
	Poll() (Snapshot, error)
	Close() error
}

// ClampFPS clamps a frame rate into [MinFPS, MaxFPS]
func ClampFPS(fps float64) float64 {
	return math.Max(MinFPS, math.Min(MaxFPS, fps))
}

// TargetFrame derives the video frame index for an audio time. Video is
// always at or behind audio: floor(audioTime * fps).
func TargetFrame(audioTime, fps float64) int {
	return int(math.Floor(audioTime * fps))
}

// TotalFrames derives the total video frame count from the audio duration:
// ceil(duration * fps).
func TotalFrames(duration, fps float64) int {
	return int(math.Ceil(duration * fps))
}
