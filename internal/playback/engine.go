package playback

import (
	"math"
	"sync"
	"time"

	"montage/internal/audio"
	"montage/internal/timeline"

	"github.com/sirupsen/logrus"
)

// Mode is the sync loop's driving clock
type Mode int

const (
	// ModeNoMedia means no loop is running
	ModeNoMedia Mode = iota
	// ModeVideoClock means frames advance on a self-timed wall clock; used
	// when the active media has no audio or audio is not playing
	ModeVideoClock
	// ModeAudioClock means the external audio clock is authoritative and
	// video frame selection derives from it
	ModeAudioClock
)

// DefaultTickInterval approximates one display tick at 60 Hz
const DefaultTickInterval = time.Second / 60

// Engine reconciles the polled external audio clock with the displayed video
// frame. While audio plays it polls a Snapshot each tick, commits the frame
// and playhead only when the target frame changed, and handles loop-region
// wraparound. Without audio it falls back to a self-timed frame advance that
// carries the fractional frame remainder across ticks to avoid drift.
//
// Exactly one of the two loops is active; switching tears the other down. A
// failed poll produces no frame update on that tick and the loop retries on
// the next one; no partial frame state is ever committed.
type Engine struct {
	mutex sync.Mutex

	store     *timeline.Store
	audio     audio.Engine
	scheduler *FrameScheduler

	audioLoop *Ticker
	videoLoop *Ticker
	mode      Mode

	fps            float64
	currentFrame   int
	lastFrame      int // last committed frame, the only-update-if-changed guard
	frameRemainder float64

	logger *logrus.Logger
}

// NewEngine creates a playback engine around a timeline store, an audio
// subsystem and a frame render function. audioEngine may be nil for purely
// silent compositions.
func NewEngine(store *timeline.Store, audioEngine audio.Engine, render RenderFunc, fps float64, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		store:     store,
		audio:     audioEngine,
		scheduler: NewFrameScheduler(render, logger),
		audioLoop: NewTicker(DefaultTickInterval),
		videoLoop: NewTicker(DefaultTickInterval),
		mode:      ModeNoMedia,
		fps:       audio.ClampFPS(fps),
		lastFrame: -1,
		logger:    logger,
	}
}

// Play starts playback. With loaded audio the audio clock drives; otherwise
// the self-timed video clock does. Idempotent.
func (e *Engine) Play() {
	if e.audio != nil && e.audio.Loaded() {
		if !e.audio.Play() {
			e.logger.Warn("Audio refused to play, falling back to video clock")
			e.startVideoLoop()
			return
		}
		e.startAudioLoop()
		return
	}
	e.startVideoLoop()
}

// Pause stops whichever loop is active and pauses audio, keeping position.
func (e *Engine) Pause() {
	if e.audio != nil && e.audio.Loaded() {
		e.audio.Pause()
	}
	e.stopLoops()
}

// Stop halts playback and rewinds the playhead and frame to zero
func (e *Engine) Stop() {
	if e.audio != nil {
		e.audio.Stop()
	}
	e.stopLoops()

	e.mutex.Lock()
	e.currentFrame = 0
	e.lastFrame = -1
	e.frameRemainder = 0
	e.mutex.Unlock()

	e.store.SetPlayhead(0)
}

// Seek moves the playhead and, when audio is loaded, the audio position
func (e *Engine) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if e.audio != nil && e.audio.Loaded() {
		e.audio.Seek(t)
	}
	e.store.SetPlayhead(t)

	e.mutex.Lock()
	frame := audio.TargetFrame(t, e.fps)
	e.currentFrame = frame
	e.lastFrame = frame
	e.mutex.Unlock()

	e.scheduler.Request(frame)
}

// SetFPS sets the frame rate for both clocks, clamped to [MinFPS, MaxFPS]
func (e *Engine) SetFPS(fps float64) {
	fps = audio.ClampFPS(fps)
	e.mutex.Lock()
	e.fps = fps
	e.mutex.Unlock()
	if e.audio != nil {
		e.audio.SetFPS(fps)
	}
}

// FPS returns the active frame rate
func (e *Engine) FPS() float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.fps
}

// Mode returns which clock currently drives playback
func (e *Engine) Mode() Mode {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.mode
}

// CurrentFrame returns the last committed frame index
func (e *Engine) CurrentFrame() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentFrame
}

// Scheduler exposes the frame-render admission control
func (e *Engine) Scheduler() *FrameScheduler {
	return e.scheduler
}

func (e *Engine) startAudioLoop() {
	e.videoLoop.Stop()
	e.mutex.Lock()
	e.mode = ModeAudioClock
	e.mutex.Unlock()
	e.audioLoop.Start(func(time.Duration) { e.AudioTick() })
	e.logger.Debug("Audio-clock loop started")
}

func (e *Engine) startVideoLoop() {
	e.audioLoop.Stop()
	e.mutex.Lock()
	e.mode = ModeVideoClock
	e.mutex.Unlock()
	e.videoLoop.Start(e.VideoTick)
	e.logger.Debug("Video-clock loop started")
}

func (e *Engine) stopLoops() {
	e.audioLoop.Stop()
	e.videoLoop.Stop()
	e.mutex.Lock()
	e.mode = ModeNoMedia
	e.mutex.Unlock()
}

// AudioTick is one audio-clock-driven step. Exported so hosts that own their
// own display-tick scheduling can drive it directly instead of the internal
// ticker.
func (e *Engine) AudioTick() {
	snap, err := e.audio.Poll()
	if err != nil {
		// Skip this tick; retry on the next one.
		return
	}

	// Loop wraparound takes priority so a playhead at or past the loop out
	// point is never committed.
	if loop := e.store.LoopRegion(); loop != nil && snap.AudioTime >= loop.Out {
		if e.audio.Seek(loop.In) {
			e.commitFrame(audio.TargetFrame(loop.In, snap.FPS), loop.In)
		}
		return
	}

	e.mutex.Lock()
	changed := snap.TargetFrame != e.lastFrame
	e.mutex.Unlock()
	if changed {
		e.commitFrame(snap.TargetFrame, snap.AudioTime)
	}

	if !snap.IsPlaying {
		e.stopLoops()
	}
}

// VideoTick is one self-timed step: elapsed wall-clock time becomes whole
// frames at the active rate, advancing modulo the total frame count with the
// fractional remainder retained across ticks.
func (e *Engine) VideoTick(elapsed time.Duration) {
	e.mutex.Lock()
	fps := e.fps
	frames := elapsed.Seconds()*fps + e.frameRemainder
	whole := math.Floor(frames)
	e.frameRemainder = frames - whole
	current := e.currentFrame
	e.mutex.Unlock()

	if whole < 1 {
		return
	}
	total := audio.TotalFrames(e.store.GetTimelineDuration(), fps)
	if total <= 0 {
		return
	}

	next := (current + int(whole)) % total
	e.commitFrame(next, float64(next)/fps)
}

// commitFrame atomically records the new frame, moves the playhead and asks
// the scheduler for a render.
func (e *Engine) commitFrame(frame int, playhead float64) {
	e.mutex.Lock()
	e.currentFrame = frame
	e.lastFrame = frame
	e.mutex.Unlock()

	e.store.SetPlayhead(playhead)
	e.scheduler.Request(frame)
}
