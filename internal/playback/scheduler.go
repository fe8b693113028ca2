package playback

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// RenderFunc asks the external video frame provider for a frame by index.
// It may block; the scheduler never assumes how long it takes.
type RenderFunc func(frame int)

// FrameScheduler applies admission control to frame-render requests: at most
// one render is in flight, a request arriving mid-flight is coalesced, and
// once the in-flight render completes the most recently requested frame
// wins. Intermediate superseded requests are silently dropped.
type FrameScheduler struct {
	mutex      sync.Mutex
	render     RenderFunc
	inFlight   bool
	hasPending bool
	pending    int
	dropped    int64
	logger     *logrus.Logger
}

// NewFrameScheduler creates a scheduler around the given render function
func NewFrameScheduler(render RenderFunc, logger *logrus.Logger) *FrameScheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &FrameScheduler{render: render, logger: logger}
}

// Request asks for a frame to be rendered. Safe to call on every tick.
func (s *FrameScheduler) Request(frame int) {
	s.mutex.Lock()
	if s.inFlight {
		if s.hasPending {
			s.dropped++
		}
		s.pending = frame
		s.hasPending = true
		s.mutex.Unlock()
		return
	}
	s.inFlight = true
	s.mutex.Unlock()

	go s.run(frame)
}

func (s *FrameScheduler) run(frame int) {
	for {
		s.render(frame)

		s.mutex.Lock()
		if !s.hasPending {
			s.inFlight = false
			s.mutex.Unlock()
			return
		}
		frame = s.pending
		s.hasPending = false
		s.mutex.Unlock()
	}
}

// Dropped returns how many superseded requests were discarded
func (s *FrameScheduler) Dropped() int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.dropped
}

// Idle reports whether no render is in flight or pending
func (s *FrameScheduler) Idle() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return !s.inFlight && !s.hasPending
}
