package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func waitForIdle(t *testing.T, s *FrameScheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Idle() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler never became idle")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerRendersSequentiallyWhenIdle(t *testing.T) {
	var mutex sync.Mutex
	var rendered []int
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s := NewFrameScheduler(func(frame int) {
		mutex.Lock()
		rendered = append(rendered, frame)
		mutex.Unlock()
	}, logger)

	for frame := 1; frame <= 3; frame++ {
		s.Request(frame)
		waitForIdle(t, s)
	}

	mutex.Lock()
	defer mutex.Unlock()
	if len(rendered) != 3 || rendered[0] != 1 || rendered[1] != 2 || rendered[2] != 3 {
		t.Errorf("rendered = %v, want [1 2 3]", rendered)
	}
	if s.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", s.Dropped())
	}
}

func TestSchedulerCoalescesToLatest(t *testing.T) {
	var mutex sync.Mutex
	var rendered []int
	started := make(chan struct{})
	gate := make(chan struct{})
	first := true
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s := NewFrameScheduler(func(frame int) {
		mutex.Lock()
		blocking := first
		first = false
		mutex.Unlock()
		if blocking {
			close(started)
			<-gate
		}
		mutex.Lock()
		rendered = append(rendered, frame)
		mutex.Unlock()
	}, logger)

	s.Request(1)
	<-started

	// Three requests while frame 1 is still rendering: 2 and 3 are
	// superseded, only 4 survives.
	s.Request(2)
	s.Request(3)
	s.Request(4)
	if got := s.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	close(gate)
	waitForIdle(t, s)

	mutex.Lock()
	defer mutex.Unlock()
	if len(rendered) != 2 || rendered[0] != 1 || rendered[1] != 4 {
		t.Errorf("rendered = %v, want [1 4] (latest wins)", rendered)
	}
}

func TestSchedulerIdleInitially(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	s := NewFrameScheduler(func(int) {}, logger)
	if !s.Idle() {
		t.Error("a fresh scheduler must be idle")
	}
}
