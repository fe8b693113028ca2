package history

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxDepth caps the past stack; the oldest entries are permanently
// discarded once exceeded, bounding memory.
const DefaultMaxDepth = 500

// Command is one reversible action. Apply performs it, Invert reverses it.
// The stack never inspects what a command does, only how to sequence it.
type Command interface {
	Apply()
	Invert()
	Description() string
}

// entry pairs a command with the moment it was executed
type entry struct {
	command   Command
	timestamp time.Time
}

// funcCommand builds a Command from a forward/inverse function pair, for
// call sites that capture their own before/after state.
type funcCommand struct {
	forward     func()
	inverse     func()
	description string
}

func (c *funcCommand) Apply()              { c.forward() }
func (c *funcCommand) Invert()             { c.inverse() }
func (c *funcCommand) Description() string { return c.description }

// NewCommand wraps a forward/inverse function pair as a Command
func NewCommand(description string, forward, inverse func()) Command {
	return &funcCommand{forward: forward, inverse: inverse, description: description}
}

// Stack is a bounded, strictly linear undo/redo history. Any undo followed
// by a new Execute permanently discards the previously-redoable future.
type Stack struct {
	mutex    sync.Mutex
	past     []entry // oldest to newest
	future   []entry // nearest to farthest
	dirty    bool
	maxDepth int
	logger   *logrus.Logger
}

// NewStack creates an undo stack with the given depth cap; zero or negative
// means DefaultMaxDepth.
func NewStack(maxDepth int, logger *logrus.Logger) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Stack{maxDepth: maxDepth, logger: logger}
}

// Execute applies the command, pushes it onto the past and clears the whole
// future. The oldest entry is dropped once the cap is exceeded.
func (s *Stack) Execute(cmd Command) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cmd.Apply()
	s.past = append(s.past, entry{command: cmd, timestamp: time.Now()})
	if len(s.past) > s.maxDepth {
		s.past = s.past[len(s.past)-s.maxDepth:]
	}
	s.future = s.future[:0]
	s.dirty = true

	s.logger.WithField("description", cmd.Description()).Debug("Command executed")
}

// Undo reverses the newest past entry and moves it to the front of the
// future. No-op on an empty past.
func (s *Stack) Undo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.past) == 0 {
		return false
	}
	e := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	e.command.Invert()
	s.future = append([]entry{e}, s.future...)
	s.dirty = true
	return true
}

// Redo re-applies the nearest future entry and moves it back to the past,
// respecting the cap. No-op on an empty future.
func (s *Stack) Redo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.future) == 0 {
		return false
	}
	e := s.future[0]
	s.future = s.future[1:]
	e.command.Apply()
	s.past = append(s.past, e)
	if len(s.past) > s.maxDepth {
		s.past = s.past[len(s.past)-s.maxDepth:]
	}
	s.dirty = true
	return true
}

// Clear empties both stacks and resets the dirty flag
func (s *Stack) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.past = nil
	s.future = nil
	s.dirty = false
}

// ClearDirty resets the dirty flag without touching history. Called after a
// successful project save.
func (s *Stack) ClearDirty() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dirty = false
}

// IsDirty reports whether any command ran since the last Clear/ClearDirty
func (s *Stack) IsDirty() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.dirty
}

// CanUndo reports whether the past stack is non-empty
func (s *Stack) CanUndo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.past) > 0
}

// CanRedo reports whether the future stack is non-empty
func (s *Stack) CanRedo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.future) > 0
}

// UndoDepth returns the number of undoable entries
func (s *Stack) UndoDepth() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.past)
}

// RedoDepth returns the number of redoable entries
func (s *Stack) RedoDepth() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.future)
}

// OldestDescription returns the description of the oldest retained entry,
// or "" when the past is empty.
func (s *Stack) OldestDescription() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.past) == 0 {
		return ""
	}
	return s.past[0].command.Description()
}
