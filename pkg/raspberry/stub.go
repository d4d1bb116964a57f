package raspberry

import (
	"sync"

	"blinds/pkg/port"

	"github.com/womat/debug"
)

// Write is one recorded call to Stub.Write.
type Write struct {
	Line  int
	Value port.StateType
}

// Stub keeps line levels in memory. It never sleeps, so timing in tests
// depends only on the caller.
type Stub struct {
	mu     sync.Mutex
	modes  map[int]port.Mode
	values map[int]port.StateType
	trace  []Write
	// WriteError, if set, is returned by Write for any line in FailLines.
	WriteError error
	FailLines  map[int]bool
	closed     bool
}

var _ GPIO = &Stub{}

// NewStub returns a Stub with all lines low.
func NewStub() *Stub {
	return &Stub{
		modes:  map[int]port.Mode{},
		values: map[int]port.StateType{},
	}
}

func (s *Stub) Open(line int, mode port.Mode) error {
	debug.TraceLog.Printf("stub gpio: open(%d, %v)", line, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[line] = mode
	return nil
}

func (s *Stub) Write(line int, value port.StateType) error {
	debug.TraceLog.Printf("stub gpio: write(%d, %v)", line, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteError != nil && s.FailLines[line] {
		return fault("write", line, s.WriteError)
	}
	s.values[line] = value
	s.trace = append(s.trace, Write{Line: line, Value: value})
	return nil
}

func (s *Stub) Read(line int) (port.StateType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[line], nil
}

// Mode returns the mode the line was opened in.
func (s *Stub) Mode(line int) (port.Mode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modes[line]
	return m, ok
}

// Trace returns all successful writes in call order.
func (s *Stub) Trace() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.trace...)
}

// ResetTrace forgets the recorded writes but keeps the line levels.
func (s *Stub) ResetTrace() {
	s.mu.Lock()
	s.trace = nil
	s.mu.Unlock()
}

// Closed reports whether Close was called.
func (s *Stub) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stub) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
