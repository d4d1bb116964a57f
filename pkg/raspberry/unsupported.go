//go:build !linux

package raspberry

import (
	"fmt"

	"blinds/pkg/port"
)

var errUnsupported = fmt.Errorf("%w: gpio not supported on this platform (requires linux)", ErrHardwareFault)

// Chip is not available on non-linux platforms.
type Chip struct{}

// NewChip returns an error on non-linux platforms.
func NewChip(string) (*Chip, error) { return nil, errUnsupported }

func (c *Chip) Open(int, port.Mode) error        { return errUnsupported }
func (c *Chip) Write(int, port.StateType) error  { return errUnsupported }
func (c *Chip) Read(int) (port.StateType, error) { return port.Low, errUnsupported }
func (c *Chip) Close() error                     { return nil }

// Mem is not available on non-linux platforms.
type Mem struct{}

// OpenMem returns an error on non-linux platforms.
func OpenMem() (*Mem, error) { return nil, errUnsupported }

func (m *Mem) Open(int, port.Mode) error        { return errUnsupported }
func (m *Mem) Write(int, port.StateType) error  { return errUnsupported }
func (m *Mem) Read(int) (port.StateType, error) { return port.Low, errUnsupported }
func (m *Mem) Close() error                     { return nil }
