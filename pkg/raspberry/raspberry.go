// Package raspberry provides output/input lines on the Raspberry Pi gpio header.
//
// Three backends implement GPIO: Chip drives the linux gpio character device,
// Mem drives the memory mapped /dev/gpiomem range and Stub records the line
// levels in memory for machines without the hardware.
package raspberry

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"blinds/pkg/port"
)

var (
	ErrInvalidParam = fmt.Errorf("invalid parameters")
	// ErrHardwareFault is matched by every error caused by the gpio hardware.
	ErrHardwareFault = errors.New("hardware fault")
)

// Backend names accepted by Open.
const (
	BackendAuto = "auto"
	BackendCdev = "cdev"
	BackendMem  = "gpiomem"
	BackendStub = "stub"
)

// DefaultChip is the gpio character device of the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// GPIO is a set of lines addressed by their BCM number.
type GPIO interface {
	// Open requests the line in the given mode. Output lines start low.
	Open(line int, mode port.Mode) error
	// Write sets the level of an opened line.
	Write(line int, value port.StateType) error
	// Read returns the level of the line, Low if the line was never opened.
	Read(line int) (port.StateType, error)
	// Close releases all lines.
	Close() error
}

// Open returns the gpio backend selected by name.
// BackendAuto uses the character device on arm machines and the stub anywhere else.
func Open(backend, chip string) (GPIO, error) {
	if backend == BackendAuto {
		backend = BackendStub
		if strings.HasPrefix(runtime.GOARCH, "arm") {
			backend = BackendCdev
		}
	}

	switch backend {
	case BackendCdev:
		c, err := NewChip(chip)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMem:
		m, err := OpenMem()
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackendStub:
		return NewStub(), nil
	default:
		return nil, fmt.Errorf("%w: unknown gpio backend %q", ErrInvalidParam, backend)
	}
}

// fault wraps a backend error so that it matches ErrHardwareFault.
func fault(op string, line int, err error) error {
	return fmt.Errorf("%w: %s line %d: %w", ErrHardwareFault, op, line, err)
}
