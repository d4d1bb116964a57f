//go:build linux

package raspberry

import (
	"fmt"

	"blinds/pkg/port"

	"github.com/warthog618/gpio"
)

// Mem drives lines through the memory mapped gpio range (/dev/gpiomem).
// The mapping is global, so only one Mem may be open at a time.
type Mem struct {
	pins map[int]*gpio.Pin
}

var _ GPIO = &Mem{}

// OpenMem maps the GPIO memory range from /dev/gpiomem.
func OpenMem() (*Mem, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("%w: map gpiomem: %w", ErrHardwareFault, err)
	}
	return &Mem{pins: map[int]*gpio.Pin{}}, nil
}

// Open sets the line direction. The pin number provided is the BCM GPIO number.
func (m *Mem) Open(line int, mode port.Mode) error {
	if _, ok := m.pins[line]; ok {
		return fault("open", line, fmt.Errorf("pin %v already used", line))
	}

	p := gpio.NewPin(line)
	switch mode {
	case port.Output:
		// drive low before switching direction so the line never glitches high
		p.Low()
		p.Output()
	case port.Input:
		p.Input()
	default:
		return fmt.Errorf("%w: mode %v", ErrInvalidParam, mode)
	}

	m.pins[line] = p
	return nil
}

// Write sets the pin state (high/low).
func (m *Mem) Write(line int, value port.StateType) error {
	p, ok := m.pins[line]
	if !ok {
		return fault("write", line, fmt.Errorf("pin %v not opened", line))
	}
	p.Write(gpio.Level(value == port.High))
	return nil
}

// Read pin state (high/low).
func (m *Mem) Read(line int) (port.StateType, error) {
	p, ok := m.pins[line]
	if !ok {
		return port.Low, nil
	}
	if p.Read() {
		return port.High, nil
	}
	return port.Low, nil
}

// Close unmaps GPIO memory.
func (m *Mem) Close() error {
	m.pins = map[int]*gpio.Pin{}
	return gpio.Close()
}
