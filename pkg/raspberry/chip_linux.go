//go:build linux

package raspberry

import (
	"errors"
	"fmt"

	"blinds/pkg/port"

	"github.com/warthog618/gpiod"
)

const consumer = "blinds"

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	gpiodChip *gpiod.Chip
	lines     map[int]*gpiod.Line
}

var _ GPIO = &Chip{}

// NewChip opens a GPIO character device, e.g. gpiochip0.
func NewChip(name string) (*Chip, error) {
	c, err := gpiod.NewChip(name, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("%w: open chip %q: %w", ErrHardwareFault, name, err)
	}
	return &Chip{gpiodChip: c, lines: map[int]*gpiod.Line{}}, nil
}

// Open requests control of a single line on the chip.
// If granted, control is maintained until the Chip is closed.
func (c *Chip) Open(line int, mode port.Mode) error {
	if _, ok := c.lines[line]; ok {
		return fault("open", line, errors.New("line already requested"))
	}

	var l *gpiod.Line
	var err error

	switch mode {
	case port.Output:
		l, err = c.gpiodChip.RequestLine(line, gpiod.AsOutput(int(port.Low)))
	case port.Input:
		l, err = c.gpiodChip.RequestLine(line, gpiod.AsInput)
	default:
		return fmt.Errorf("%w: mode %v", ErrInvalidParam, mode)
	}
	if err != nil {
		return fault("request", line, err)
	}

	c.lines[line] = l
	return nil
}

// Write sets the value of a requested output line.
func (c *Chip) Write(line int, value port.StateType) error {
	l, ok := c.lines[line]
	if !ok {
		return fault("write", line, errors.New("line not requested"))
	}
	if err := l.SetValue(int(value)); err != nil {
		return fault("write", line, err)
	}
	return nil
}

// Read returns the current value of the line.
// For output lines this is the value last written.
func (c *Chip) Read(line int) (port.StateType, error) {
	l, ok := c.lines[line]
	if !ok {
		return port.Low, nil
	}
	v, err := l.Value()
	if err != nil {
		return port.Low, fault("read", line, err)
	}
	if v == 0 {
		return port.Low, nil
	}
	return port.High, nil
}

// Close releases all requested lines and the chip.
//
// Released lines fall back to the state the kernel chooses, which for the
// Raspberry Pi is the boot default (input).
func (c *Chip) Close() error {
	var errs []error
	for n, l := range c.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", n, err))
		}
		delete(c.lines, n)
	}
	if err := c.gpiodChip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	return errors.Join(errs...)
}
