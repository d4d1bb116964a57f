// Package remote drives a Doya DD2702H 15-channel roller blind RF remote control.
//
// The remote is wired to the gpio header via relays/opto-couplers, one line per
// button plus one line feeding its supply. Every button interaction is emulated
// by pulsing the matching line. The remote gives no feedback, so the selected
// channel and whether the remote is asleep are inferred from the presses sent
// and the time elapsed since the last one.
package remote

import (
	"errors"
	"time"
)

// Channel range of the remote. Channel 0 addresses all blinds.
const (
	MinChannel = 0
	MaxChannel = 15
)

// Timing of the physical remote.
const (
	ButtonPress    = 240 * time.Millisecond
	SwitchDebounce = 120 * time.Millisecond
	BrownOutWait   = 1500 * time.Millisecond
	StartUpWait    = 2500 * time.Millisecond
	Pairing        = 4000 * time.Millisecond
	// SleepTimeout is the inactivity after which the remote's MCU sleeps and
	// ignores the first channel button press.
	SleepTimeout = 10000 * time.Millisecond
)

// ErrInvalidArgument is returned for requests the remote can't represent,
// e.g. a channel outside MinChannel..MaxChannel.
var ErrInvalidArgument = errors.New("invalid argument")

// Remote is the set of physical actions of the remote control.
// Implementations are not safe for concurrent use.
type Remote interface {
	// Channel returns the currently selected channel.
	Channel() int
	SetChannel(channel int) error
	Open() error
	Close() error
	Stop() error
	Pair() error
	ChannelUp() error
	ChannelDown() error
	// ChannelLimit presses channel up and channel down together. In normal
	// operating mode this wakes the MCU without changing the channel.
	ChannelLimit() error
	Reset() error
}

// Pins maps the remote buttons to BCM gpio line numbers.
type Pins struct {
	Power       int `yaml:"power"`
	Open        int `yaml:"open"`
	Close       int `yaml:"close"`
	Stop        int `yaml:"stop"`
	ChannelUp   int `yaml:"channelup"`
	ChannelDown int `yaml:"channeldown"`
}

// DefaultPins is the wiring of the reference board.
var DefaultPins = Pins{
	Power:       0,
	Open:        5,
	Close:       6,
	Stop:        13,
	ChannelUp:   19,
	ChannelDown: 26,
}

// all returns every line, power first.
func (p Pins) all() []int {
	return []int{p.Power, p.Open, p.Close, p.Stop, p.ChannelUp, p.ChannelDown}
}

// buttons returns the button lines, i.e. all lines except power.
func (p Pins) buttons() []int {
	return []int{p.Open, p.Close, p.Stop, p.ChannelUp, p.ChannelDown}
}

// Validate checks that every button has its own line.
func (p Pins) Validate() error {
	seen := map[int]bool{}
	for _, l := range p.all() {
		if l < 0 {
			return errors.New("negative gpio line")
		}
		if seen[l] {
			return errors.New("gpio line assigned to more than one button")
		}
		seen[l] = true
	}
	return nil
}

// Clock is the time source of the driver.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
