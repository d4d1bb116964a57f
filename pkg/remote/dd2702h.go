package remote

import (
	"fmt"
	"sync/atomic"
	"time"

	"blinds/pkg/port"
	"blinds/pkg/raspberry"

	"github.com/womat/debug"
)

// DD2702H is the remote control driven by gpio lines.
//
// Only one instance should be active on the system at any time. Methods must
// be called sequentially, see package gate.
type DD2702H struct {
	gpio  raspberry.GPIO
	pins  Pins
	clock Clock

	// channel is the channel the remote is believed to show.
	// Read without the gate by status handlers, so it is atomic.
	channel atomic.Int32
	// lastPress is the time of the last button press, zero after a power reset.
	lastPress time.Time

	disposed bool
}

var _ Remote = &DD2702H{}

// New opens the six remote lines as outputs.
// The channel is only trustworthy after Reset; callers should reset before use.
func New(gpio raspberry.GPIO, pins Pins, clock Clock) (*DD2702H, error) {
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if clock == nil {
		clock = SystemClock{}
	}

	for _, l := range pins.all() {
		if err := gpio.Open(l, port.Output); err != nil {
			return nil, fmt.Errorf("open remote line: %w", err)
		}
	}

	d := &DD2702H{
		gpio:  gpio,
		pins:  pins,
		clock: clock,
	}
	d.channel.Store(1)
	return d, nil
}

// Channel returns the currently selected channel on the remote.
func (d *DD2702H) Channel() int {
	return int(d.channel.Load())
}

// Reset power cycles the remote so that the driver state is in sync with the
// physical channel selection (channel 1).
func (d *DD2702H) Reset() error {
	debug.DebugLog.Print("remote: reset")

	if err := d.resetButtons(); err != nil {
		return err
	}
	if err := d.resetPower(); err != nil {
		return err
	}
	// the first channel button press after a cold start is ignored by the remote
	return d.wakeUp()
}

// SetChannel presses channel up or down until the remote shows channel.
//
// The presses always walk towards the target without using the wrap-around,
// e.g. 0 -> 15 costs fifteen channel up presses.
func (d *DD2702H) SetChannel(channel int) error {
	if channel < MinChannel || channel > MaxChannel {
		return fmt.Errorf("%w: channel %d not in range %d..%d", ErrInvalidArgument, channel, MinChannel, MaxChannel)
	}

	debug.DebugLog.Printf("remote: set channel %d -> %d", d.Channel(), channel)
	for d.Channel() != channel {
		var err error
		if d.Channel() < channel {
			err = d.ChannelUp()
		} else {
			err = d.ChannelDown()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Open opens the blind(s) paired with the current channel.
func (d *DD2702H) Open() error {
	debug.DebugLog.Printf("remote: open channel %d", d.Channel())
	return d.pulse(ButtonPress, d.pins.Open)
}

// Close closes the blind(s) paired with the current channel.
func (d *DD2702H) Close() error {
	debug.DebugLog.Printf("remote: close channel %d", d.Channel())
	return d.pulse(ButtonPress, d.pins.Close)
}

// Stop stops the blind(s) paired with the current channel.
func (d *DD2702H) Stop() error {
	debug.DebugLog.Printf("remote: stop channel %d", d.Channel())
	return d.pulse(ButtonPress, d.pins.Stop)
}

// Pair pairs or un-pairs a blind with the current channel by holding stop.
// Pairing mode must be activated on the blind motor first.
func (d *DD2702H) Pair() error {
	debug.DebugLog.Printf("remote: pair channel %d", d.Channel())
	return d.pulse(Pairing, d.pins.Stop)
}

// ChannelUp increments the current channel by one, 15 wraps to 0.
func (d *DD2702H) ChannelUp() error {
	if err := d.wakeUp(); err != nil {
		return err
	}
	if err := d.pulse(ButtonPress, d.pins.ChannelUp); err != nil {
		return err
	}

	if c := d.Channel(); c < MaxChannel {
		d.channel.Store(int32(c + 1))
	} else {
		d.channel.Store(MinChannel)
	}
	return nil
}

// ChannelDown decrements the current channel by one, 0 wraps to 15.
func (d *DD2702H) ChannelDown() error {
	if err := d.wakeUp(); err != nil {
		return err
	}
	if err := d.pulse(ButtonPress, d.pins.ChannelDown); err != nil {
		return err
	}

	if c := d.Channel(); c > MinChannel {
		d.channel.Store(int32(c - 1))
	} else {
		d.channel.Store(MaxChannel)
	}
	return nil
}

// ChannelLimit presses both channel buttons at once.
// Programming the channel limit is not supported, the limit is always 15.
func (d *DD2702H) ChannelLimit() error {
	return d.pulse(ButtonPress, d.pins.ChannelUp, d.pins.ChannelDown)
}

// Shutdown releases all buttons. Power is left as is.
// Errors are logged, never returned.
func (d *DD2702H) Shutdown() {
	if d.disposed {
		return
	}
	d.disposed = true

	for _, l := range d.pins.buttons() {
		if err := d.gpio.Write(l, port.Low); err != nil {
			debug.ErrorLog.Printf("remote: release line %d: %v", l, err)
		}
	}
}

// pulse holds lines high for hold, releases them and waits for the switch to settle.
func (d *DD2702H) pulse(hold time.Duration, lines ...int) error {
	debug.TraceLog.Printf("remote: pulse %v for %v", lines, hold)

	for i, l := range lines {
		if err := d.gpio.Write(l, port.High); err != nil {
			d.release(lines[:i])
			return err
		}
	}
	d.clock.Sleep(hold)

	for _, l := range lines {
		if err := d.gpio.Write(l, port.Low); err != nil {
			d.release(lines)
			return err
		}
	}
	d.clock.Sleep(SwitchDebounce)

	d.lastPress = d.clock.Now()
	return nil
}

// release is the best effort cleanup of a failed pulse.
func (d *DD2702H) release(lines []int) {
	for _, l := range lines {
		if err := d.gpio.Write(l, port.Low); err != nil {
			debug.ErrorLog.Printf("remote: release line %d: %v", l, err)
		}
	}
}

func (d *DD2702H) resetButtons() error {
	for _, l := range d.pins.buttons() {
		if err := d.gpio.Write(l, port.Low); err != nil {
			return err
		}
	}
	return nil
}

func (d *DD2702H) resetPower() error {
	v, err := d.gpio.Read(d.pins.Power)
	if err != nil {
		return err
	}

	// only a powered remote needs to brown out, saves 1.5s otherwise
	if v == port.High {
		// a sleeping MCU draws too little current to lose its state in time
		if err := d.wakeUp(); err != nil {
			return err
		}
		if err := d.gpio.Write(d.pins.Power, port.Low); err != nil {
			return err
		}
		d.clock.Sleep(BrownOutWait)
	}

	if err := d.gpio.Write(d.pins.Power, port.High); err != nil {
		return err
	}
	d.clock.Sleep(StartUpWait)

	d.channel.Store(1)
	d.lastPress = time.Time{}
	return nil
}

// wakeUp brings the MCU out of sleep without side effects if it is already awake.
func (d *DD2702H) wakeUp() error {
	if !d.lastPress.IsZero() && d.clock.Now().Sub(d.lastPress) < SleepTimeout {
		return nil
	}
	debug.TraceLog.Print("remote: wake up")
	return d.ChannelLimit()
}
