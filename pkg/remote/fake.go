package remote

import (
	"fmt"
	"sync"
)

// Fake is an in-memory Remote that records the actions it receives.
type Fake struct {
	mu sync.Mutex

	// Calls lists the actions in call order, e.g. "open", "set_channel 3".
	Calls []string

	// Err, if set, is returned by every action.
	Err error

	channel int
}

var _ Remote = &Fake{}

// NewFake returns a Fake on channel 1.
func NewFake() *Fake {
	return &Fake{channel: 1}
}

func (f *Fake) Channel() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channel
}

func (f *Fake) SetChannel(channel int) error {
	if channel < MinChannel || channel > MaxChannel {
		return fmt.Errorf("%w: channel %d", ErrInvalidArgument, channel)
	}
	return f.record(fmt.Sprintf("set_channel %d", channel), func() { f.channel = channel })
}

func (f *Fake) Open() error         { return f.record("open", nil) }
func (f *Fake) Close() error        { return f.record("close", nil) }
func (f *Fake) Stop() error         { return f.record("stop", nil) }
func (f *Fake) Pair() error         { return f.record("pair", nil) }
func (f *Fake) ChannelLimit() error { return f.record("channel_limit", nil) }
func (f *Fake) Reset() error        { return f.record("reset", func() { f.channel = 1 }) }

func (f *Fake) ChannelUp() error {
	return f.record("channel_up", func() {
		if f.channel++; f.channel > MaxChannel {
			f.channel = MinChannel
		}
	})
}

func (f *Fake) ChannelDown() error {
	return f.record("channel_down", func() {
		if f.channel--; f.channel < MinChannel {
			f.channel = MaxChannel
		}
	})
}

// Recorded returns a copy of Calls.
func (f *Fake) Recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

func (f *Fake) record(call string, apply func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	if f.Err != nil {
		return f.Err
	}
	if apply != nil {
		apply()
	}
	return nil
}
