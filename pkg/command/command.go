// Package command is the entry point for external callers of the remote.
// Every physical action passes the execution gate, so callers on different
// goroutines never interleave button presses.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"blinds/pkg/gate"
	"blinds/pkg/remote"

	"github.com/womat/debug"
)

// Operation names, as used by the HTTP api and the schedules.
const (
	OpSetChannel   = "channel"
	OpReset        = "reset"
	OpOpen         = "open"
	OpClose        = "close"
	OpStop         = "stop"
	OpPair         = "pair"
	OpChannelUp    = "channel/up"
	OpChannelDown  = "channel/down"
	OpChannelLimit = "channel/limit"
)

var ErrUnknownOperation = errors.New("unknown operation")

// Event describes a finished operation.
type Event struct {
	Operation string    `json:"operation"`
	Channel   int       `json:"channel"`
	Time      time.Time `json:"time"`
	Error     string    `json:"error,omitempty"`
}

// Facade forwards commands to the remote through the gate.
type Facade struct {
	remote   remote.Remote
	gate     *gate.Gate
	mappings map[string]int
	notify   func(Event)
	now      func() time.Time
}

// New returns a Facade. mappings maps blind names to remote channels.
func New(r remote.Remote, g *gate.Gate, mappings map[string]int) *Facade {
	m := make(map[string]int, len(mappings))
	for k, v := range mappings {
		m[k] = v
	}
	return &Facade{
		remote:   r,
		gate:     g,
		mappings: m,
		now:      time.Now,
	}
}

// OnEvent registers fn to be called after every gated operation.
// fn runs while the gate is still held, so events arrive in admission order;
// it must not block or call back into the Facade.
func (f *Facade) OnEvent(fn func(Event)) {
	f.notify = fn
}

// Channel returns the channel the remote is believed to show.
// It does not wait for the gate and may see an intermediate channel while
// SetChannel is stepping.
func (f *Facade) Channel() int {
	return f.remote.Channel()
}

// Configuration returns a copy of the blind name to channel mappings.
func (f *Facade) Configuration() map[string]int {
	m := make(map[string]int, len(f.mappings))
	for k, v := range f.mappings {
		m[k] = v
	}
	return m
}

// Blinds returns the mapped blind names, sorted.
func (f *Facade) Blinds() []string {
	names := make([]string, 0, len(f.mappings))
	for k := range f.mappings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (f *Facade) SetChannel(ctx context.Context, channel int) error {
	return f.run(ctx, OpSetChannel, func() error { return f.remote.SetChannel(channel) })
}

func (f *Facade) Reset(ctx context.Context) error {
	return f.run(ctx, OpReset, f.remote.Reset)
}

func (f *Facade) Open(ctx context.Context) error {
	return f.run(ctx, OpOpen, f.remote.Open)
}

func (f *Facade) Close(ctx context.Context) error {
	return f.run(ctx, OpClose, f.remote.Close)
}

func (f *Facade) Stop(ctx context.Context) error {
	return f.run(ctx, OpStop, f.remote.Stop)
}

func (f *Facade) Pair(ctx context.Context) error {
	return f.run(ctx, OpPair, f.remote.Pair)
}

func (f *Facade) ChannelUp(ctx context.Context) error {
	return f.run(ctx, OpChannelUp, f.remote.ChannelUp)
}

func (f *Facade) ChannelDown(ctx context.Context) error {
	return f.run(ctx, OpChannelDown, f.remote.ChannelDown)
}

func (f *Facade) ChannelLimit(ctx context.Context) error {
	return f.run(ctx, OpChannelLimit, f.remote.ChannelLimit)
}

// Do runs the operation by name. channel is required for OpSetChannel only.
func (f *Facade) Do(ctx context.Context, operation string, channel *int) error {
	switch operation {
	case OpSetChannel:
		if channel == nil {
			return fmt.Errorf("%w: %s needs a channel", remote.ErrInvalidArgument, operation)
		}
		return f.SetChannel(ctx, *channel)
	case OpReset:
		return f.Reset(ctx)
	case OpOpen:
		return f.Open(ctx)
	case OpClose:
		return f.Close(ctx)
	case OpStop:
		return f.Stop(ctx)
	case OpPair:
		return f.Pair(ctx)
	case OpChannelUp:
		return f.ChannelUp(ctx)
	case OpChannelDown:
		return f.ChannelDown(ctx)
	case OpChannelLimit:
		return f.ChannelLimit(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
}

// Sequence runs the actions back to back while holding the gate once,
// e.g. select a channel and open it without another caller moving the channel in between.
func (f *Facade) Sequence(ctx context.Context, name string, actions ...func(remote.Remote) error) error {
	return f.run(ctx, name, func() error {
		for _, a := range actions {
			if err := a(f.remote); err != nil {
				return err
			}
		}
		return nil
	})
}

func (f *Facade) run(ctx context.Context, operation string, fn func() error) error {
	return f.gate.Do(ctx, func() error {
		debug.DebugLog.Printf("command %s: start", operation)
		err := fn()

		ev := Event{Operation: operation, Channel: f.remote.Channel(), Time: f.now()}
		if err != nil {
			debug.ErrorLog.Printf("command %s: %v", operation, err)
			ev.Error = err.Error()
		} else {
			debug.DebugLog.Printf("command %s: done, channel %d", operation, ev.Channel)
		}
		if f.notify != nil {
			f.notify(ev)
		}
		return err
	})
}
