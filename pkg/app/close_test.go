package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"blinds/pkg/app/config"
	"blinds/pkg/port"
	"blinds/pkg/raspberry"
	"blinds/pkg/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pressClock blocks the first button press until hold is closed.
type pressClock struct {
	mu      sync.Mutex
	now     time.Time
	hold    chan struct{}
	pressed chan struct{}
}

func newPressClock() *pressClock {
	return &pressClock{
		now:     time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC),
		hold:    make(chan struct{}),
		pressed: make(chan struct{}, 1),
	}
}

func (c *pressClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *pressClock) Sleep(d time.Duration) {
	if d == remote.ButtonPress {
		select {
		case c.pressed <- struct{}{}:
		default:
		}
		<-c.hold
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newHardwareApp wires the real driver to a stub gpio backend with the remote powered on.
func newHardwareApp(t *testing.T, cfg *config.Config, clock remote.Clock) (*App, *raspberry.Stub) {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)

	stub := raspberry.NewStub()
	r, err := remote.New(stub, cfg.Gpio.Pins, clock)
	require.NoError(t, err)
	require.NoError(t, stub.Write(cfg.Gpio.Pins.Power, port.High))

	a.gpio = stub
	a.remote = r
	a.attach(r)
	return a, stub
}

func level(t *testing.T, stub *raspberry.Stub, line int) port.StateType {
	t.Helper()
	v, err := stub.Read(line)
	require.NoError(t, err)
	return v
}

func assertReleased(t *testing.T, stub *raspberry.Stub, p remote.Pins) {
	t.Helper()
	for _, l := range []int{p.Open, p.Close, p.Stop, p.ChannelUp, p.ChannelDown} {
		assert.Equal(t, port.Low, level(t, stub, l), "button line %d", l)
	}
	assert.Equal(t, port.High, level(t, stub, p.Power), "power stays on")
	assert.True(t, stub.Closed())
}

func TestCloseWaitsForRunningPress(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ShutdownTimeout = 5 * time.Second
	clock := newPressClock()
	a, stub := newHardwareApp(t, cfg, clock)

	opened := make(chan error, 1)
	go func() { opened <- a.blinds.Open(context.Background()) }()
	<-clock.pressed
	require.Equal(t, port.High, level(t, stub, cfg.Gpio.Pins.Open))

	closed := make(chan error, 1)
	go func() { closed <- a.Close() }()

	require.Never(t, func() bool { return len(closed) > 0 }, 100*time.Millisecond, 5*time.Millisecond,
		"Close returned while the open button was pressed")
	assert.False(t, stub.Closed())

	close(clock.hold)
	require.NoError(t, <-opened)
	require.NoError(t, <-closed)

	assertReleased(t, stub, cfg.Gpio.Pins)
}

func TestCloseReleasesIdleRemoteWithoutTimeout(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ShutdownTimeout = 0
	clock := newPressClock()
	close(clock.hold)
	a, stub := newHardwareApp(t, cfg, clock)

	// a line left high, e.g. by an aborted press
	require.NoError(t, stub.Write(cfg.Gpio.Pins.Open, port.High))

	require.NoError(t, a.Close())
	assertReleased(t, stub, cfg.Gpio.Pins)
}

func TestCloseGivesUpOnBusyRemote(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ShutdownTimeout = 20 * time.Millisecond
	clock := newPressClock()
	a, stub := newHardwareApp(t, cfg, clock)

	opened := make(chan error, 1)
	go func() { opened <- a.blinds.Open(context.Background()) }()
	<-clock.pressed

	require.NoError(t, a.Close())
	assert.Equal(t, port.High, level(t, stub, cfg.Gpio.Pins.Open), "a running press is not cut short")
	assert.True(t, stub.Closed())

	close(clock.hold)
	require.NoError(t, <-opened)
}
