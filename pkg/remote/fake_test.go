package remote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRecordsCalls(t *testing.T) {
	f := NewFake()

	require.NoError(t, f.Open())
	require.NoError(t, f.SetChannel(15))
	require.NoError(t, f.ChannelUp())
	assert.Equal(t, 0, f.Channel())
	require.NoError(t, f.ChannelDown())
	assert.Equal(t, 15, f.Channel())
	require.NoError(t, f.Reset())
	assert.Equal(t, 1, f.Channel())

	assert.Equal(t, []string{"open", "set_channel 15", "channel_up", "channel_down", "reset"}, f.Recorded())
}

func TestFakeErrors(t *testing.T) {
	f := NewFake()
	assert.ErrorIs(t, f.SetChannel(16), ErrInvalidArgument)

	f.Err = errors.New("boom")
	assert.EqualError(t, f.Stop(), "boom")
	assert.Equal(t, 1, f.Channel())
}
