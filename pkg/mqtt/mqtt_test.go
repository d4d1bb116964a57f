package mqtt

import (
	"testing"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	v := struct {
		Operation string    `json:"operation"`
		Channel   int       `json:"channel"`
		Time      time.Time `json:"time"`
	}{"open", 3, time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)}

	msg, err := NewMessage("blinds/remote", v, true)
	require.NoError(t, err)
	assert.Equal(t, "blinds/remote", msg.Topic)
	assert.True(t, msg.Retained)
	assert.JSONEq(t, `{"operation":"open","channel":3,"time":"2026-01-01T07:00:00Z"}`, string(msg.Payload))

	_, err = NewMessage("x", make(chan int), false)
	assert.Error(t, err)
}

func TestDisabledHandler(t *testing.T) {
	h := New()
	require.NoError(t, h.Connect("", "blinds"))
	assert.False(t, h.Enabled())

	// without a broker Send must neither block nor queue
	for i := 0; i < 100; i++ {
		h.Send(Message{Topic: "blinds/remote"})
	}
	assert.Empty(t, h.C)
	assert.NoError(t, h.Disconnect())
}

func TestCloseStopsService(t *testing.T) {
	h := New()
	h.C <- Message{Topic: "blinds/remote"}

	done := make(chan struct{})
	go func() {
		h.Service()
		close(done)
	}()

	h.Close()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	// late messages of a still running command and a second Close are ignored
	h.client = mqttlib.NewClient(mqttlib.NewClientOptions())
	assert.NotPanics(t, func() {
		h.Send(Message{Topic: "blinds/remote"})
		h.Close()
	})
}
