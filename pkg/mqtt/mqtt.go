// Package mqtt publishes remote state changes to a mqtt broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

// quiesce is the specified number of milliseconds to wait for existing work to be completed.
const (
	quiesce        = 250
	connectTimeout = 10 * time.Second
)

// Handler contains the handler of the mqtt broker.
type Handler struct {
	client mqttlib.Client
	// C is the channel to service the mqtt message
	// sending a message to channel C will send the message.
	C chan Message

	mu     sync.Mutex
	closed bool
}

// Message contains the properties of the mqtt message.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// NewMessage encodes v as json payload for topic.
func NewMessage(topic string, v interface{}, retained bool) (Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("marshal mqtt payload: %w", err)
	}
	return Message{Topic: topic, Payload: b, Retained: retained}, nil
}

// New generate a new mqtt broker client.
func New() *Handler {
	return &Handler{
		C: make(chan Message, 16),
	}
}

// Enabled reports whether a broker is connected.
func (m *Handler) Enabled() bool {
	return m.client != nil
}

// Connect connects to the mqtt broker.
// If no broker is defined, no mqtt message are send.
func (m *Handler) Connect(broker, clientID string) error {
	if broker == "" {
		return nil
	}

	opts := mqttlib.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	m.client = mqttlib.NewClient(opts)

	t := m.client.Connect()
	if !t.WaitTimeout(connectTimeout) {
		// the client keeps retrying in the background
		debug.ErrorLog.Printf("mqtt broker %s not reachable yet", broker)
		return nil
	}
	return t.Error()
}

// Disconnect will end the connection to the broker.
func (m *Handler) Disconnect() error {
	if m.client == nil {
		return nil
	}

	m.client.Disconnect(quiesce)
	return nil
}

// Send queues msg without blocking. If the queue is full the message is dropped.
func (m *Handler) Send(msg Message) {
	if m.client == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		debug.DebugLog.Printf("mqtt handler closed, dropping message for topic %v", msg.Topic)
		return
	}
	select {
	case m.C <- msg:
	default:
		debug.ErrorLog.Printf("mqtt queue full, dropping message for topic %v", msg.Topic)
	}
}

// Close closes C, Service returns after publishing the queued messages.
// Messages sent after Close are dropped.
func (m *Handler) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.C)
	}
}

// Service listen to a message on the channel C and send the message to mqtt.
// If no client or topic is defined, the message will be ignored.
// Service returns when C is closed.
func (m *Handler) Service() {
	for msg := range m.C {
		if m.client == nil || msg.Topic == "" {
			continue
		}

		debug.DebugLog.Printf("publishing %v bytes to topic %v", len(msg.Payload), msg.Topic)
		t := m.client.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload)

		// the asynchronous nature of this library makes it easy to forget to check for errors.
		go func(topic string) {
			<-t.Done()
			if err := t.Error(); err != nil {
				debug.ErrorLog.Printf("publishing topic %v: %v", topic, err)
			}
		}(msg.Topic)
	}
}
