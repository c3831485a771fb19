// Package pluginstest provides in-memory MQTT fakes for exercising plugins.
package pluginstest

import (
	"sync"
	"time"

	"dht22dec/shared"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Message struct {
	TopicName string
	Body      []byte
}

func (m *Message) Duplicate() bool   { return false }
func (m *Message) Qos() byte         { return 0 }
func (m *Message) Retained() bool    { return false }
func (m *Message) Topic() string     { return m.TopicName }
func (m *Message) MessageID() uint16 { return 0 }
func (m *Message) Payload() []byte   { return m.Body }
func (m *Message) Ack()              {}

type Published struct {
	Topic   string
	Payload []byte
}

// Client records publishes. Any other mqtt.Client method panics.
type Client struct {
	mqtt.Client

	mu        sync.Mutex
	published []Published
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, _ := payload.([]byte)
	c.published = append(c.published, Published{Topic: topic, Payload: b})
	return doneToken{}
}

func (c *Client) Published() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.published...)
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

// NewContext returns a handler context with a buffered Telegraf channel.
func NewContext(topics map[string]shared.PluginConfig) (*shared.MqttMessageHandlerContext, chan shared.TelegrafChannelMessage) {
	ch := make(chan shared.TelegrafChannelMessage, 16)
	return &shared.MqttMessageHandlerContext{
		Plugs:        shared.MqttPluginHandlers{},
		Topics:       topics,
		TelegrafChan: ch,
	}, ch
}
