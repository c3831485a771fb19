package shared

import (
	"errors"
	"time"

	"dht22dec/decoder"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrTTNHandlerError    = errors.New("failed to handle TTN uplink")
	ErrPHYHandlerError    = errors.New("failed to handle raw LoRaWAN uplink")
	ErrUnknownPlugin      = errors.New("unknown plugin")
)

type MqttPluginHandler interface {
	Process(name string, ctx interface{}, msg mqtt.Message) error
}

// Generic Telegraf Channel Message to send to publisher
type TelegrafChannelMessage interface{}

// Application Config
type PluginConfig struct {
	Name  string `json:"name"`
	QoS   byte   `json:"qos"`
	// FPort restricts decoding to one application port, 0 accepts all
	FPort uint8  `json:"fport"`
}

// ABP session keys, hex encoded
type SessionConfig struct {
	NwkSKey string `json:"nwkSKey"`
	AppSKey string `json:"appSKey"`
}

// Config
type Config struct {
	Broker       string                   `json:"broker"`
	Topics       map[string]PluginConfig  `json:"topics"`
	ClientID     string                   `json:"clientID"`
	Username     string                   `json:"username"`
	Password     string                   `json:"password"`
	Sessions     map[string]SessionConfig `json:"sessions"`
	TelegrafURL  string                   `json:"telegrafURL"`
	DecodedTopic string                   `json:"decodedTopic"`
}

// Plugins Map
type MqttPluginHandlers map[string]MqttPluginHandler

// Envelope identifies where a decoded uplink came from
type Envelope struct {
	Device     string
	Topic      string
	FPort      uint8
	FCnt       uint32
	ReceivedAt time.Time
}

// DecodedUplink is what plugins hand to the Telegraf publisher
type DecodedUplink struct {
	Envelope Envelope
	Result   decoder.Result
}

// MqttMessageHandlerContext

type MqttMessageHandlerContext struct {
	Plugs        MqttPluginHandlers
	Topics       map[string]PluginConfig
	TelegrafChan TelegrafChannelMessage
	// Client republishes decoded payloads, nil disables it
	Client       mqtt.Client
	DecodedTopic string
	// *phy.Keyring, typed loosely to keep shared free of phy
	Keyring      interface{}
}
