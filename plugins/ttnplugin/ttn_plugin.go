package ttnplugin

import (
	"errors"
	"time"

	"dht22dec/decoder"
	"dht22dec/plugins"
	"dht22dec/shared"
	"dht22dec/ttn"
	"dht22dec/utils"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type TTNMqttHandler struct{}

// Process decodes a The Things Stack v3 uplink event. name is the
// subscription the message matched.
func (m TTNMqttHandler) Process(name string, data interface{}, msg mqtt.Message) error {

	ctx, ok := data.(*shared.MqttMessageHandlerContext)
	if !ok {
		log.Error("failed to cast expected data to MqttMessageHandlerContext")
		return shared.ErrTTNHandlerError
	}

	up, err := ttn.ParseUplink(msg.Payload())
	if errors.Is(err, ttn.ErrNoUplink) {
		log.Debug("ignoring message without uplink", "topic", msg.Topic())
		return nil
	}
	if err != nil {
		log.Warnf("Failed to parse TTN uplink: Topic: [%s],  %v", msg.Topic(), err)
		return shared.ErrTTNHandlerError
	}

	fport := up.UplinkMessage.FPort
	if want := ctx.Topics[name].FPort; want != 0 && fport != int(want) {
		log.Debug("ignoring uplink on other port", "topic", msg.Topic(), "fport", fport, "want", want)
		return nil
	}

	device := up.Device()
	if device == "" {
		device = utils.GetNthTopicSegmentFromEnd(msg.Topic(), 1)
	}

	receivedAt := up.UplinkMessage.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = up.ReceivedAt
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	env := shared.Envelope{
		Device:     device,
		Topic:      msg.Topic(),
		FPort:      uint8(fport),
		FCnt:       up.UplinkMessage.FCnt,
		ReceivedAt: receivedAt,
	}

	res := decoder.Decode(up.UplinkMessage.FRMPayload, up.Metadata())
	return plugins.Emit(ctx, env, res)
}

var Handler shared.MqttPluginHandler = TTNMqttHandler{}
