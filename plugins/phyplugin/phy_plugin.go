package phyplugin

import (
	"errors"
	"time"

	"dht22dec/decoder"
	"dht22dec/phy"
	"dht22dec/plugins"
	"dht22dec/shared"
	"dht22dec/utils"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type PHYMqttHandler struct{}

// Process handles gateway events carrying a raw LoRaWAN PHYPayload, either
// wrapped in the gateway bridge JSON event or as bare bytes.
func (m PHYMqttHandler) Process(name string, data interface{}, msg mqtt.Message) error {

	ctx, ok := data.(*shared.MqttMessageHandlerContext)
	if !ok {
		log.Error("failed to cast expected data to MqttMessageHandlerContext")
		return shared.ErrPHYHandlerError
	}

	keyring, ok := (ctx.Keyring).(*phy.Keyring)
	if !ok || keyring == nil {
		log.Error("no LoRaWAN session keyring configured")
		return shared.ErrPHYHandlerError
	}

	payload := msg.Payload()
	var md *decoder.Metadata
	receivedAt := time.Now()
	if utils.IsLikelyJSON(payload) {
		up, err := phy.ParseUplink(payload)
		if err != nil {
			log.Warnf("Failed to parse gateway event: Topic: [%s],  %v", msg.Topic(), err)
			return shared.ErrPHYHandlerError
		}
		payload = up.PHYPayload
		md = up.Metadata()
		receivedAt = up.ReceivedAt(receivedAt)
	}

	frame, err := keyring.Decrypt(payload)
	switch {
	case errors.Is(err, phy.ErrNotDataUp), errors.Is(err, phy.ErrUnknownDevice), errors.Is(err, phy.ErrDuplicateFCnt):
		log.Debug("ignoring frame", "topic", msg.Topic(), "reason", err)
		return nil
	case err != nil:
		log.Warn("failed to decrypt uplink", "topic", msg.Topic(), "err", err)
		return shared.ErrPHYHandlerError
	}

	if want := ctx.Topics[name].FPort; want != 0 && frame.FPort != want {
		log.Debug("ignoring uplink on other port", "topic", msg.Topic(), "fport", frame.FPort, "want", want)
		return nil
	}

	env := shared.Envelope{
		Device:     frame.DevAddr.String(),
		Topic:      msg.Topic(),
		FPort:      frame.FPort,
		FCnt:       frame.FCnt,
		ReceivedAt: receivedAt,
	}

	res := decoder.Decode(frame.FRMPayload, md)
	return plugins.Emit(ctx, env, res)
}

var Handler shared.MqttPluginHandler = PHYMqttHandler{}
