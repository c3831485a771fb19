package main

import (
	"sort"

	"dht22dec/shared"
	"dht22dec/utils"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// makeHandler dispatches a message to the plugin of the first configured
// subscription matching its topic.
func makeHandler(ctx *shared.MqttMessageHandlerContext) mqtt.MessageHandler {
	subscriptions := make([]string, 0, len(ctx.Topics))
	for sub := range ctx.Topics {
		subscriptions = append(subscriptions, sub)
	}
	sort.Strings(subscriptions)

	return func(client mqtt.Client, msg mqtt.Message) {

		topic := msg.Topic()
		log.Debugf("Received MQTT message from topic: \x1b[33m%s\x1b[0m", topic)

		for _, sub := range subscriptions {
			if !utils.TopicMatches(sub, topic) {
				continue
			}
			pluginName := ctx.Topics[sub].Name
			handler, ok := ctx.Plugs[pluginName]
			if !ok {
				log.Errorf("no plugin [%s] loaded for subscription [%s]", pluginName, sub)
				return
			}
			err := handler.Process(sub, ctx, msg)
			if err != nil {
				log.Errorf("failed to process [%s] with handler [%s] error: [%s]", topic, pluginName, err)
			} else {
				log.Debugf("Dispatched [%s] =>  [%s]", topic, pluginName)
			}
			return
		}
		log.Warnf("no subscription matches topic [%s]", topic)
	}
}
