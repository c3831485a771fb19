package main

import (
	"fmt"

	"dht22dec/plugins/phyplugin"
	"dht22dec/plugins/ttnplugin"
	"dht22dec/shared"
)

var builtinPlugins = map[string]shared.MqttPluginHandler{
	"ttn": ttnplugin.Handler,
	"phy": phyplugin.Handler,
}

var MqttPluginHandlers = shared.MqttPluginHandlers{}

func loadMqttPlugin(name string) error {
	handler, ok := builtinPlugins[name]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnknownPlugin, name)
	}
	MqttPluginHandlers[name] = handler
	return nil
}
