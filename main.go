package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dht22dec/phy"
	"dht22dec/shared"
	"dht22dec/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/charmbracelet/log"
)

func main() {

	var level, configPath string
	flag.StringVar(&level, "level", "info", "Log level")
	flag.StringVar(&configPath, "config", "config.json", "Path to the JSON config")
	flag.Parse()
	var wg sync.WaitGroup

	// setup logging
	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Fatal("failed to parse log level", "level", level, "err", err)
	}

	// load config
	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		log.Error("Failed to load config", "path", configPath, "err", err)
		return
	}

	// check topics exist
	if len(cfg.Topics) == 0 {
		log.Fatal("Error no topics listed in json file, aborting")
	}

	// Load Plugins
	for topic, p := range cfg.Topics {
		if err := loadMqttPlugin(p.Name); err != nil {
			log.Fatal("failed to load plugin", "topic", topic, "err", err)
		}
	}

	// ABP sessions for raw LoRaWAN frames
	keyring, err := phy.NewKeyring(cfg.Sessions)
	if err != nil {
		log.Fatal("invalid session keys", "err", err)
	}
	log.Debug("loaded LoRaWAN sessions", "count", keyring.Len())

	ctx, cancel := context.WithCancel(context.Background())
	telegrafChannel := make(chan shared.TelegrafChannelMessage, 64)

	// Create signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Received interrupt. Cancelling...")
		cancel()
	}()
	wg.Add(1)

	// start telegraf publisher
	log.Info("starting telegraf publisher", "url", cfg.TelegrafURL)
	go startPublisher(ctx, &wg, cfg.TelegrafURL, telegrafChannel)

	handlerCtx := &shared.MqttMessageHandlerContext{
		Plugs:        MqttPluginHandlers,
		Topics:       cfg.Topics,
		TelegrafChan: telegrafChannel,
		DecodedTopic: cfg.DecodedTopic,
		Keyring:      keyring,
	}

	// setup MQTT connection
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetDefaultPublishHandler(makeHandler(handlerCtx))
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("lost connection to MQTT broker", "err", err)
	})
	// subscribe on every (re)connect, the broker may not keep the session
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info("connected to MQTT broker", "broker", cfg.Broker)
		if token := c.SubscribeMultiple(utils.TopicsQoSFromConfig(cfg.Topics), nil); token.Wait() && token.Error() != nil {
			log.Error("Subscription error", "err", token.Error())
			return
		}
		for topic, v := range cfg.Topics {
			log.Infof("subscribed to topic: ['%s'] with Qos: [%d] plugin: [%s]", topic, v.QoS, v.Name)
		}
	})

	client := mqtt.NewClient(opts)
	handlerCtx.Client = client

	// connect to MQTT broker
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal("Error connecting to MQTT broker", "err", token.Error())
	}

	wg.Wait()
	log.Info("All routines complete. Exiting.")
	// shutdown MQTT server
	log.Info("Disconnecting from MQTT broker")
	client.Disconnect(250)
	log.Info("shutdown complete, exiting")
}
