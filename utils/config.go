package utils

import (
	"encoding/json"
	"os"

	"dht22dec/shared"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

func TopicsQoSFromConfig(cfg map[string]shared.PluginConfig) map[string]byte {
	var transformed = make(map[string]byte)

	for topic, plug := range cfg {
		transformed[topic] = plug.QoS
	}

	return transformed
}

// LoadConfig reads the JSON config, then lets a .env file or the
// environment override the broker, credentials and Telegraf URL.
func LoadConfig(filename string) (*shared.Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = file.Close()
		if err != nil {
			log.Warnf("failed to close config file")
		}
	}()

	var cfg shared.Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env", "err", err)
	}
	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *shared.Config) {
	cfg.Broker = getEnv("MQTT_BROKER", cfg.Broker)
	cfg.ClientID = getEnv("MQTT_CLIENT_ID", cfg.ClientID)
	cfg.Username = getEnv("MQTT_USERNAME", cfg.Username)
	cfg.Password = getEnv("MQTT_PASSWORD", cfg.Password)
	cfg.TelegrafURL = getEnv("TELEGRAF_URL", cfg.TelegrafURL)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
