package util

import (
	"github.com/berfenger/icharger2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel:    zap.DebugLevel,
		Environment: "test",
		Charger: config.ChargerConfig{
			IPAddress:            "127.0.0.1",
			Port:                 8080,
			CellLimit:            6,
			PollIntervalMillis:   0,
			RequestTimeoutMillis: 1000,
			SystemPollEvery:      1,
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "icharger",
			HADiscoveryTopic: "homeassistant",
		},
		Port: 8080,
	}
}
