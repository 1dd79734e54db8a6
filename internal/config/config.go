package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel    zapcore.Level
	Environment string        `mapstructure:"environment"`
	Charger     ChargerConfig `mapstructure:"charger"`
	MQTT        MQTTConfig    `mapstructure:"mqtt"`
	Port        uint          `mapstructure:"port"`
	HttpLog     bool          `mapstructure:"http_log"`
}

type ChargerConfig struct {
	IPAddress            string `mapstructure:"ip_address"`
	Port                 uint
	CellLimit            int    `mapstructure:"cell_limit"`
	PollIntervalMillis   uint32 `mapstructure:"poll_interval_millis"`
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
	// fetch system settings every N polls
	SystemPollEvery uint `mapstructure:"system_poll_every"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c ChargerConfig) ToDomain() domain.ChargerConfig {
	return domain.ChargerConfig{
		IPAddress: c.IPAddress,
		Port:      c.Port,
		CellLimit: c.CellLimit,
	}
}

func (c ChargerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

func (c ChargerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// Validate checks bounds and normalizes the MQTT topics.
func (c *Config) Validate() error {
	if c.Charger.IPAddress == "" {
		return errors.New("config param charger.ip_address is required")
	}
	if c.Charger.Port == 0 || c.Charger.Port > 65535 {
		return errors.New("config param charger.port should be in range 1-65535")
	}
	if c.Charger.CellLimit < 0 || c.Charger.CellLimit > domain.MAX_CELL_LIMIT {
		return fmt.Errorf("config param charger.cell_limit should be in range 0-%d", domain.MAX_CELL_LIMIT)
	}
	if c.Charger.PollIntervalMillis > 0 && c.Charger.PollIntervalMillis < 500 {
		return errors.New("config param charger.poll_interval_millis should be 0 (disabled) or >= 500")
	}
	if c.Charger.RequestTimeoutMillis == 0 {
		return errors.New("config param charger.request_timeout_millis should be > 0")
	}
	if c.Charger.SystemPollEvery == 0 {
		return errors.New("config param charger.system_poll_every should be > 0")
	}
	if c.Port == 0 || c.Port > 65535 {
		return errors.New("config param port should be in range 1-65535")
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(c.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	c.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(c.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	c.MQTT.HADiscoveryTopic = hadBaseTopic

	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
