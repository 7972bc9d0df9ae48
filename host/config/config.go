// Package config loads the dht-monitor YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the monitor configuration.
type Config struct {
	Serial     SerialConfig  `yaml:"serial"`
	MQTT       MQTTConfig    `yaml:"mqtt"`
	HTTP       HTTPConfig    `yaml:"http"`
	StaleAfter time.Duration `yaml:"stale_after"` // readings older than this are flagged stale
}

// SerialConfig selects where console lines come from. Port "-" reads stdin.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTTConfig configures the MQTT sink. An empty Broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"` // empty => dht-monitor-<uuid>
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retained    bool   `yaml:"retained"`
}

// HTTPConfig configures the read-only API. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// StdinPort is the Serial.Port value that reads console lines from stdin.
const StdinPort = "-"

// Default returns a configuration that reads stdin and serves HTTP on :8080.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: StdinPort,
			Baud: 115200,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "dht",
			QoS:         0,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		StaleAfter: 10 * time.Second,
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ensureDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ensureDefaults() {
	def := Default()
	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = def.StaleAfter
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.Serial.Baud < 0 {
		errs = append(errs, fmt.Errorf("serial.baud: %d is negative", c.Serial.Baud))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos: %d is not 0, 1 or 2", c.MQTT.QoS))
	}
	if c.StaleAfter < 0 {
		errs = append(errs, fmt.Errorf("stale_after: %s is negative", c.StaleAfter))
	}
	return errors.Join(errs...)
}

// Save writes the configuration as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
