package config

import (
	"context"
	"errors"

	"dhtcode-go/bus"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup resolves the typed configuration for a device, keyed
// by topic suffix (config/<key>). Tests and boards may override it.
var EmbeddedConfigLookup = func(device string) (map[string]any, bool) {
	m, ok := embeddedConfigs[device]
	return m, ok
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig publishes each section of the device config as a retained
// message on config/<key>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}
	m, ok := EmbeddedConfigLookup(device)
	if !ok || len(m) == 0 {
		return errors.New("no embedded config for device: " + device)
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start publishes the configuration in the background.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
