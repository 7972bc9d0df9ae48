package config

import "dhtcode-go/services/hal/setups"

// Key: device ID (the value placed in ctx under CtxDeviceKey).
// Val: config sections published on config/<section>.
var embeddedConfigs = map[string]map[string]any{
	"pico": {
		"hal":       setups.SelectedSetup,
		"heartbeat": setups.Heartbeat,
	},
}
