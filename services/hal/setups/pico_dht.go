// Package setups holds the board configuration HAL instantiates on boot.
package setups

import (
	dht11dev "dhtcode-go/services/hal/devices/dht11"
	"dhtcode-go/services/hal/devices/gpio_dout"
	"dhtcode-go/services/hal/internal/platform"

	"dhtcode-go/types"
)

// Public names; capabilities appear under hal/cap/env/*/room and
// hal/cap/io/led/status.
const (
	SensorName = "room"
	LEDName    = "status"
)

// SelectedSetup is a Pico with a DHT11 on GPIO15 and the on-board LED.
var SelectedSetup = types.HALConfig{
	Devices: []types.HALDevice{
		{ID: "dht0", Type: "dht11", Params: dht11dev.Params{Pin: platform.DHTPin, Name: SensorName}},
		{ID: "led0", Type: "gpio_led", Params: gpio_dout.Params{Pin: platform.LEDPin, Name: LEDName}},
	},
	Pollers: []types.PollSpec{{
		Domain:     "env",
		Kind:       types.KindTemperature,
		Name:       SensorName,
		Verb:       "read",
		IntervalMs: 2000,
		JitterMs:   200,
		DelayMs:    2000, // sensor settling after power-on
	}},
}

// Heartbeat blinks the status LED once a second.
var Heartbeat = types.HeartbeatConfig{IntervalMs: 1000, LED: LEDName}
