// Package platform provides the board resource registries HAL runs on.
package platform

// Board wiring shared by the host simulation and the Pico build.
const (
	DHTPin = 15
	LEDPin = 25
)
