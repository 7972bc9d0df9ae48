// Package hal owns the hardware: it builds devices from config/hal, exposes
// them as capabilities under hal/cap/... and schedules periodic reads.
package hal

import (
	"context"

	"dhtcode-go/bus"
	"dhtcode-go/services/hal/internal/core"
	"dhtcode-go/services/hal/internal/platform"

	// Device builders register themselves.
	_ "dhtcode-go/services/hal/devices/dht11"
	_ "dhtcode-go/services/hal/devices/gpio_dout"
)

// Run serves the HAL on conn with the platform's resources until ctx ends.
func Run(ctx context.Context, conn *bus.Connection) {
	RunWith(ctx, conn, platform.NewResourceRegistry())
}

// RunWith is Run with an explicit resource registry. On the host this is how
// a simulated sensor is attached.
func RunWith(ctx context.Context, conn *bus.Connection, reg core.ResourceRegistry) {
	println("[hal] starting")
	core.NewHAL(conn, reg).Run(ctx)
}
