//go:build !rp2040

package hal

import "dhtcode-go/services/hal/internal/platform"

// Host is the simulated board used by host builds: fake GPIO plus a DHT11
// model on HostConfig.SensorPin.
type (
	Host       = platform.HostRegistry
	HostConfig = platform.HostConfig
)

func NewHost(cfg HostConfig) *Host { return platform.NewHost(cfg) }
