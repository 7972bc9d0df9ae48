//go:build rp2040

package hal

import (
	"io"

	"dhtcode-go/services/hal/internal/platform"
)

// OpenConsole returns the board's telemetry UART.
func OpenConsole() (io.Writer, error) {
	return platform.OpenConsole(platform.ConsoleBaud)
}
