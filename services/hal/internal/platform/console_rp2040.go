//go:build rp2040

package platform

import (
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// ConsoleBaud is the telemetry console rate on UART0.
const ConsoleBaud = 115200

// OpenConsole configures UART0 on its default pins and returns it as the
// console writer.
func OpenConsole(baud uint32) (io.Writer, error) {
	hw := uartx.UART0
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		return nil, err
	}
	return hw, nil
}
