//go:build !rp2040

// Command dhtcode-go runs the firmware's service graph on the host against a
// simulated DHT11. Console lines go to stdout, diagnostics to stderr:
//
//	go run . | dht-monitor -config monitor.yaml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/services/config"
	"dhtcode-go/services/console"
	"dhtcode-go/services/hal"
	"dhtcode-go/services/heartbeat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, "pico")
	println("[main] boot (host)")

	board := hal.NewHost(hal.HostConfig{})
	b := bus.NewBus(4)
	done := make(chan struct{})
	go func() {
		hal.RunWith(ctx, b.NewConnection("hal"), board)
		close(done)
	}()

	console.New(os.Stdout).Start(ctx, b.NewConnection("console"))
	if err := (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat:", err.Error())
	}
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	go drift(ctx, board)

	<-done
	println("[main] stopped")
}

// drift walks the simulated room through a slow daily-ish cycle so the
// console has something to show.
func drift(ctx context.Context, board *hal.Host) {
	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()
	temps := [...]uint8{21, 22, 23, 24, 23, 22}
	hums := [...]uint8{48, 46, 44, 41, 43, 46}
	for i := 0; ; i = (i + 1) % len(temps) {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			board.Sensor().SetReading(hums[i], temps[i])
		}
	}
}
