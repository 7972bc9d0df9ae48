//go:build rp2040

package main

import (
	"context"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/services/config"
	"dhtcode-go/services/console"
	"dhtcode-go/services/hal"
	"dhtcode-go/services/heartbeat"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")

	b := bus.NewBus(4)
	go hal.Run(ctx, b.NewConnection("hal"))

	uart, err := hal.OpenConsole()
	if err != nil {
		println("[main] console uart:", err.Error())
	} else {
		console.New(uart).Start(ctx, b.NewConnection("console"))
	}

	if err := (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat:", err.Error())
	}
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}
