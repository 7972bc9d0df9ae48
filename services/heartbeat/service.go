package heartbeat

import (
	"context"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/types"
	"dhtcode-go/x/timex"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

const defaultInterval = time.Second

// Service prints a heartbeat and toggles the status LED on every tick.
type Service struct {
	led string // io/led/<name>; empty disables toggling
}

func ledToggle(name string) bus.Topic {
	return bus.T("hal", "cap", "io", "led", name, "control", "toggle")
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			println("[heartbeat]", timex.NowMs())
			if s.led != "" {
				conn.Publish(conn.NewMessage(ledToggle(s.led), nil, false))
			}
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.HeartbeatConfig)
			if !ok {
				println("[heartbeat] ignoring config payload")
				continue
			}
			s.led = cfg.LED
			if cfg.IntervalMs > 0 {
				tick.Reset(timex.Ms(cfg.IntervalMs))
				println("[heartbeat] interval set to", cfg.IntervalMs, "ms")
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
