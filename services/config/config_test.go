package config

import (
	"context"
	"testing"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/services/hal/setups"
	"dhtcode-go/types"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) (map[string]any, bool) {
		if device != "bench" {
			return nil, false
		}
		return map[string]any{
			"hal":       types.HALConfig{Devices: []types.HALDevice{{ID: "dht0", Type: "dht11"}}},
			"heartbeat": types.HeartbeatConfig{IntervalMs: 500},
			"debug":     true,
		}, true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "bench")
	svc.Start(ctx, conn)

	// Subscribe; retained messages arrive whether or not publishing finished.
	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})

	wantCount := 3
	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) != 2 || m.Topic[0] != configPrefix {
				t.Fatalf("unexpected topic: %#v", m.Topic)
			}
			if !m.Retained {
				t.Fatalf("config/%v not retained", m.Topic[1])
			}
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	if v, ok := got["hal"].(types.HALConfig); !ok || len(v.Devices) != 1 || v.Devices[0].Type != "dht11" {
		t.Fatalf("hal payload = %#v", got["hal"])
	}
	if v, ok := got["heartbeat"].(types.HeartbeatConfig); !ok || v.IntervalMs != 500 {
		t.Fatalf("heartbeat payload = %#v", got["heartbeat"])
	}
	if v, ok := got["debug"].(bool); !ok || !v {
		t.Fatalf("debug payload = %#v", got["debug"])
	}
}

func TestConfig_DefaultPicoConfig(t *testing.T) {
	m, ok := EmbeddedConfigLookup("pico")
	if !ok {
		t.Fatal("no pico config")
	}
	hal, ok := m["hal"].(types.HALConfig)
	if !ok {
		t.Fatalf("hal section type %T", m["hal"])
	}
	kinds := map[string]bool{}
	for _, d := range hal.Devices {
		kinds[d.Type] = true
	}
	if !kinds["dht11"] || !kinds["gpio_led"] {
		t.Fatalf("pico setup lacks sensor or LED: %v", kinds)
	}
	if len(hal.Pollers) != 1 || hal.Pollers[0].Name != setups.SensorName || hal.Pollers[0].IntervalMs < 2000 {
		t.Fatalf("pico poller = %#v", hal.Pollers)
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService()

	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing device ID, got nil")
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) (map[string]any, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for missing embedded config, got nil")
	}
}
