//go:build !rp2040

package platform

import (
	"context"
	"sync"
	"time"

	"dhtcode-go/drivers/dht11"
	"dhtcode-go/drivers/dht11/dht11sim"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/core"
)

// FakePin is an inert host GPIO.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) ConfigureInput(_ core.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut, p.level = true, initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) Toggle() {
	p.mu.Lock()
	p.level = !p.level
	p.mu.Unlock()
}

// IsOutput reports the configured direction.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// sensorPin presents the simulated sensor's data line as a GPIO.
type sensorPin struct {
	n int
	s *dht11sim.Sensor
}

func (p sensorPin) Number() int                        { return p.n }
func (p sensorPin) ConfigureInput(core.Pull) error     { return p.s.ConfigureInputPullup() }
func (p sensorPin) ConfigureOutput(initial bool) error { return p.s.ConfigureOutput(initial) }
func (p sensorPin) Set(v bool)                         { p.s.Set(v) }
func (p sensorPin) Get() bool                          { return p.s.Get() }
func (p sensorPin) Toggle()                            { p.s.Set(!p.s.Get()) }

// HostConfig describes the simulated board.
type HostConfig struct {
	SensorPin int         // default DHTPin
	Frame     dht11.Frame // initial transmission; default 45 %RH, 22.5 °C
	Sensor    dht11sim.SensorConfig
}

// HostRegistry is the host-side resource registry. One pin carries a
// simulated DHT11 whose clock also backs the CycleSource and SleepSource
// features; every other pin is a FakePin.
type HostRegistry struct {
	mu        sync.Mutex
	used      map[int]string
	pins      map[int]*FakePin
	sensor    *dht11sim.Sensor
	sensorPin int
}

var (
	_ core.ResourceRegistry = (*HostRegistry)(nil)
	_ core.CycleSource      = (*HostRegistry)(nil)
	_ core.SleepSource      = (*HostRegistry)(nil)
)

func NewHost(cfg HostConfig) *HostRegistry {
	if cfg.SensorPin == 0 {
		cfg.SensorPin = DHTPin
	}
	if cfg.Frame == (dht11.Frame{}) {
		cfg.Frame = dht11.NewFrame(45, 0, 22, 5)
	}
	return &HostRegistry{
		used:      make(map[int]string),
		pins:      make(map[int]*FakePin),
		sensor:    dht11sim.NewSensor(cfg.Sensor, cfg.Frame),
		sensorPin: cfg.SensorPin,
	}
}

// NewResourceRegistry returns the default host board.
func NewResourceRegistry() core.ResourceRegistry { return NewHost(HostConfig{}) }

// Sensor exposes the simulated DHT11 so demos and tests can change what it
// transmits or inject faults.
func (r *HostRegistry) Sensor() *dht11sim.Sensor { return r.sensor }

// Pin returns the fake pin n, if it has been created.
func (r *HostRegistry) Pin(n int) (*FakePin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pins[n]
	return p, ok
}

func (r *HostRegistry) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 || n > 29 {
		return nil, errcode.UnknownPin
	}
	if owner, inUse := r.used[n]; inUse && owner != devID {
		return nil, errcode.PinInUse
	}
	r.used[n] = devID
	if n == r.sensorPin {
		return sensorPin{n: n, s: r.sensor}, nil
	}
	p, ok := r.pins[n]
	if !ok {
		p = &FakePin{number: n}
		r.pins[n] = p
	}
	return p, nil
}

func (r *HostRegistry) ReleaseGPIO(devID string, n int) {
	r.mu.Lock()
	if owner, ok := r.used[n]; ok && owner == devID {
		delete(r.used, n)
	}
	r.mu.Unlock()
}

func (r *HostRegistry) Cycles() uint32 { return r.sensor.Cycles() }
func (r *HostRegistry) CPUHz() uint32  { return r.sensor.CPUHz() }

func (r *HostRegistry) Sleep(ctx context.Context, d time.Duration) error {
	return r.sensor.Sleep(ctx, d)
}
