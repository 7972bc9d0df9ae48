//go:build rp2040

package platform

import (
	"machine"
	"sync"

	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/core"
)

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) Number() int { return r.n }
func (r *rp2Pin) ConfigureInput(pull core.Pull) error {
	var mode machine.PinMode
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}
func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Set(initial)
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}
func (r *rp2Pin) Set(b bool) { r.p.Set(b) }
func (r *rp2Pin) Get() bool  { return r.p.Get() }
func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

// rp2Registry hands out GPIOs and the SysTick cycle counter.
type rp2Registry struct {
	mu    sync.Mutex
	used  map[int]string
	cache map[int]*rp2Pin
	tick  *sysTick
}

var _ core.CycleSource = (*rp2Registry)(nil)

func NewResourceRegistry() core.ResourceRegistry {
	return &rp2Registry{
		used:  make(map[int]string),
		cache: make(map[int]*rp2Pin),
		tick:  startSysTick(),
	}
}

func (g *rp2Registry) lookup(n int) (*rp2Pin, bool) {
	if n < 0 || n > 28 {
		return nil, false
	}
	if p, ok := g.cache[n]; ok {
		return p, true
	}
	h := &rp2Pin{p: machine.Pin(n), n: n}
	g.cache[n] = h
	return h, true
}

func (g *rp2Registry) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.lookup(n)
	if !ok {
		return nil, errcode.UnknownPin
	}
	if owner, inUse := g.used[n]; inUse && owner != devID {
		return nil, errcode.PinInUse
	}
	g.used[n] = devID
	return h, nil
}

func (g *rp2Registry) ReleaseGPIO(devID string, n int) {
	g.mu.Lock()
	if owner, ok := g.used[n]; ok && owner == devID {
		delete(g.used, n)
	}
	g.mu.Unlock()
}

func (g *rp2Registry) Cycles() uint32 { return g.tick.Cycles() }
func (g *rp2Registry) CPUHz() uint32  { return machine.CPUFrequency() }
