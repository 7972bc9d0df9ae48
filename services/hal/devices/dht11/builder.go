package dht11dev

import (
	"context"
	"time"

	"dhtcode-go/drivers/dht11"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/core"
	"dhtcode-go/types"
	"dhtcode-go/x/mathx"
	"dhtcode-go/x/timex"
)

func init() { core.RegisterBuilder("dht11", builder{}) }

type Params struct {
	Pin           int
	Domain        string // default "env"
	Name          string // default device ID
	CPUHz         uint32 // 0 => the provider's counter frequency
	MinIntervalMs uint32 // default 2000
	Trace         bool   // emit pulse traces as event/trace
}

const (
	defaultMinIntervalMs = uint32(dht11.MinInterval / time.Millisecond)
	maxMinIntervalMs     = 10 * 60 * 1000
)

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok {
		if pp, isPtr := in.Params.(*Params); isPtr && pp != nil {
			p, ok = *pp, true
		}
	}
	if !ok || p.Pin < 0 {
		return nil, errcode.InvalidParams
	}
	// Busy-wait timing needs a cycle counter; only some providers have one.
	cs, ok := in.Res.Reg.(core.CycleSource)
	if !ok {
		return nil, errcode.Unsupported
	}
	h, err := in.Res.Reg.ClaimGPIO(in.ID, p.Pin)
	if err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "dht11.claim_gpio", err)
	}

	hz := mathx.OrDefault(p.CPUHz, cs.CPUHz())
	d := &Device{
		id:     in.ID,
		pin:    h,
		res:    in.Res,
		minGap: timex.Ms(mathx.Clamp(mathx.OrDefault(p.MinIntervalMs, defaultMinIntervalMs), 1, maxMinIntervalMs)),
		trace:  p.Trace,
		reqs:   make(chan struct{}, 1),
		now:    time.Now,
	}
	d.tempAddr = core.CapAddr{Domain: mathx.OrDefault(p.Domain, "env"), Name: mathx.OrDefault(p.Name, in.ID)}
	d.humAddr = d.tempAddr
	d.tempAddr.Kind, d.humAddr.Kind = types.KindTemperature, types.KindHumidity

	d.drv = dht11.New(line{h}, cs, hz)
	if ss, ok := in.Res.Reg.(core.SleepSource); ok {
		d.sleeper = ss
	}
	return d, nil
}

// line adapts a HAL GPIO handle to the driver's Line.
type line struct{ h core.GPIOHandle }

func (l line) ConfigureOutput(initial bool) error { return l.h.ConfigureOutput(initial) }
func (l line) ConfigureInputPullup() error        { return l.h.ConfigureInput(core.PullUp) }
func (l line) Set(high bool)                      { l.h.Set(high) }
func (l line) Get() bool                          { return l.h.Get() }
