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

// Device exposes a DHT11 as env/temperature/<name> and env/humidity/<name>.
// Reads run on a private worker because a DHT11 exchange busy-waits for
// several milliseconds.
type Device struct {
	id      string
	pin     core.GPIOHandle
	res     core.Resources
	drv     dht11.Device
	sleeper dht11.Sleeper
	minGap  time.Duration
	trace   bool

	tempAddr core.CapAddr
	humAddr  core.CapAddr

	reqs   chan struct{} // single slot; full => Busy
	cancel context.CancelFunc
	done   chan struct{}

	now  func() time.Time
	last time.Time // worker-owned: start of the previous exchange
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	ms := uint32(d.minGap / time.Millisecond)
	return []core.CapabilitySpec{
		{
			Domain: d.tempAddr.Domain,
			Kind:   types.KindTemperature,
			Name:   d.tempAddr.Name,
			Info: types.Info{
				SchemaVersion: 1, Driver: "dht11",
				Detail: types.TemperatureInfo{Sensor: "dht11", Pin: d.pin.Number(), MinIntervalMs: ms},
			},
		},
		{
			Domain: d.humAddr.Domain,
			Kind:   types.KindHumidity,
			Name:   d.humAddr.Name,
			Info: types.Info{
				SchemaVersion: 1, Driver: "dht11",
				Detail: types.HumidityInfo{Sensor: "dht11", Pin: d.pin.Number(), MinIntervalMs: ms},
			},
		},
	}
}

// Init parks the line high and starts the worker. The sensor needs the
// same settling time after power-on as between reads, so the spacing clock
// starts here.
func (d *Device) Init(ctx context.Context) error {
	cfg := dht11.Config{Sleeper: d.sleeper}
	if d.trace {
		cfg.Trace = d.emitTrace
	}
	if err := d.drv.Configure(cfg); err != nil {
		return err
	}
	wctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.last = d.now()
	go d.worker(wctx)
	return nil
}

func (d *Device) Close() error {
	if d.cancel != nil {
		d.cancel()
		<-d.done
		d.cancel = nil
	}
	d.res.Reg.ReleaseGPIO(d.id, d.pin.Number())
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, _ any) (core.EnqueueResult, error) {
	if verb != "read" {
		return core.EnqueueResult{OK: false, Error: errcode.Unsupported}, nil
	}
	select {
	case d.reqs <- struct{}{}:
		return core.EnqueueResult{OK: true}, nil
	default:
		return core.EnqueueResult{OK: false, Error: errcode.Busy}, nil
	}
}

func (d *Device) worker(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.reqs:
			if err := d.waitSpacing(ctx); err != nil {
				return
			}
			d.measure(ctx)
		}
	}
}

// waitSpacing sleeps out whatever remains of the minimum read interval.
func (d *Device) waitSpacing(ctx context.Context) error {
	rem := d.minGap - d.now().Sub(d.last)
	if rem <= 0 {
		return nil
	}
	t := time.NewTimer(rem)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *Device) measure(ctx context.Context) {
	d.last = d.now()
	_, err := d.drv.Read(ctx)
	ts := timex.NowMs()
	if err != nil {
		code := string(core.MapDriverErr(err))
		d.res.Pub.Emit(core.Event{Addr: d.tempAddr, Err: code, TSms: ts})
		d.res.Pub.Emit(core.Event{Addr: d.humAddr, Err: code, TSms: ts})
		return
	}

	decic := mathx.Clamp(d.drv.DeciCelsius(), -32768, 32767)
	rhx100 := mathx.Clamp(d.drv.DeciRelHumidity()*10, 0, 10000)
	d.res.Pub.Emit(core.Event{
		Addr:    d.tempAddr,
		Payload: types.TemperatureValue{DeciC: int16(decic), TS: ts},
		TSms:    ts,
	})
	d.res.Pub.Emit(core.Event{
		Addr:    d.humAddr,
		Payload: types.HumidityValue{RHx100: uint16(rhx100), TS: ts},
		TSms:    ts,
	})
}

func (d *Device) emitTrace(tr dht11.PulseTrace, raw dht11.Frame) {
	w := make([]uint16, tr.N)
	copy(w, tr.Widths[:tr.N])
	ts := timex.NowMs()
	d.res.Pub.Emit(core.Event{
		Addr:     d.tempAddr,
		Payload:  types.PulseTrace{Widths: w, Raw: [5]uint8(raw), Sum: raw.Sum(), TS: ts},
		TSms:     ts,
		IsEvent:  true,
		EventTag: "trace",
	})
}
