package gpio_dout

import (
	"context"

	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/core"
	"dhtcode-go/types"
	"dhtcode-go/x/timex"
)

type Params struct {
	Pin       int
	ActiveLow bool
	Initial   bool
	Domain    string // default "io"
	Name      string // default device ID
}

// Device drives a single status LED.
type Device struct {
	id        string
	pin       core.GPIOHandle
	activeLow bool
	initial   bool
	res       core.Resources
	addr      core.CapAddr
}

func New(id string, p Params, h core.GPIOHandle, res core.Resources) *Device {
	d := &Device{
		id:        id,
		pin:       h,
		activeLow: p.ActiveLow,
		initial:   p.Initial,
		res:       res,
		addr:      core.CapAddr{Domain: p.Domain, Kind: types.KindLED, Name: p.Name},
	}
	if d.addr.Name == "" {
		d.addr.Name = id
	}
	if d.addr.Domain == "" {
		d.addr.Domain = "io"
	}
	return d
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindLED,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "gpio_dout",
			Detail:        types.LEDInfo{Pin: d.pin.Number(), ActiveLow: d.activeLow},
		},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	if err := d.pin.ConfigureOutput(d.level(d.initial)); err != nil {
		return err
	}
	d.emitValue()
	return nil
}

func (d *Device) Close() error {
	d.res.Reg.ReleaseGPIO(d.id, d.pin.Number())
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	switch verb {
	case "set":
		p, code := core.As[types.LEDSet](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		d.pin.Set(d.level(p.On))
	case "toggle":
		d.pin.Toggle()
	case "read":
	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
	d.emitValue()
	return core.EnqueueResult{OK: true}, nil
}

// level maps a logical on/off to the electrical pin level.
func (d *Device) level(on bool) bool { return on != d.activeLow }

func (d *Device) emitValue() {
	_ = d.res.Pub.Emit(core.Event{
		Addr:    d.addr,
		Payload: types.LEDValue{On: d.level(d.pin.Get())},
		TSms:    timex.NowMs(),
	})
}
