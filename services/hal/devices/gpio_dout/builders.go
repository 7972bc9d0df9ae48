package gpio_dout

import (
	"context"

	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/core"
)

func init() {
	core.RegisterBuilder("gpio_led", builderLED{})
}

type builderLED struct{}

func (builderLED) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, err := parseParams(in.Params)
	if err != nil {
		return nil, err
	}
	h, err := in.Res.Reg.ClaimGPIO(in.ID, p.Pin)
	if err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "gpio_led.claim_gpio", err)
	}
	return New(in.ID, p, h, in.Res), nil
}

func parseParams(v any) (Params, error) {
	switch p := v.(type) {
	case Params:
		return p, nil
	case *Params:
		if p != nil {
			return *p, nil
		}
	}
	return Params{}, errcode.InvalidParams
}
