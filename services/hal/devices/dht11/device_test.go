package dht11dev

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhtcode-go/drivers/dht11"
	"dhtcode-go/drivers/dht11/dht11sim"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/core"
	"dhtcode-go/services/hal/internal/platform"
	"dhtcode-go/types"
)

type recorder struct {
	mu  sync.Mutex
	evs []core.Event
}

func (r *recorder) Emit(ev core.Event) bool {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
	return true
}

func (r *recorder) snapshot() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.evs...)
}

// waitN blocks until at least n events were emitted.
func (r *recorder) waitN(t *testing.T, n int) []core.Event {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, 2*time.Second, time.Millisecond)
	return r.snapshot()
}

// noCounter lacks the CycleSource feature.
type noCounter struct{}

func (noCounter) ClaimGPIO(string, int) (core.GPIOHandle, error) { return nil, errcode.Error }
func (noCounter) ReleaseGPIO(string, int)                        {}

func newDevice(t *testing.T, p Params) (*Device, *platform.HostRegistry, *recorder) {
	t.Helper()
	reg := platform.NewHost(platform.HostConfig{})
	rec := &recorder{}
	dev, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID: "dht0", Type: "dht11", Params: p,
		Res: core.Resources{Reg: reg, Pub: rec},
	})
	require.NoError(t, err)
	d := dev.(*Device)
	require.NoError(t, d.Init(context.Background()))
	t.Cleanup(func() { _ = d.Close() })
	return d, reg, rec
}

func TestBuild_Errors(t *testing.T) {
	in := core.BuilderInput{ID: "dht0", Params: "15", Res: core.Resources{Reg: platform.NewHost(platform.HostConfig{})}}
	_, err := builder{}.Build(context.Background(), in)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	in = core.BuilderInput{ID: "dht0", Params: Params{Pin: 15}, Res: core.Resources{Reg: noCounter{}}}
	_, err = builder{}.Build(context.Background(), in)
	assert.Equal(t, errcode.Unsupported, errcode.Of(err))

	in = core.BuilderInput{ID: "dht0", Params: &Params{Pin: 40}, Res: core.Resources{Reg: platform.NewHost(platform.HostConfig{})}}
	_, err = builder{}.Build(context.Background(), in)
	assert.Equal(t, errcode.UnknownPin, errcode.Of(err))
}

func TestCapabilities(t *testing.T) {
	d, _, _ := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 1})
	caps := d.Capabilities()
	require.Len(t, caps, 2)

	assert.Equal(t, "env", caps[0].Domain)
	assert.Equal(t, types.KindTemperature, caps[0].Kind)
	assert.Equal(t, "dht0", caps[0].Name)
	assert.Equal(t, types.TemperatureInfo{Sensor: "dht11", Pin: platform.DHTPin, MinIntervalMs: 1}, caps[0].Info.Detail)

	assert.Equal(t, types.KindHumidity, caps[1].Kind)
	assert.Equal(t, "dht0", caps[1].Name)
}

func TestMinInterval_Default(t *testing.T) {
	d, _, _ := newDevice(t, Params{Pin: platform.DHTPin})
	assert.Equal(t, dht11.MinInterval, d.minGap)
}

func TestRead_EmitsValues(t *testing.T) {
	d, reg, rec := newDevice(t, Params{Pin: platform.DHTPin, Name: "room", MinIntervalMs: 1})

	res, err := d.Control(d.tempAddr, "read", nil)
	require.NoError(t, err)
	require.True(t, res.OK)

	evs := rec.waitN(t, 2)
	require.Len(t, evs, 2)
	assert.Equal(t, core.CapAddr{Domain: "env", Kind: types.KindTemperature, Name: "room"}, evs[0].Addr)
	assert.NotZero(t, evs[0].TSms)
	assert.Equal(t, types.TemperatureValue{DeciC: 225, TS: evs[0].TSms}, evs[0].Payload)
	assert.Equal(t, types.KindHumidity, evs[1].Addr.Kind)
	assert.Equal(t, types.HumidityValue{RHx100: 4500, TS: evs[1].TSms}, evs[1].Payload)

	assert.Equal(t, 1, reg.Sensor().Reads())
	assert.True(t, reg.Sensor().Parked())
}

func TestRead_FractionalBytes(t *testing.T) {
	d, reg, rec := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 1})
	reg.Sensor().SetFrame(dht11.NewFrame(30, 5, 19, 7))

	_, _ = d.Control(d.tempAddr, "read", nil)
	evs := rec.waitN(t, 2)
	assert.Equal(t, types.TemperatureValue{DeciC: 197, TS: evs[0].TSms}, evs[0].Payload)
	assert.Equal(t, types.HumidityValue{RHx100: 3050, TS: evs[1].TSms}, evs[1].Payload)
}

func TestRead_Faults(t *testing.T) {
	cases := []struct {
		name  string
		setup func(s *dht11sim.Sensor)
		want  errcode.Code
	}{
		{"no response", func(s *dht11sim.Sensor) { s.SetFault(dht11sim.FaultNoResponse) }, errcode.Timeout},
		{"stuck low", func(s *dht11sim.Sensor) { s.SetFault(dht11sim.FaultStuckLow) }, errcode.Timeout},
		{"truncated", func(s *dht11sim.Sensor) { s.SetFault(dht11sim.FaultTruncated) }, errcode.Timeout},
		{"checksum", func(s *dht11sim.Sensor) { s.SetFrame(dht11.Frame{45, 0, 22, 5, 0}) }, errcode.ChecksumError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, reg, rec := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 1})
			c.setup(reg.Sensor())

			_, _ = d.Control(d.tempAddr, "read", nil)
			evs := rec.waitN(t, 2)
			for _, ev := range evs {
				assert.Equal(t, string(c.want), ev.Err)
				assert.Nil(t, ev.Payload)
			}
			assert.Equal(t, types.KindTemperature, evs[0].Addr.Kind)
			assert.Equal(t, types.KindHumidity, evs[1].Addr.Kind)
			assert.True(t, reg.Sensor().Parked(), "line parked after failure")
		})
	}
}

func TestRead_Trace(t *testing.T) {
	d, _, rec := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 1, Trace: true})

	_, _ = d.Control(d.tempAddr, "read", nil)
	evs := rec.waitN(t, 3)

	tr := evs[0]
	require.True(t, tr.IsEvent)
	assert.Equal(t, "trace", tr.EventTag)
	assert.Equal(t, types.KindTemperature, tr.Addr.Kind)
	p, ok := tr.Payload.(types.PulseTrace)
	require.True(t, ok)
	assert.NotEmpty(t, p.Widths)
	f := dht11.NewFrame(45, 0, 22, 5)
	assert.Equal(t, [5]uint8(f), p.Raw)
	assert.Equal(t, f.Sum(), p.Sum)
	assert.False(t, evs[1].IsEvent)
}

func TestControl_BusyAndUnsupported(t *testing.T) {
	d, reg, _ := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 60_000})

	res, _ := d.Control(d.tempAddr, "calibrate", nil)
	assert.False(t, res.OK)
	assert.Equal(t, errcode.Unsupported, res.Error)

	// The worker takes the first request and then waits out the spacing
	// started at Init, leaving the slot free for exactly one more.
	res, _ = d.Control(d.tempAddr, "read", nil)
	require.True(t, res.OK)
	require.Eventually(t, func() bool { return len(d.reqs) == 0 }, time.Second, time.Millisecond)

	res, _ = d.Control(d.humAddr, "read", nil)
	assert.True(t, res.OK)
	res, _ = d.Control(d.tempAddr, "read", nil)
	assert.False(t, res.OK)
	assert.Equal(t, errcode.Busy, res.Error)

	// Close interrupts the spacing wait without reading.
	require.NoError(t, d.Close())
	assert.Zero(t, reg.Sensor().Reads())
}

func TestSpacing(t *testing.T) {
	d, _, rec := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 50})
	start := time.Now()

	_, _ = d.Control(d.tempAddr, "read", nil)
	rec.waitN(t, 2)
	_, _ = d.Control(d.tempAddr, "read", nil)
	rec.waitN(t, 4)

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestClose_ReleasesPin(t *testing.T) {
	d, reg, _ := newDevice(t, Params{Pin: platform.DHTPin, MinIntervalMs: 1})
	_, err := reg.ClaimGPIO("other", platform.DHTPin)
	assert.Equal(t, errcode.PinInUse, errcode.Of(err))

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err = reg.ClaimGPIO("other", platform.DHTPin)
	assert.NoError(t, err)
}
