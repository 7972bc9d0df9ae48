package dht11_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers"

	"dhtcode-go/drivers/dht11"
	"dhtcode-go/drivers/dht11/dht11sim"
)

const testHz = 1_000_000 // one counter step per microsecond

func newScripted(t *testing.T, s *dht11sim.Script, cfgs ...dht11.Config) (*dht11.Device, *dht11sim.Sleeps) {
	t.Helper()
	sleeps := &dht11sim.Sleeps{}
	d := dht11.New(s, &dht11sim.Counter{}, testHz)
	cfg := dht11.Config{Sleeper: sleeps}
	if len(cfgs) > 0 {
		cfg.Trace = cfgs[0].Trace
	}
	require.NoError(t, d.Configure(cfg))
	return &d, sleeps
}

func TestRead_ScenarioA(t *testing.T) {
	s := dht11sim.ForFrame(dht11.Frame{0x32, 0x00, 0x18, 0x00, 0x4A})
	d, sleeps := newScripted(t, s)

	r, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dht11.Reading{Humidity: 50, Temperature: 24}, r)
	assert.Equal(t, []time.Duration{dht11.StartLow, dht11.StartHigh}, sleeps.Got)
	assert.True(t, s.Parked())
	assert.Equal(t, 1, s.Remaining(), "only the final idle-low sample should be left")
}

func TestRead_ScenarioB_ChecksumError(t *testing.T) {
	s := dht11sim.ForFrame(dht11.Frame{0x32, 0x00, 0x18, 0x00, 0x4B})
	d, _ := newScripted(t, s)

	r, err := d.Read(context.Background())
	require.ErrorIs(t, err, dht11.ErrChecksum)
	assert.Equal(t, dht11.Reading{}, r)
	assert.True(t, s.Parked())
}

func TestRead_ScenarioC_NoAck(t *testing.T) {
	s := dht11sim.NewScript() // floats high forever
	d, _ := newScripted(t, s)

	_, err := d.Read(context.Background())
	require.ErrorIs(t, err, dht11.ErrTimeout)
	var te *dht11.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, dht11.EdgeAckLow, te.Edge)
	assert.Equal(t, -1, te.Bit)
	assert.True(t, s.Parked(), "line must be parked high after a timeout")
}

func TestRead_TimeoutPerEdge(t *testing.T) {
	cases := []struct {
		name   string
		script func() *dht11sim.Script
		edge   dht11.Edge
		bit    int
		left   int
	}{
		{
			name: "ack high",
			script: func() *dht11sim.Script {
				return dht11sim.NewScript().Hold(true, 2).Hold(false, 200)
			},
			edge: dht11.EdgeAckHigh, bit: -1,
			left: 200 - 1 - 101,
		},
		{
			name: "data low",
			script: func() *dht11sim.Script {
				return dht11sim.NewScript().Hold(true, 2).Hold(false, 5).Hold(true, 150).Hold(false, 10)
			},
			edge: dht11.EdgeDataLow, bit: -1,
			left: 150 - 1 - 101 + 10,
		},
		{
			name: "bit start",
			script: func() *dht11sim.Script {
				return dht11sim.NewScript().Ack().Bit(8).Bit(30).Hold(false, 150).Hold(true, 10)
			},
			edge: dht11.EdgeBitStart, bit: 2,
			left: 10 + 150 - 1 - 1 - 101,
		},
		{
			name: "bit end",
			script: func() *dht11sim.Script {
				return dht11sim.NewScript().Ack().Bit(8).Hold(false, 3).Hold(true, 320).Hold(false, 10)
			},
			edge: dht11.EdgeBitEnd, bit: 1,
			left: 320 - 1 - 200 - 101 + 10,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.script()
			d, _ := newScripted(t, s)

			_, err := d.Read(context.Background())
			require.ErrorIs(t, err, dht11.ErrTimeout)
			var te *dht11.TimeoutError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.edge, te.Edge)
			assert.Equal(t, tc.bit, te.Bit)
			assert.Equal(t, tc.left, s.Remaining(), "no polling after the timeout")
			assert.True(t, s.Parked())
		})
	}
}

func TestRead_EdgeBudgetIsInclusive(t *testing.T) {
	// 100 polls at the wrong level are tolerated; the 101st is not.
	ok := dht11sim.NewScript().Hold(true, 100).Hold(false, 5).Hold(true, 5).Frame(dht11.NewFrame(1, 0, 2, 0))
	d, _ := newScripted(t, ok)
	_, err := d.Read(context.Background())
	require.NoError(t, err)

	late := dht11sim.NewScript().Hold(true, 101).Hold(false, 5).Hold(true, 5).Frame(dht11.NewFrame(1, 0, 2, 0))
	d, _ = newScripted(t, late)
	_, err = d.Read(context.Background())
	require.ErrorIs(t, err, dht11.ErrTimeout)
}

func TestRead_BitBoundary(t *testing.T) {
	// First byte: bit 7 is 20 µs (0), bit 6 is 21 µs (1), rest zero.
	// Byte value 0x40; the checksum byte must match.
	s := dht11sim.NewScript().Ack().Bit(20).Bit(21)
	for i := 0; i < 6; i++ {
		s.Bit(8)
	}
	rest := dht11.Frame{0x40, 0, 0, 0, 0x40}
	for _, b := range rest[1:] {
		for i := 7; i >= 0; i-- {
			if b&(1<<uint(i)) != 0 {
				s.Bit(30)
			} else {
				s.Bit(8)
			}
		}
	}
	s.Hold(false, 3)

	d, _ := newScripted(t, s)
	r, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(64), r.Humidity)
}

func TestRead_RandomFrames(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		b := [4]byte{byte(rng.Intn(256)), byte(rng.Intn(10)), byte(rng.Intn(256)), byte(rng.Intn(10))}
		f := dht11.NewFrame(b[0], b[1], b[2], b[3])

		d, _ := newScripted(t, dht11sim.ForFrame(f))
		r, err := d.Read(context.Background())
		require.NoError(t, err, "frame %v", f)
		assert.Equal(t, float32(b[0])+float32(b[1])*0.1, r.Humidity)
		assert.Equal(t, float32(b[2])+float32(b[3])*0.1, r.Temperature)

		bad := f
		bad[4]++
		d, _ = newScripted(t, dht11sim.ForFrame(bad))
		_, err = d.Read(context.Background())
		require.ErrorIs(t, err, dht11.ErrChecksum, "frame %v", bad)
	}
}

func TestRead_TraceSink(t *testing.T) {
	f := dht11.Frame{0x32, 0x00, 0x18, 0x00, 0x4A}
	var (
		got   dht11.PulseTrace
		raw   dht11.Frame
		calls int
	)
	sink := func(tr dht11.PulseTrace, fr dht11.Frame) {
		got, raw = tr, fr
		calls++
	}
	d, _ := newScripted(t, dht11sim.ForFrame(f), dht11.Config{Trace: sink})

	_, err := d.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	assert.Equal(t, f, raw)
	// 0x32 = 0011 0010
	assert.Equal(t, uint8(dht11.TraceLen), got.N)
	assert.Equal(t, [dht11.TraceLen]uint16{8, 8, 30, 30, 8, 8, 30, 8}, got.Widths)
}

func TestRead_TraceSinkSeesCorruptFrame(t *testing.T) {
	f := dht11.Frame{0x32, 0x00, 0x18, 0x00, 0x4B}
	var raw dht11.Frame
	d, _ := newScripted(t, dht11sim.ForFrame(f), dht11.Config{Trace: func(_ dht11.PulseTrace, fr dht11.Frame) { raw = fr }})

	_, err := d.Read(context.Background())
	require.ErrorIs(t, err, dht11.ErrChecksum)
	assert.Equal(t, f, raw)
}

func TestRead_CancelledDuringStart(t *testing.T) {
	s := dht11sim.ForFrame(dht11.NewFrame(50, 0, 24, 0))
	d, _ := newScripted(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, s.Parked())
	assert.Zero(t, s.InputSwitches(), "line must not be released to the sensor")
	assert.Zero(t, s.Consumed())
}

func TestRead_TimerSleeperHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	err := dht11.TimerSleeper.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, dht11.TimerSleeper.Sleep(context.Background(), time.Microsecond))
}

func TestUpdate_SensorAccessors(t *testing.T) {
	d, _ := newScripted(t, dht11sim.ForFrame(dht11.NewFrame(45, 3, 22, 7)))

	require.NoError(t, d.Update(drivers.Temperature|drivers.Humidity))
	assert.Equal(t, int32(227), d.DeciCelsius())
	assert.Equal(t, int32(453), d.DeciRelHumidity())
	assert.Equal(t, int32(22700), d.Temperature())
	assert.Equal(t, int32(4530), d.Humidity())
	assert.InDelta(t, 22.7, d.Celsius(), 1e-5)
	assert.InDelta(t, 45.3, d.RelHumidity(), 1e-5)

	// Unrelated measurements do not touch the line.
	require.NoError(t, d.Update(drivers.Pressure))
}

func TestUpdate_KeepsLastOnError(t *testing.T) {
	s := dht11sim.ForFrame(dht11.NewFrame(45, 0, 22, 0))
	d, _ := newScripted(t, s)
	require.NoError(t, d.Update(drivers.AllMeasurements))

	// Script exhausted: the next read times out.
	require.ErrorIs(t, d.Update(drivers.Temperature), dht11.ErrTimeout)
	assert.Equal(t, dht11.Reading{Humidity: 45, Temperature: 22}, d.Last())
}

func TestRead_SimulatedSensor(t *testing.T) {
	cases := []struct {
		name string
		cfg  dht11sim.SensorConfig
	}{
		{name: "125MHz", cfg: dht11sim.SensorConfig{}},
		{name: "48MHz", cfg: dht11sim.SensorConfig{CPUHz: 48_000_000, Step: 3}},
		{name: "counter wraps mid-read", cfg: dht11sim.SensorConfig{StartFrom: 0xFFFF_0000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sen := dht11sim.NewSensor(tc.cfg, dht11.NewFrame(61, 0, 19, 0))
			d := dht11.New(sen, sen, sen.CPUHz())
			require.NoError(t, d.Configure(dht11.Config{Sleeper: sen}))

			r, err := d.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, dht11.Reading{Humidity: 61, Temperature: 19}, r)
			assert.True(t, sen.Parked())
			assert.Equal(t, 1, sen.Reads())

			// A second read works from the parked state.
			sen.SetReading(33, 27)
			r, err = d.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, dht11.Reading{Humidity: 33, Temperature: 27}, r)
		})
	}
}

func TestRead_SimulatedFaults(t *testing.T) {
	cases := []struct {
		fault dht11sim.Fault
		edge  dht11.Edge
	}{
		{dht11sim.FaultNoResponse, dht11.EdgeAckLow},
		{dht11sim.FaultStuckLow, dht11.EdgeAckHigh},
		{dht11sim.FaultTruncated, dht11.EdgeBitEnd},
	}
	for _, tc := range cases {
		sen := dht11sim.NewSensor(dht11sim.SensorConfig{}, dht11.NewFrame(50, 0, 24, 0))
		sen.SetFault(tc.fault)
		d := dht11.New(sen, sen, sen.CPUHz())
		require.NoError(t, d.Configure(dht11.Config{Sleeper: sen}))

		_, err := d.Read(context.Background())
		var te *dht11.TimeoutError
		require.True(t, errors.As(err, &te), "fault %d: %v", tc.fault, err)
		assert.Equal(t, tc.edge, te.Edge)
		assert.True(t, sen.Parked())
	}
}
