// Package dht11 provides a bit-banged driver for the DHT11 single-wire
// temperature/humidity sensor.
//
// A read runs the sensor protocol as a sequential state machine:
//
//	SendStart -> AwaitAckLow -> AwaitAckHigh -> AwaitDataLow
//	          -> ReadBit x40 -> Checksum -> Done
//
// Only the start-signal holds (20 ms low, 40 µs high) suspend the caller via
// the Sleeper. Every other wait is a busy poll at ~1 µs resolution keyed to a
// hardware cycle counter, so the calling goroutine is blocked for the rest of
// the exchange (typically 4-5 ms, bounded at ~16 ms).
//
// A Device is not safe for concurrent use. Readings must be spaced at least
// MinInterval apart; the driver does not enforce this.
package dht11

import (
	"context"
	"time"

	"tinygo.org/x/drivers"
)

// Protocol timing.
const (
	StartLow    = 20 * time.Millisecond // datasheet minimum is 18 ms
	StartHigh   = 40 * time.Microsecond // 20-40 µs release
	MinInterval = 2 * time.Second       // minimum spacing between reads

	edgeBudgetUs = 100 // per-edge wait cap
	highCapUs    = 200 // hard ceiling on a single high-pulse measurement
	oneAboveUs   = 20  // high time strictly above this decodes as 1

	frameBits = 40
)

// Line is the bidirectional digital I/O line the sensor is attached to.
type Line interface {
	ConfigureOutput(initial bool) error
	ConfigureInputPullup() error
	Set(high bool)
	Get() bool
}

// Sleeper suspends the caller for d. Implementations should return early
// with ctx.Err() if ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(ctx context.Context, d time.Duration) error

func (f SleepFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper suspends on a runtime timer, which yields to the scheduler.
var TimerSleeper Sleeper = SleepFunc(func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Sleeper is used for the two start-signal holds. Default TimerSleeper.
	Sleeper Sleeper
	// Trace, if set, receives the first pulse widths and the raw frame.
	Trace TraceSink
}

// Device is a DHT11 attached to one Line.
type Device struct {
	line  Line
	delay Delay
	sleep Sleeper
	trace TraceSink

	last Reading // last validated reading, for the Sensor accessors
}

// New creates a driver for a sensor on line, timing busy waits with counter
// running at cpuHz. It does not touch the line; call Configure before reading.
func New(line Line, counter CycleCounter, cpuHz uint32) Device {
	return Device{
		line:  line,
		delay: NewDelay(counter, cpuHz),
		sleep: TimerSleeper,
	}
}

// Configure applies optional config and parks the line as output-high, the
// idle level the sensor expects between reads.
func (d *Device) Configure(cfgs ...Config) error {
	if len(cfgs) > 0 {
		c := cfgs[0]
		if c.Sleeper != nil {
			d.sleep = c.Sleeper
		}
		d.trace = c.Trace
	}
	if d.sleep == nil {
		d.sleep = TimerSleeper
	}
	return d.line.ConfigureOutput(true)
}

// Read performs one full exchange with the sensor.
//
// It returns a Reading only if the frame checksum holds. A *TimeoutError
// (errors.Is ErrTimeout) means an edge did not arrive in time; ErrChecksum
// means the frame was corrupt. ctx is only observed during the two start
// holds. The line is parked output-high on every return path.
func (d *Device) Read(ctx context.Context) (Reading, error) {
	s := session{d: d}
	defer d.park()
	for !s.phase.terminal() {
		s.step(ctx)
	}
	if s.phase == PhaseFailed {
		return Reading{}, s.err
	}
	d.last = s.reading
	return s.reading, nil
}

func (d *Device) park() {
	_ = d.line.ConfigureOutput(true)
}

// Update implements drivers.Sensor. Temperature and humidity are always
// measured together.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	_, err := d.Read(context.Background())
	return err
}

// Last returns the most recent validated reading.
func (d *Device) Last() Reading { return d.last }

// Celsius returns the last temperature in °C.
func (d *Device) Celsius() float32 { return d.last.Temperature }

// RelHumidity returns the last relative humidity in percent.
func (d *Device) RelHumidity() float32 { return d.last.Humidity }

// DeciCelsius returns tenths of °C.
func (d *Device) DeciCelsius() int32 { return roundTenths(d.last.Temperature) }

// DeciRelHumidity returns tenths of %RH.
func (d *Device) DeciRelHumidity() int32 { return roundTenths(d.last.Humidity) }

// Temperature returns milli-°C, matching the tinygo drivers convention.
func (d *Device) Temperature() int32 { return d.DeciCelsius() * 100 }

// Humidity returns hundredths of %RH.
func (d *Device) Humidity() int32 { return d.DeciRelHumidity() * 10 }

func roundTenths(v float32) int32 {
	if v < 0 {
		return int32(v*10 - 0.5)
	}
	return int32(v*10 + 0.5)
}
