package dht11sim

import (
	"context"
	"sync"
	"time"

	"dhtcode-go/drivers/dht11"
	"dhtcode-go/x/mathx"
)

// Datasheet response timings in microseconds.
const (
	respDelayUs = 30 // high after release before the sensor answers
	ackLowUs    = 80
	ackHighUs   = 80
	bitLowUs    = 50
	zeroHighUs  = 26
	oneHighUs   = 70
)

// Fault alters the simulated sensor's response.
type Fault uint8

const (
	FaultNone       Fault = iota
	FaultNoResponse       // never acknowledges; the line floats high
	FaultStuckLow         // acknowledges low and never releases
	FaultTruncated        // stops transmitting halfway through the frame
)

// SensorConfig parameterises the simulated clock.
type SensorConfig struct {
	CPUHz     uint32 // default 125 MHz
	Step      uint32 // cycles added per counter read; default 4
	ReadCost  uint32 // cycles added per line read; default 1 µs worth
	StartFrom uint32 // initial counter value, to exercise wraparound
}

// Sensor models a DHT11 attached to a line, on a simulated cycle clock. It
// implements dht11.Line, dht11.CycleCounter and dht11.Sleeper so a driver can
// run against it unchanged. Time only advances when the driver reads the
// counter, reads the line, or sleeps, so results are deterministic.
type Sensor struct {
	mu  sync.Mutex
	cfg SensorConfig

	now      uint64 // cycles
	output   bool
	driven   bool
	released uint64 // cycle at which the host switched to input; 0 = never
	armed    bool   // a start signal of adequate length was seen
	lowSince uint64

	frame dht11.Frame
	fault Fault
	edges []uint32 // cumulative µs boundaries of the current response
	reads int
}

// NewSensor returns a simulated sensor transmitting f.
func NewSensor(cfg SensorConfig, f dht11.Frame) *Sensor {
	if cfg.CPUHz == 0 {
		cfg.CPUHz = 125_000_000
	}
	if cfg.Step == 0 {
		cfg.Step = 4
	}
	if cfg.ReadCost == 0 {
		cfg.ReadCost = mathx.CeilDiv(cfg.CPUHz, 1_000_000)
	}
	s := &Sensor{cfg: cfg, now: uint64(cfg.StartFrom), frame: f, output: true, driven: true}
	return s
}

// CPUHz returns the simulated clock frequency.
func (s *Sensor) CPUHz() uint32 { return s.cfg.CPUHz }

// SetFrame changes what the sensor transmits on the next read.
func (s *Sensor) SetFrame(f dht11.Frame) {
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
}

// SetReading is SetFrame for integer humidity and temperature.
func (s *Sensor) SetReading(humidity, temperature uint8) {
	s.SetFrame(dht11.NewFrame(humidity, 0, temperature, 0))
}

// SetFault injects a response fault for subsequent reads.
func (s *Sensor) SetFault(f Fault) {
	s.mu.Lock()
	s.fault = f
	s.mu.Unlock()
}

// Reads returns the number of completed start signals seen.
func (s *Sensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Parked reports whether the line is an output driven high.
func (s *Sensor) Parked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output && s.driven
}

func (s *Sensor) Cycles() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += uint64(s.cfg.Step)
	return uint32(s.now)
}

func (s *Sensor) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.now += uint64(d) * uint64(s.cfg.CPUHz) / uint64(time.Second)
	s.mu.Unlock()
	return nil
}

func (s *Sensor) ConfigureOutput(initial bool) error {
	s.mu.Lock()
	s.setDriven(initial)
	s.output = true
	s.released = 0
	s.mu.Unlock()
	return nil
}

func (s *Sensor) ConfigureInputPullup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = false
	s.released = 0
	if s.armed {
		s.armed = false
		s.released = s.now
		s.reads++
		s.edges = s.response()
	}
	return nil
}

func (s *Sensor) Set(high bool) {
	s.mu.Lock()
	if s.output {
		s.setDriven(high)
	}
	s.mu.Unlock()
}

// setDriven tracks the start-signal low: the sensor only answers after the
// host held the line low for at least 18 ms.
func (s *Sensor) setDriven(high bool) {
	switch {
	case !high && (s.driven || !s.output):
		s.lowSince = s.now
	case high && s.output && !s.driven:
		s.armed = s.now-s.lowSince >= uint64(s.cfg.CPUHz)/1000*18
	}
	s.driven = high
}

func (s *Sensor) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += uint64(s.cfg.ReadCost)
	if s.output {
		return s.driven
	}
	if s.released == 0 {
		return true
	}
	us := uint32((s.now - s.released) * 1_000_000 / uint64(s.cfg.CPUHz))
	return levelAt(s.edges, us)
}

// response lays out the level boundaries of one transmission. Even segments
// are high, odd segments low, starting with the post-release high.
func (s *Sensor) response() []uint32 {
	switch s.fault {
	case FaultNoResponse:
		return nil
	case FaultStuckLow:
		return []uint32{respDelayUs, 1 << 31}
	}
	var e []uint32
	t := uint32(0)
	push := func(d uint32) { t += d; e = append(e, t) }
	push(respDelayUs)
	push(ackLowUs)
	push(ackHighUs)
	bits := 40
	if s.fault == FaultTruncated {
		bits = 20
	}
	for i := 0; i < bits; i++ {
		push(bitLowUs)
		if s.frame[i/8]&(1<<uint(7-i%8)) != 0 {
			push(oneHighUs)
		} else {
			push(zeroHighUs)
		}
	}
	push(bitLowUs)
	return e
}

// levelAt returns the line level us microseconds after release.
func levelAt(edges []uint32, us uint32) bool {
	for i, t := range edges {
		if us < t {
			return i%2 == 0
		}
	}
	return true
}
