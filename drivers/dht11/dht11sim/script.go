// Package dht11sim provides simulated DHT11 hardware for host builds: a
// stepping cycle counter, a poll-indexed scripted line, and a time-based
// sensor model.
package dht11sim

import (
	"context"
	"sync"
	"time"

	"dhtcode-go/drivers/dht11"
)

// Counter is a CycleCounter that advances by Step on every read.
type Counter struct {
	mu   sync.Mutex
	Now  uint32
	Step uint32 // 0 is treated as 1
}

func (c *Counter) Cycles() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.Now
	step := c.Step
	if step == 0 {
		step = 1
	}
	c.Now += step
	return v
}

// Sleeps records the durations passed to the returned Sleeper without
// actually waiting.
type Sleeps struct {
	mu  sync.Mutex
	Got []time.Duration
}

func (s *Sleeps) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.Got = append(s.Got, d)
	s.mu.Unlock()
	return nil
}

// Script is a Line whose input level is read from a precomputed sequence:
// every Get in input mode consumes one sample. The driver polls exactly once
// per microsecond of budget, so sample counts map directly onto the
// protocol's microsecond timings without involving a clock.
//
// Once the script is exhausted the line floats high (pull-up).
type Script struct {
	levels []bool
	pos    int

	output  bool
	driven  bool
	parked  bool // last ConfigureOutput was high
	inputs  int  // ConfigureInputPullup calls
	outputs int  // ConfigureOutput calls
}

// NewScript returns an empty script.
func NewScript() *Script { return &Script{} }

// Hold appends n samples at level.
func (s *Script) Hold(level bool, n int) *Script {
	for i := 0; i < n; i++ {
		s.levels = append(s.levels, level)
	}
	return s
}

// Ack appends a compressed sensor response: 2 high samples before the sensor
// pulls low, then 5 low and 5 high samples in place of the 80/80 µs
// acknowledge. The driver only bounds each edge wait, so short holds decode
// the same as datasheet ones. The data low that follows comes from the first
// Bit.
func (s *Script) Ack() *Script {
	return s.Hold(true, 2).Hold(false, 5).Hold(true, 5)
}

// Bit appends one data bit whose measured high width will be widthUs.
// The bit's leading low is 3 samples: one ends the previous measurement,
// one satisfies the previous bit-end wait, one precedes the rise.
func (s *Script) Bit(widthUs int) *Script {
	// The rising sample is consumed by the bit-start wait, hence +1.
	return s.Hold(false, 3).Hold(true, widthUs+1)
}

// Frame appends all 40 bits of f, using 8 µs for a 0 and 30 µs for a 1,
// followed by the trailing low that ends the last bit.
func (s *Script) Frame(f dht11.Frame) *Script {
	for _, b := range f {
		for i := 7; i >= 0; i-- {
			if b&(1<<uint(i)) != 0 {
				s.Bit(30)
			} else {
				s.Bit(8)
			}
		}
	}
	return s.Hold(false, 3)
}

// ForFrame is shorthand for NewScript().Ack().Frame(f).
func ForFrame(f dht11.Frame) *Script { return NewScript().Ack().Frame(f) }

func (s *Script) ConfigureOutput(initial bool) error {
	s.output = true
	s.driven = initial
	s.parked = initial
	s.outputs++
	return nil
}

func (s *Script) ConfigureInputPullup() error {
	s.output = false
	s.inputs++
	return nil
}

func (s *Script) Set(high bool) {
	s.driven = high
	s.parked = s.output && high
}

func (s *Script) Get() bool {
	if s.output {
		return s.driven
	}
	if s.pos >= len(s.levels) {
		return true
	}
	v := s.levels[s.pos]
	s.pos++
	return v
}

// Parked reports whether the line was last left as an output driven high.
func (s *Script) Parked() bool { return s.output && s.parked }

// Consumed returns how many scripted samples have been read.
func (s *Script) Consumed() int { return s.pos }

// Remaining returns how many scripted samples are left.
func (s *Script) Remaining() int { return len(s.levels) - s.pos }

// InputSwitches returns how many times the line was switched to input.
func (s *Script) InputSwitches() int { return s.inputs }
