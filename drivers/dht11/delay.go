package dht11

// CycleCounter is a free-running, monotonically increasing hardware cycle
// counter. Values wrap modulo 2^32.
type CycleCounter interface {
	Cycles() uint32
}

// Delay busy-waits against a CycleCounter. It never suspends the caller.
type Delay struct {
	counter CycleCounter
	perUs   uint32
}

// NewDelay derives cycles-per-microsecond from cpuHz by integer division.
//
// cpuHz must be at least 1 MHz. Below that perUs rounds to zero and every
// delay silently becomes a no-op; this is not checked.
func NewDelay(c CycleCounter, cpuHz uint32) Delay {
	return Delay{counter: c, perUs: cpuHz / 1_000_000}
}

// CyclesPerMicrosecond returns the derived cycle budget of one microsecond.
func (d Delay) CyclesPerMicrosecond() uint32 { return d.perUs }

// Microsecond blocks for approximately one microsecond.
// The subtraction is modular, so a counter wrap during the wait is harmless.
func (d Delay) Microsecond() {
	start := d.counter.Cycles()
	for d.counter.Cycles()-start < d.perUs {
	}
}

// Microseconds blocks for approximately n microseconds.
func (d Delay) Microseconds(n uint32) {
	for ; n > 0; n-- {
		d.Microsecond()
	}
}
