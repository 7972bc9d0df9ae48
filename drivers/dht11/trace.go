package dht11

// TraceLen is the number of leading bit pulses captured per read.
const TraceLen = 8

// PulseTrace holds the measured high widths (µs) of the first bits of a frame.
// It is diagnostic only.
type PulseTrace struct {
	Widths [TraceLen]uint16
	N      uint8
}

func (t *PulseTrace) add(us uint16) {
	if int(t.N) < TraceLen {
		t.Widths[t.N] = us
		t.N++
	}
}

// TraceSink receives the pulse trace and raw frame once all 40 bits have been
// read, before checksum validation. It runs on the reading goroutine and must
// not block.
type TraceSink func(tr PulseTrace, raw Frame)
