package dht11

import (
	"context"

	"tinygo.org/x/drivers"
)

var _ drivers.Sensor = (*Device)(nil)

// Phase is a state of the read state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSendStart
	PhaseAwaitAckLow
	PhaseAwaitAckHigh
	PhaseAwaitDataLow
	PhaseReadBit
	PhaseChecksum
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSendStart:
		return "send_start"
	case PhaseAwaitAckLow:
		return "await_ack_low"
	case PhaseAwaitAckHigh:
		return "await_ack_high"
	case PhaseAwaitDataLow:
		return "await_data_low"
	case PhaseReadBit:
		return "read_bit"
	case PhaseChecksum:
		return "checksum"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p Phase) terminal() bool { return p == PhaseDone || p == PhaseFailed }

// session is the scratch state of a single Read call.
type session struct {
	d     *Device
	phase Phase
	err   error

	frame   Frame
	bit     int // next frame bit, 0..39
	trace   PulseTrace
	reading Reading
}

// step runs the current phase and moves to the next one.
func (s *session) step(ctx context.Context) {
	switch s.phase {
	case PhaseIdle:
		s.phase = PhaseSendStart
	case PhaseSendStart:
		if err := s.d.sendStart(ctx); err != nil {
			s.fail(err)
			return
		}
		s.phase = PhaseAwaitAckLow
	case PhaseAwaitAckLow:
		s.await(false, EdgeAckLow, PhaseAwaitAckHigh)
	case PhaseAwaitAckHigh:
		s.await(true, EdgeAckHigh, PhaseAwaitDataLow)
	case PhaseAwaitDataLow:
		s.await(false, EdgeDataLow, PhaseReadBit)
	case PhaseReadBit:
		one, width, err := s.d.readBit(s.bit)
		if err != nil {
			s.fail(err)
			return
		}
		s.trace.add(width)
		if one {
			s.frame[s.bit/8] |= 1 << (7 - uint(s.bit%8))
		}
		s.bit++
		if s.bit == frameBits {
			s.d.park()
			if s.d.trace != nil {
				s.d.trace(s.trace, s.frame)
			}
			s.phase = PhaseChecksum
		}
	case PhaseChecksum:
		r, err := s.frame.Parse()
		if err != nil {
			s.fail(err)
			return
		}
		s.reading = r
		s.phase = PhaseDone
	}
}

func (s *session) await(level bool, e Edge, next Phase) {
	if !s.d.waitFor(level, edgeBudgetUs) {
		s.fail(&TimeoutError{Edge: e, Bit: -1})
		return
	}
	s.phase = next
}

func (s *session) fail(err error) {
	s.err = err
	s.phase = PhaseFailed
}

// sendStart drives the start signal and releases the line to the sensor.
func (d *Device) sendStart(ctx context.Context) error {
	if err := d.line.ConfigureOutput(false); err != nil {
		return err
	}
	if err := d.sleep.Sleep(ctx, StartLow); err != nil {
		return err
	}
	d.line.Set(true)
	if err := d.sleep.Sleep(ctx, StartHigh); err != nil {
		return err
	}
	return d.line.ConfigureInputPullup()
}

// waitFor polls once per microsecond until the line reads level, giving up
// after budgetUs polls.
func (d *Device) waitFor(level bool, budgetUs uint32) bool {
	var n uint32
	for d.line.Get() != level {
		n++
		if n > budgetUs {
			return false
		}
		d.delay.Microsecond()
	}
	return true
}

// measureHigh counts microseconds while the line stays high, up to highCapUs.
func (d *Device) measureHigh() uint16 {
	var n uint16
	for n < highCapUs && d.line.Get() {
		d.delay.Microsecond()
		n++
	}
	return n
}

// readBit decodes frame bit i and returns its value and measured high width.
func (d *Device) readBit(i int) (one bool, widthUs uint16, err error) {
	if !d.waitFor(true, edgeBudgetUs) {
		return false, 0, &TimeoutError{Edge: EdgeBitStart, Bit: i}
	}
	widthUs = d.measureHigh()
	one = classify(widthUs)
	if !d.waitFor(false, edgeBudgetUs) {
		return false, widthUs, &TimeoutError{Edge: EdgeBitEnd, Bit: i}
	}
	return one, widthUs, nil
}

// classify maps a high-pulse width to a bit value. 20 µs or less is a 0.
func classify(widthUs uint16) bool { return widthUs > oneAboveUs }
