package dht11

import (
	"errors"

	"dhtcode-go/x/conv"
)

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("dht11: timeout")
	ErrChecksum = errors.New("dht11: checksum mismatch")
)

// Edge identifies which level transition a wait was expecting.
type Edge uint8

const (
	EdgeAckLow   Edge = iota // sensor pulls low after release
	EdgeAckHigh              // sensor releases after the ack low
	EdgeDataLow              // sensor pulls low before the first bit
	EdgeBitStart             // line rises at the start of a bit
	EdgeBitEnd               // line falls at the end of a bit
)

func (e Edge) String() string {
	switch e {
	case EdgeAckLow:
		return "ack_low"
	case EdgeAckHigh:
		return "ack_high"
	case EdgeDataLow:
		return "data_low"
	case EdgeBitStart:
		return "bit_start"
	case EdgeBitEnd:
		return "bit_end"
	default:
		return "unknown"
	}
}

// TimeoutError reports the edge that did not arrive within its budget.
// Bit is the frame bit index (0..39) for bit edges and -1 otherwise.
type TimeoutError struct {
	Edge Edge
	Bit  int
}

func (e *TimeoutError) Error() string {
	if e.Bit < 0 {
		return "dht11: timeout waiting for " + e.Edge.String()
	}
	return "dht11: timeout waiting for " + e.Edge.String() + " of bit " + string(conv.AppendInt(nil, int64(e.Bit)))
}

// Is lets errors.Is(err, ErrTimeout) match any TimeoutError.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
