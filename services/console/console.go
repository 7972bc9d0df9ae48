// Package console streams environment telemetry from the bus as one CSV
// line per message. The same format is decoded by ParseLine on the host.
//
//	V,<ts_ms>,<domain>,<kind>,<name>,<int>
//	S,<ts_ms>,<domain>,<kind>,<name>,<link>,<err>
//	T,<ts_ms>,<domain>,<name>,<w0;w1;...>,<raw hex>
//
// V carries tenths of °C for temperature and hundredths of %RH for humidity.
package console

import (
	"context"
	"io"

	"dhtcode-go/bus"
	"dhtcode-go/types"
	"dhtcode-go/x/conv"
)

var topicEnv = bus.T("hal", "cap", "env", "#")

const (
	LineValue  = 'V'
	LineStatus = 'S'
	LineTrace  = 'T'
)

type Service struct {
	w   io.Writer
	buf []byte
}

func New(w io.Writer) *Service {
	return &Service{w: w, buf: make([]byte, 0, 96)}
}

// Start subscribes to env capabilities and writes lines until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(topicEnv)
	go func() {
		defer conn.Unsubscribe(sub)
		failed := false
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-sub.Channel():
				if !ok {
					return
				}
				line, ok := AppendLine(s.buf[:0], m)
				if !ok {
					continue
				}
				s.buf = line
				if _, err := s.w.Write(line); err != nil && !failed {
					println("[console] write failed:", err.Error())
					failed = true
				}
			}
		}
	}()
}

// AppendLine appends the CSV line for m, newline included. It reports false
// for messages that have no console form.
func AppendLine(dst []byte, m *bus.Message) ([]byte, bool) {
	// hal/cap/<domain>/<kind>/<name>/<leaf>[/<tag>]
	if m.Topic.Len() < 6 || m.Payload == nil {
		return dst, false
	}
	domain, _ := m.Topic.At(2).(string)
	kind, _ := m.Topic.At(3).(string)
	name, _ := m.Topic.At(4).(string)
	leaf, _ := m.Topic.At(5).(string)

	switch leaf {
	case "value":
		var v, ts int64
		switch p := m.Payload.(type) {
		case types.TemperatureValue:
			v, ts = int64(p.DeciC), p.TS
		case types.HumidityValue:
			v, ts = int64(p.RHx100), p.TS
		default:
			return dst, false
		}
		dst = head(dst, LineValue, ts, domain, kind, name)
		dst = conv.AppendInt(dst, v)
	case "status":
		p, ok := m.Payload.(types.CapabilityStatus)
		if !ok {
			return dst, false
		}
		dst = head(dst, LineStatus, p.TS, domain, kind, name)
		dst = append(dst, string(p.Link)...)
		dst = append(dst, ',')
		dst = append(dst, p.Error...)
	case "event":
		p, ok := m.Payload.(types.PulseTrace)
		if !ok || m.Topic.At(6) != "trace" {
			return dst, false
		}
		ts := p.TS
		if ts == 0 {
			ts = nowMs()
		}
		dst = append(dst, LineTrace, ',')
		dst = conv.AppendInt(dst, ts)
		dst = append(dst, ',')
		dst = append(dst, domain...)
		dst = append(dst, ',')
		dst = append(dst, name...)
		dst = append(dst, ',')
		for i, w := range p.Widths {
			if i > 0 {
				dst = append(dst, ';')
			}
			dst = conv.AppendUint(dst, uint64(w))
		}
		dst = append(dst, ',')
		for _, b := range p.Raw {
			dst = conv.AppendHex8(dst, b)
		}
	default:
		return dst, false
	}
	return append(dst, '\n'), true
}

// head writes "<type>,<ts>,<domain>,<kind>,<name>,". A zero ts means now.
func head(dst []byte, typ byte, ts int64, domain, kind, name string) []byte {
	if ts == 0 {
		ts = nowMs()
	}
	dst = append(dst, typ, ',')
	dst = conv.AppendInt(dst, ts)
	for _, f := range [...]string{domain, kind, name} {
		dst = append(dst, ',')
		dst = append(dst, f...)
	}
	return append(dst, ',')
}
