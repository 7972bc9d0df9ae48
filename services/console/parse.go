package console

import (
	"errors"
	"strings"

	"dhtcode-go/types"
	"dhtcode-go/x/strconvx"
	"dhtcode-go/x/timex"
)

var nowMs = timex.NowMs

var ErrBadLine = errors.New("console: malformed line")

// Record is one decoded console line.
type Record struct {
	Type   byte // LineValue, LineStatus or LineTrace
	TSms   int64
	Domain string
	Kind   types.Kind // empty for traces
	Name   string

	Value int64 // LineValue

	Link types.Link // LineStatus
	Err  string

	Widths []uint16 // LineTrace
	Raw    [5]uint8
}

// ParseLine decodes a line produced by AppendLine. Surrounding whitespace
// is ignored.
func ParseLine(line string) (Record, error) {
	f := strings.Split(strings.TrimSpace(line), ",")
	if len(f) < 2 || len(f[0]) != 1 {
		return Record{}, ErrBadLine
	}
	ts, err := strconvx.ParseInt(f[1], 10, 64)
	if err != nil {
		return Record{}, ErrBadLine
	}
	r := Record{Type: f[0][0], TSms: ts}

	switch r.Type {
	case LineValue:
		if len(f) != 6 {
			return Record{}, ErrBadLine
		}
		r.Domain, r.Kind, r.Name = f[2], types.Kind(f[3]), f[4]
		if r.Value, err = strconvx.ParseInt(f[5], 10, 64); err != nil {
			return Record{}, ErrBadLine
		}
	case LineStatus:
		if len(f) != 7 {
			return Record{}, ErrBadLine
		}
		r.Domain, r.Kind, r.Name = f[2], types.Kind(f[3]), f[4]
		r.Link, r.Err = types.Link(f[5]), f[6]
	case LineTrace:
		if len(f) != 6 || len(f[5]) != 10 {
			return Record{}, ErrBadLine
		}
		r.Domain, r.Name = f[2], f[3]
		if f[4] != "" {
			for _, w := range strings.Split(f[4], ";") {
				v, err := strconvx.ParseUint(w, 10, 16)
				if err != nil {
					return Record{}, ErrBadLine
				}
				r.Widths = append(r.Widths, uint16(v))
			}
		}
		for i := range r.Raw {
			v, err := strconvx.ParseUint(f[5][2*i:2*i+2], 16, 8)
			if err != nil {
				return Record{}, ErrBadLine
			}
			r.Raw[i] = uint8(v)
		}
	default:
		return Record{}, ErrBadLine
	}
	if r.Name == "" {
		return Record{}, ErrBadLine
	}
	return r, nil
}
