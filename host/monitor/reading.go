package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"dhtcode-go/services/console"
	"dhtcode-go/types"
)

// Reading is the latest known state of one sensor.
type Reading struct {
	Name      string     `json:"name"`
	Celsius   *float32   `json:"celsius,omitempty"`
	RelHum    *float32   `json:"rel_humidity,omitempty"`
	DewPointC *float32   `json:"dew_point_c,omitempty"`
	Link      types.Link `json:"link,omitempty"`
	Error     string     `json:"error,omitempty"`
	DeviceTS  int64      `json:"device_ts_ms"` // device clock of the last line
	Updated   time.Time  `json:"updated"`      // host clock of the last line
	Trace     *Trace     `json:"trace,omitempty"`
	Stale     bool       `json:"stale"`
}

// Trace is the last pulse trace reported for a sensor.
type Trace struct {
	Widths []uint16 `json:"widths_us"`
	Raw    [5]uint8 `json:"raw"`
}

// Magnus coefficients over water, valid for -45..60 °C.
const (
	magnusA = 17.62
	magnusB = 243.12
)

// DewPoint returns the dew point in °C for a temperature and relative
// humidity. ok is false when rh is outside (0, 100].
func DewPoint(celsius, rh float32) (dp float32, ok bool) {
	if rh <= 0 || rh > 100 {
		return 0, false
	}
	g := math32.Log(rh/100) + magnusA*celsius/(magnusB+celsius)
	return magnusB * g / (magnusA - g), true
}

// Aggregator folds console records into one Reading per sensor name.
// It is safe for concurrent use.
type Aggregator struct {
	mu       sync.RWMutex
	readings map[string]*Reading
	now      func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{readings: make(map[string]*Reading), now: time.Now}
}

// Apply merges rec and returns a copy of the updated reading. ok is false
// for records that do not describe a temperature or humidity capability.
func (a *Aggregator) Apply(rec console.Record) (Reading, bool) {
	if rec.Type != console.LineTrace && rec.Kind != types.KindTemperature && rec.Kind != types.KindHumidity {
		return Reading{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.readings[rec.Name]
	if !ok {
		r = &Reading{Name: rec.Name}
		a.readings[rec.Name] = r
	}
	r.DeviceTS = rec.TSms
	r.Updated = a.now()

	switch rec.Type {
	case console.LineValue:
		if rec.Kind == types.KindTemperature {
			v := float32(rec.Value) / 10
			r.Celsius = &v
		} else {
			v := float32(rec.Value) / 100
			r.RelHum = &v
		}
		r.Link, r.Error = types.LinkUp, ""
		r.DewPointC = nil
		if r.Celsius != nil && r.RelHum != nil {
			if dp, ok := DewPoint(*r.Celsius, *r.RelHum); ok {
				r.DewPointC = &dp
			}
		}
	case console.LineStatus:
		r.Link, r.Error = rec.Link, rec.Err
	case console.LineTrace:
		r.Trace = &Trace{Widths: rec.Widths, Raw: rec.Raw}
	}
	return r.clone(), true
}

// Get returns the reading for name.
func (a *Aggregator) Get(name string) (Reading, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.readings[name]
	if !ok {
		return Reading{}, false
	}
	return r.clone(), true
}

// Snapshot returns every reading, ordered by name.
func (a *Aggregator) Snapshot() []Reading {
	a.mu.RLock()
	out := make([]Reading, 0, len(a.readings))
	for _, r := range a.readings {
		out = append(out, r.clone())
	}
	a.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// clone copies r so callers never share its pointers.
func (r *Reading) clone() Reading {
	c := *r
	c.Celsius = copyPtr(r.Celsius)
	c.RelHum = copyPtr(r.RelHum)
	c.DewPointC = copyPtr(r.DewPointC)
	if r.Trace != nil {
		t := *r.Trace
		t.Widths = append([]uint16(nil), r.Trace.Widths...)
		c.Trace = &t
	}
	return c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
