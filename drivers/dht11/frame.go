package dht11

// Frame is the 5-byte payload in wire order:
// humidity integer, humidity fraction, temperature integer,
// temperature fraction, checksum.
type Frame [5]byte

// Sum returns the 8-bit modular sum of the four data bytes.
func (f Frame) Sum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

// Valid reports whether the checksum byte matches the data bytes.
func (f Frame) Valid() bool { return f.Sum() == f[4] }

// Reading is a validated measurement in °C and %RH.
type Reading struct {
	Temperature float32
	Humidity    float32
}

// Parse validates f and converts it to a Reading.
// A frame with a bad checksum is never converted; ErrChecksum is returned.
func (f Frame) Parse() (Reading, error) {
	if !f.Valid() {
		return Reading{}, ErrChecksum
	}
	return Reading{
		Humidity:    float32(f[0]) + float32(f[1])*0.1,
		Temperature: float32(f[2]) + float32(f[3])*0.1,
	}, nil
}

// NewFrame builds a frame with a correct checksum. Used by simulators and
// tests to describe what a sensor transmits.
func NewFrame(hInt, hFrac, tInt, tFrac byte) Frame {
	f := Frame{hInt, hFrac, tInt, tFrac, 0}
	f[4] = f.Sum()
	return f
}
