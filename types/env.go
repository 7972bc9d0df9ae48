package types

// ------------------------
// Temperature & humidity
// ------------------------

type TemperatureInfo struct {
	Sensor        string `json:"sensor"` // "dht11"
	Pin           int    `json:"pin"`
	MinIntervalMs uint32 `json:"min_interval_ms"`
}

type HumidityInfo struct {
	Sensor        string `json:"sensor"`
	Pin           int    `json:"pin"`
	MinIntervalMs uint32 `json:"min_interval_ms"`
}

type TemperatureValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
	TS    int64 `json:"ts_ms"` // device time of the read
}

type HumidityValue struct {
	// Hundredths of %RH (0..10000).
	RHx100 uint16 `json:"rh_x100"`
	TS     int64  `json:"ts_ms"`
}

// PulseTrace is the debug capture of one exchange, emitted as event "trace".
type PulseTrace struct {
	Widths []uint16 `json:"widths_us"` // first high-pulse widths
	Raw    [5]uint8 `json:"raw"`       // frame including checksum byte
	Sum    uint8    `json:"sum"`       // computed checksum
	TS     int64    `json:"ts_ms"`
}
