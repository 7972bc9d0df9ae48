package types

// ------------------------
// LED (boolean)
// ------------------------


type LEDInfo struct {
	Pin       int  `json:"pin"`
	ActiveLow bool `json:"active_low"`
}

type LEDValue struct {
	On bool `json:"on"`
}

type LEDSet struct {
	On bool `json:"on"`
}
