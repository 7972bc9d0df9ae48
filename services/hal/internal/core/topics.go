package core

import (
	"dhtcode-go/bus"
	"dhtcode-go/types"
)

func T(tokens ...bus.Token) bus.Topic { return bus.T(tokens...) }

func topicConfigHAL() bus.Topic { return T("config", "hal") }

// hal/cap/<domain>/<kind>/<name>/...
func capBase(a CapAddr) bus.Topic { return T("hal", "cap", a.Domain, string(a.Kind), a.Name) }

func CapInfo(a CapAddr) bus.Topic   { return capBase(a).Append("info") }
func CapStatus(a CapAddr) bus.Topic { return capBase(a).Append("status") }
func CapValue(a CapAddr) bus.Topic  { return capBase(a).Append("value") }

func CapEvent(a CapAddr, tag string) bus.Topic {
	if tag == "" {
		return capBase(a).Append("event")
	}
	return capBase(a).Append("event", tag)
}

// CapCtrl is hal/cap/<domain>/<kind>/<name>/control/<verb>.
func CapCtrl(a CapAddr, verb string) bus.Topic { return capBase(a).Append("control", verb) }

// hal/cap/+/+/+/control/+
func ctrlWildcard() bus.Topic {
	return T("hal", "cap", "+", "+", "+", "control", "+")
}

func topicHALState() bus.Topic { return T("hal", "state") }

// addrFromCtrl parses a control topic; ok is false if the shape is wrong.
func addrFromCtrl(t bus.Topic) (a CapAddr, verb string, ok bool) {
	if t.Len() != 7 {
		return CapAddr{}, "", false
	}
	d, ok1 := t.At(2).(string)
	k, ok2 := t.At(3).(string)
	n, ok3 := t.At(4).(string)
	v, ok4 := t.At(6).(string)
	if !(ok1 && ok2 && ok3 && ok4) {
		return CapAddr{}, "", false
	}
	return CapAddr{Domain: d, Kind: types.Kind(k), Name: n}, v, true
}
