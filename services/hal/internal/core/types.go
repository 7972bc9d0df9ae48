package core

import (
	"context"

	"dhtcode-go/errcode"
	"dhtcode-go/types"
)

// ---- Capability & device model ----

// CapAddr is the public address hal/cap/<domain>/<kind>/<name>.
type CapAddr struct {
	Domain string
	Kind   types.Kind
	Name   string
}

type CapabilitySpec struct {
	Domain string // empty => inferred from Kind
	Kind   types.Kind
	Name   string // empty => device ID
	Info   types.Info
}

// EnqueueResult is the immediate outcome of a control. OK means accepted;
// any measurement arrives later as an Event.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
}

// Device is a HAL-managed device exposing one or more capabilities.
// Control must not block the HAL loop.
type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	Control(addr CapAddr, verb string, payload any) (EnqueueResult, error)
	Close() error
}

// ---- Device → HAL telemetry (single shape) ----
// By default an Event is a value update published retained to .../value.
// IsEvent publishes to .../event[/<tag>] instead. A non-empty Err publishes
// only .../status=degraded.

type Event struct {
	Addr     CapAddr
	Payload  any
	TSms     int64
	Err      string
	IsEvent  bool
	EventTag string
}

type EventEmitter interface {
	// Emit must not block; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter
}

type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
