package core

import (
	"context"
	"time"
)

// ---- GPIO handles ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOHandle interface {
	Number() int
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
	Toggle()
}

// ResourceRegistry arbitrates hardware between devices. A claimed pin is
// exclusive to its device until released.
type ResourceRegistry interface {
	ClaimGPIO(devID string, pin int) (GPIOHandle, error)
	ReleaseGPIO(devID string, pin int)
}

// ---- Optional registry features (type-asserted by builders) ----

// CycleSource exposes a free-running, wrapping cycle counter for busy-wait
// timing, plus the frequency it counts at.
type CycleSource interface {
	Cycles() uint32
	CPUHz() uint32
}

// SleepSource is implemented by registries whose clock is simulated, so
// blocking holds advance the same clock as the cycle counter.
type SleepSource interface {
	Sleep(ctx context.Context, d time.Duration) error
}
