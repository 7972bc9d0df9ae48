//go:build rp2040

package platform

import (
	"runtime/volatile"
	"unsafe"
)

// Cortex-M0+ SysTick registers.
const (
	sysTickCSR = 0xE000E010
	sysTickRVR = 0xE000E014
	sysTickCVR = 0xE000E018

	csrEnable    = 1 << 0
	csrClkSource = 1 << 2 // processor clock

	sysTickMask = 0x00FF_FFFF
)

// sysTick extends the 24-bit down-counting SysTick to a wrapping 32-bit
// up-count. Cycles must be called at least once per 2^24 cycles (~134 ms at
// 125 MHz) for consecutive deltas to be exact, which a busy-wait does.
type sysTick struct {
	csr, rvr, cvr *volatile.Register32
	period        uint32 // reload + 1
	last          uint32
	acc           uint32
}

func startSysTick() *sysTick {
	t := &sysTick{
		csr: (*volatile.Register32)(unsafe.Pointer(uintptr(sysTickCSR))),
		rvr: (*volatile.Register32)(unsafe.Pointer(uintptr(sysTickRVR))),
		cvr: (*volatile.Register32)(unsafe.Pointer(uintptr(sysTickCVR))),
	}
	// Leave SysTick alone if something else already runs it.
	if t.csr.Get()&csrEnable == 0 {
		t.rvr.Set(sysTickMask)
		t.cvr.Set(0)
		t.csr.Set(csrEnable | csrClkSource)
	}
	t.period = t.rvr.Get()&sysTickMask + 1
	t.last = t.cvr.Get() & sysTickMask
	return t
}

func (t *sysTick) Cycles() uint32 {
	cur := t.cvr.Get() & sysTickMask
	if cur <= t.last {
		t.acc += t.last - cur
	} else {
		t.acc += t.last + t.period - cur
	}
	t.last = cur
	return t.acc
}
