package stm32eth

import (
	"sync/atomic"

	"github.com/soypat/ethmac"
)

// Interrupt is the peripheral's interrupt line.
//
// Mask and Restore delimit a critical section during which the handler
// cannot run; an interrupt raised meanwhile is serviced once the previous
// state is restored. The handler itself never runs concurrently with a
// critical section. Critical sections do not nest.
type Interrupt interface {
	// Enable installs handler to run in interrupt context and unmasks the line.
	Enable(handler func())
	// Disable masks the line and uninstalls the handler.
	Disable()
	// Mask disables interrupt delivery and returns the state prior to masking.
	Mask() (state uintptr)
	// Restore restores the state returned by Mask.
	Restore(state uintptr)
}

// waker is the process-wide notification slot of the ETH peripheral.
// It is cleared when a driver is created and when it is closed.
// Single consumer, last writer wins.
var waker ethmac.Waker

// inner is the driver state shared between foreground calls and the
// interrupt handler.
type inner struct {
	bus  Bus
	ring descriptorRing
	ctr  *counters
}

// onInterrupt runs in interrupt context. It must not block, log or
// wait on any hardware busy flag.
func (in *inner) onInterrupt() {
	in.ctr.interrupts.Add(1)
	reclaimed, errs := in.ring.tx.onInterrupt()
	if reclaimed > 0 {
		in.ctr.txFrames.Add(uint32(reclaimed - errs))
	}
	if errs > 0 {
		// Completion errors are counted, not escalated: the descriptor is
		// reclaimed regardless and there is no caller to report to.
		in.ctr.txErrors.Add(uint32(errs))
	}
	in.ring.rx.onInterrupt()

	waker.Wake()

	in.bus.Store(DMASR, DMASR_TS|DMASR_RS|DMASR_NIS)
	// Status bits deassert two peripheral clocks after the write.
	in.bus.Load(DMASR)
	in.bus.Load(DMASR)
}

// peripheralMutex is the only path to inner from foreground code.
// Access is exclusive with the interrupt handler by masking the interrupt
// line for the duration of the access.
type peripheralMutex struct {
	irq   Interrupt
	state inner
}

func (m *peripheralMutex) lock() (*inner, uintptr) {
	st := m.irq.Mask()
	return &m.state, st
}

func (m *peripheralMutex) unlock(st uintptr) {
	m.irq.Restore(st)
}

// handle is installed as the interrupt handler.
func (m *peripheralMutex) handle() {
	m.state.onInterrupt()
}

type counters struct {
	txFrames     atomic.Uint32
	txErrors     atomic.Uint32
	txQueueFull  atomic.Uint32
	rxFrames     atomic.Uint32
	interrupts   atomic.Uint32
	mdioTimeouts atomic.Uint32
}

// Stats is a snapshot of driver counters.
type Stats struct {
	TxFrames     uint32 // Frames transmitted without error.
	TxErrors     uint32 // Frames completed with a transmit error status.
	TxQueueFull  uint32 // Transmit calls rejected for lack of a free descriptor.
	RxFrames     uint32 // Frames handed to the caller.
	RxDropped    uint32 // Frames dropped for error status or size.
	Interrupts   uint32 // Interrupt handler invocations.
	MDIOTimeouts uint32 // MDIO transactions that timed out.
}
