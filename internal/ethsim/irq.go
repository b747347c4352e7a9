package ethsim

import (
	"sync"

	"github.com/soypat/ethmac/stm32eth"
)

// irqLine models the NVIC line of the peripheral. mu is held by a
// critical section or by a running handler, never both.
type irqLine struct {
	mu      sync.Mutex
	handler func() // guarded by Peripheral.mu
	enabled bool   // guarded by Peripheral.mu
	calls   int    // guarded by Peripheral.mu
}

// Enable implements [stm32eth.Interrupt]. A pending interrupt is delivered immediately.
func (p *Peripheral) Enable(handler func()) {
	p.mu.Lock()
	p.irq.handler = handler
	p.irq.enabled = true
	p.events = append(p.events, Event{Kind: EventIRQEnable})
	p.mu.Unlock()
	p.dispatch()
}

// Disable implements [stm32eth.Interrupt].
func (p *Peripheral) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.irq.handler = nil
	p.irq.enabled = false
	p.events = append(p.events, Event{Kind: EventIRQDisable})
}

// Mask implements [stm32eth.Interrupt]. It blocks while a handler runs on another goroutine.
func (p *Peripheral) Mask() uintptr {
	p.irq.mu.Lock()
	return 1
}

// Restore implements [stm32eth.Interrupt] and delivers any interrupt raised
// during the critical section.
func (p *Peripheral) Restore(uintptr) {
	p.irq.mu.Unlock()
	p.dispatch()
}

// Interrupts returns the amount of handler invocations.
func (p *Peripheral) Interrupts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.irq.calls
}

// asserted reports whether the interrupt line is asserted. p.mu must be held.
func (p *Peripheral) asserted() bool {
	ier := p.regs[stm32eth.DMAIER]
	sr := p.regs[stm32eth.DMASR]
	return p.irq.enabled && ier&stm32eth.DMAIER_NISE != 0 && sr&stm32eth.DMASR_NIS != 0 &&
		(sr&stm32eth.DMASR_TS != 0 && ier&stm32eth.DMAIER_TIE != 0 ||
			sr&stm32eth.DMASR_RS != 0 && ier&stm32eth.DMAIER_RIE != 0)
}

// dispatch runs the handler while the line is asserted. If the line is
// masked or the handler is already running the interrupt stays pending and
// is delivered by whoever releases irq.mu. p.mu must not be held.
func (p *Peripheral) dispatch() {
	for {
		p.mu.Lock()
		handler := p.irq.handler
		pending := handler != nil && p.asserted()
		p.mu.Unlock()
		if !pending || !p.irq.mu.TryLock() {
			return
		}
		p.mu.Lock()
		handler = p.irq.handler
		run := handler != nil && p.asserted()
		if run {
			p.irq.calls++
		}
		p.mu.Unlock()
		if run {
			handler()
		}
		p.irq.mu.Unlock()
	}
}
