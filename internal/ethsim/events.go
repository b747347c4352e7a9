package ethsim

import (
	"strconv"

	"github.com/soypat/ethmac/stm32eth"
)

// EventKind classifies an interaction of the driver with the simulated hardware.
type EventKind uint8

const (
	EventRegWrite    EventKind = iota + 1 // register write
	EventClockEnable                      // clock enable
	EventPinAltFunc                       // pin alternate function
	EventPinAnalog                        // pin analog
	EventIRQEnable                        // interrupt enable
	EventIRQDisable                       // interrupt disable
)

func (k EventKind) String() string {
	switch k {
	case EventRegWrite:
		return "register write"
	case EventClockEnable:
		return "clock enable"
	case EventPinAltFunc:
		return "pin alternate function"
	case EventPinAnalog:
		return "pin analog"
	case EventIRQEnable:
		return "interrupt enable"
	case EventIRQDisable:
		return "interrupt disable"
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// Event is one interaction recorded in program order.
type Event struct {
	Kind  EventKind
	Off   uint32 // Register offset of EventRegWrite.
	Value uint32 // Value written by EventRegWrite or alternate function of EventPinAltFunc.
	Pin   stm32eth.Pin
}

// Events returns a copy of all recorded events.
func (p *Peripheral) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// RegWrites returns the values written to register off, in order.
func (p *Peripheral) RegWrites(off uint32) []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var vals []uint32
	for _, ev := range p.events {
		if ev.Kind == EventRegWrite && ev.Off == off {
			vals = append(vals, ev.Value)
		}
	}
	return vals
}

// ResetEvents discards recorded events.
func (p *Peripheral) ResetEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
}

// PinMode is the configuration of a simulated GPIO pin.
type PinMode struct {
	AltFunc uint8
	Analog  bool
}

// ConfigureAltFunc implements [stm32eth.GPIO].
func (p *Peripheral) ConfigureAltFunc(pin stm32eth.Pin, af uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins[pin] = PinMode{AltFunc: af}
	p.events = append(p.events, Event{Kind: EventPinAltFunc, Pin: pin, Value: uint32(af)})
}

// SetAnalog implements [stm32eth.GPIO].
func (p *Peripheral) SetAnalog(pin stm32eth.Pin) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins[pin] = PinMode{Analog: true}
	p.events = append(p.events, Event{Kind: EventPinAnalog, Pin: pin})
}

// Pins returns the configuration of every pin touched by the driver.
func (p *Peripheral) Pins() map[stm32eth.Pin]PinMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := make(map[stm32eth.Pin]PinMode, len(p.pins))
	for k, v := range p.pins {
		m[k] = v
	}
	return m
}
