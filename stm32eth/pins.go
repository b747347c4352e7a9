package stm32eth

import (
	"errors"
	"strconv"
)

// Pin identifies a GPIO pin as port*16 + number, the same numbering
// TinyGo's machine package uses on STM32 (PA0=0, PB0=16, ...).
type Pin uint8

// Pin helpers for the ports that carry RMII signals.
func PA(n uint8) Pin { return Pin(0*16 + n) }
func PB(n uint8) Pin { return Pin(1*16 + n) }
func PC(n uint8) Pin { return Pin(2*16 + n) }
func PG(n uint8) Pin { return Pin(6*16 + n) }

// Port returns the port index (0 for A).
func (p Pin) Port() uint8 { return uint8(p) / 16 }

// Num returns the pin number within its port.
func (p Pin) Num() uint8 { return uint8(p) % 16 }

func (p Pin) String() string {
	return "P" + string(rune('A'+p.Port())) + strconv.Itoa(int(p.Num()))
}

// Signal is the role of a pin in the RMII interface.
type Signal uint8

const (
	SignalRefClk Signal = iota // REF_CLK
	SignalMDIO                 // MDIO
	SignalMDC                  // MDC
	SignalCRSDV                // CRS_DV
	SignalRXD0                 // RXD0
	SignalRXD1                 // RXD1
	SignalTXEN                 // TX_EN
	SignalTXD0                 // TXD0
	SignalTXD1                 // TXD1
	numSignals
)

func (s Signal) String() string {
	switch s {
	case SignalRefClk:
		return "REF_CLK"
	case SignalMDIO:
		return "MDIO"
	case SignalMDC:
		return "MDC"
	case SignalCRSDV:
		return "CRS_DV"
	case SignalRXD0:
		return "RXD0"
	case SignalRXD1:
		return "RXD1"
	case SignalTXEN:
		return "TX_EN"
	case SignalTXD0:
		return "TXD0"
	case SignalTXD1:
		return "TXD1"
	}
	return "Signal(" + strconv.Itoa(int(s)) + ")"
}

// pinFunc maps a pin able to carry a signal to its alternate function number.
type pinFunc struct {
	pin    Pin
	signal Signal
	af     uint8
}

// rmiiPinTable lists the pins routed to the ETH peripheral on STM32F4/F7 parts.
var rmiiPinTable = [...]pinFunc{
	{PA(1), SignalRefClk, 11},
	{PA(2), SignalMDIO, 11},
	{PC(1), SignalMDC, 11},
	{PA(7), SignalCRSDV, 11},
	{PC(4), SignalRXD0, 11},
	{PC(5), SignalRXD1, 11},
	{PB(11), SignalTXEN, 11},
	{PG(11), SignalTXEN, 11},
	{PB(12), SignalTXD0, 11},
	{PG(13), SignalTXD0, 11},
	{PB(13), SignalTXD1, 11},
	{PG(14), SignalTXD1, 11},
}

// RMIIPins assigns a pin to every RMII signal.
type RMIIPins struct {
	RefClk Pin
	MDIO   Pin
	MDC    Pin
	CRSDV  Pin
	RXD0   Pin
	RXD1   Pin
	TXEN   Pin
	TXD0   Pin
	TXD1   Pin
}

// NucleoRMIIPins is the RMII wiring of the Nucleo-144 boards (F746ZG, F767ZI, F429ZI).
var NucleoRMIIPins = RMIIPins{
	RefClk: PA(1),
	MDIO:   PA(2),
	MDC:    PC(1),
	CRSDV:  PA(7),
	RXD0:   PC(4),
	RXD1:   PC(5),
	TXEN:   PG(11),
	TXD0:   PG(13),
	TXD1:   PB(13),
}

func (rp *RMIIPins) bySignal() [numSignals]Pin {
	return [numSignals]Pin{
		SignalRefClk: rp.RefClk,
		SignalMDIO:   rp.MDIO,
		SignalMDC:    rp.MDC,
		SignalCRSDV:  rp.CRSDV,
		SignalRXD0:   rp.RXD0,
		SignalRXD1:   rp.RXD1,
		SignalTXEN:   rp.TXEN,
		SignalTXD0:   rp.TXD0,
		SignalTXD1:   rp.TXD1,
	}
}

// boundPin is a pin owned by the driver for its lifetime.
type boundPin struct {
	pin    Pin
	signal Signal
	af     uint8
}

// bind resolves every signal's pin against the pin table.
func (rp *RMIIPins) bind() (pins [numSignals]boundPin, err error) {
	var used uint128
	for sig, pin := range rp.bySignal() {
		af, ok := lookupAltFunc(pin, Signal(sig))
		if !ok {
			return pins, errors.New("stm32eth: pin " + pin.String() + " cannot carry " + Signal(sig).String())
		}
		if used.has(pin) {
			return pins, errors.New("stm32eth: pin " + pin.String() + " assigned twice")
		}
		used.set(pin)
		pins[sig] = boundPin{pin: pin, signal: Signal(sig), af: af}
	}
	return pins, nil
}

func lookupAltFunc(pin Pin, sig Signal) (af uint8, ok bool) {
	for _, pf := range rmiiPinTable {
		if pf.pin == pin && pf.signal == sig {
			return pf.af, true
		}
	}
	return 0, false
}

type uint128 [2]uint64

func (u *uint128) has(p Pin) bool { return u[p/64]&(1<<(p%64)) != 0 }
func (u *uint128) set(p Pin)      { u[p/64] |= 1 << (p % 64) }

// GPIO configures pins on behalf of the driver. ConfigureAltFunc is called
// once per pin during construction and SetAnalog once per pin on Close.
type GPIO interface {
	// ConfigureAltFunc sets pin to push-pull alternate function af at the highest output speed.
	ConfigureAltFunc(pin Pin, af uint8)
	// SetAnalog sets pin to analog mode at the lowest output speed.
	SetAnalog(pin Pin)
}
