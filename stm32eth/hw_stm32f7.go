//go:build tinygo && stm32f7

package stm32eth

import (
	"device/stm32"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

const (
	ethBase    = 0x4002_8000
	rccBase    = 0x4002_3800
	syscfgBase = 0x4001_3800
	gpioBase   = 0x4002_0000
	gpioStride = 0x400

	rccAHB1ENR = 0x30
	rccAPB2ENR = 0x44
	syscfgPMC  = 0x04

	rccAHB1ENR_ETHMACEN   = 1 << 25
	rccAHB1ENR_ETHMACTXEN = 1 << 26
	rccAHB1ENR_ETHMACRXEN = 1 << 27
	rccAPB2ENR_SYSCFGEN   = 1 << 14
	syscfgPMC_MII_RMII    = 1 << 23

	gpioMODER   = 0x00
	gpioOSPEEDR = 0x08
	gpioAFRL    = 0x20
	gpioAFRH    = 0x24
	moderAF     = 0b10
	moderAnalog = 0b11
	speedLow    = 0b00
	speedVHigh  = 0b11
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// mmio is the memory mapped ETH register block.
type mmio struct{}

func (mmio) Load(off uint32) uint32         { return reg(ethBase + uintptr(off)).Get() }
func (mmio) Store(off uint32, value uint32) { reg(ethBase + uintptr(off)).Set(value) }

// nvicLine is the ETH global interrupt. Handlers run on the Cortex-M
// exception stack; Mask disables all interrupts so the critical section also
// excludes higher priority handlers touching the waker.
type nvicLine struct {
	intr interrupt.Interrupt
}

var ethHandler func()

var ethLine = nvicLine{intr: interrupt.New(stm32.IRQ_ETH, handleETH)}

func handleETH(interrupt.Interrupt) {
	if h := ethHandler; h != nil {
		h()
	}
}

func (l *nvicLine) Enable(handler func()) {
	ethHandler = handler
	l.intr.Enable()
}

func (l *nvicLine) Disable() {
	l.intr.Disable()
	ethHandler = nil
}

func (l *nvicLine) Mask() uintptr {
	return uintptr(interrupt.Disable())
}

func (l *nvicLine) Restore(st uintptr) {
	interrupt.Restore(interrupt.State(st))
}

// rcc enables the ETH clocks and reads HCLK from the machine package,
// which runs the AHB bus undivided from SYSCLK.
type rcc struct{}

func (rcc) EnableEthernet(rmii bool) {
	reg(rccBase + rccAPB2ENR).SetBits(rccAPB2ENR_SYSCFGEN)
	_ = reg(rccBase + rccAPB2ENR).Get()
	// Interface selection must happen while MAC clocks are disabled.
	if rmii {
		reg(syscfgBase + syscfgPMC).SetBits(syscfgPMC_MII_RMII)
	} else {
		reg(syscfgBase + syscfgPMC).ClearBits(syscfgPMC_MII_RMII)
	}
	reg(rccBase + rccAHB1ENR).SetBits(rccAHB1ENR_ETHMACEN | rccAHB1ENR_ETHMACTXEN | rccAHB1ENR_ETHMACRXEN)
	_ = reg(rccBase + rccAHB1ENR).Get()
}

func (rcc) AHBFrequency() uint32 { return machine.CPUFrequency() }

// gpio programs port registers directly.
type gpio struct{}

func (gpio) ConfigureAltFunc(pin Pin, af uint8) {
	port := gpioPort(pin)
	n := uint32(pin.Num())
	reg(rccBase + rccAHB1ENR).SetBits(1 << pin.Port())
	_ = reg(rccBase + rccAHB1ENR).Get()
	afr := gpioAFRL
	if n >= 8 {
		afr = gpioAFRH
	}
	reg(port+uintptr(afr)).ReplaceBits(uint32(af), 0xf, uint8(n%8*4))
	reg(port+gpioOSPEEDR).ReplaceBits(speedVHigh, 0b11, uint8(n*2))
	reg(port+gpioMODER).ReplaceBits(moderAF, 0b11, uint8(n*2))
}

func (gpio) SetAnalog(pin Pin) {
	port := gpioPort(pin)
	n := uint32(pin.Num())
	reg(port+gpioOSPEEDR).ReplaceBits(speedLow, 0b11, uint8(n*2))
	reg(port+gpioMODER).ReplaceBits(moderAnalog, 0b11, uint8(n*2))
}

func gpioPort(pin Pin) uintptr {
	return gpioBase + uintptr(pin.Port())*gpioStride
}

// DefaultConfig returns a configuration of the on-chip peripheral with
// the Nucleo-144 RMII wiring. PHY and HardwareAddr must still be set.
func DefaultConfig() Config {
	return Config{
		Bus:       mmio{},
		Interrupt: &ethLine,
		Clocks:    rcc{},
		GPIO:      gpio{},
		Pins:      NucleoRMIIPins,
	}
}
