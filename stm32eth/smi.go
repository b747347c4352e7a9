package stm32eth

import (
	"log/slog"
	"time"

	"github.com/soypat/ethmac"
	"github.com/soypat/ethmac/internal"
	"github.com/soypat/ethmac/phy"
)

var (
	_ ethmac.StationManagement = (*Ethernet)(nil) // compile time guarantee of interface implementation.
	_ phy.MDIOBus              = mdioBus{}
)

// SMIRead reads PHY register reg of the driver's PHY over the station
// management interface. It busy-waits for the transaction to complete for at
// most the configured MDIO timeout.
func (e *Ethernet) SMIRead(reg uint8) (uint16, error) {
	return e.smiRead(e.phyAddr, reg)
}

// SMIWrite writes value to PHY register reg of the driver's PHY.
func (e *Ethernet) SMIWrite(reg uint8, value uint16) error {
	return e.smiWrite(e.phyAddr, reg, value)
}

func (e *Ethernet) smiRead(phyAddr, reg uint8) (uint16, error) {
	if reg > 31 || phyAddr > 31 {
		return 0, ethmac.ErrInvalidAddr
	}
	e.bus.Store(MACMIIAR, e.smiControl(phyAddr, reg, false))
	err := e.smiWait()
	if err != nil {
		return 0, err
	}
	value := uint16(e.bus.Load(MACMIIDR) & MACMIIDR_MD_Msk)
	e.trace("smi:read", slog.Uint64("phy", uint64(phyAddr)), slog.Uint64("reg", uint64(reg)), slog.Uint64("val", uint64(value)))
	return value, nil
}

func (e *Ethernet) smiWrite(phyAddr, reg uint8, value uint16) error {
	if reg > 31 || phyAddr > 31 {
		return ethmac.ErrInvalidAddr
	}
	e.trace("smi:write", slog.Uint64("phy", uint64(phyAddr)), slog.Uint64("reg", uint64(reg)), slog.Uint64("val", uint64(value)))
	// Data register must hold the value before the transaction starts.
	e.bus.Store(MACMIIDR, uint32(value))
	e.bus.Store(MACMIIAR, e.smiControl(phyAddr, reg, true))
	return e.smiWait()
}

// smiControl returns the full MACMIIAR word that starts a transaction.
func (e *Ethernet) smiControl(phyAddr, reg uint8, write bool) uint32 {
	v := uint32(phyAddr)<<MACMIIAR_PA_Pos&MACMIIAR_PA_Msk |
		uint32(reg)<<MACMIIAR_MR_Pos&MACMIIAR_MR_Msk |
		uint32(e.clockRange)<<MACMIIAR_CR_Pos&MACMIIAR_CR_Msk |
		MACMIIAR_MB
	if write {
		v |= MACMIIAR_MW
	}
	return v
}

// smiWait polls the busy flag until hardware clears it or the MDIO timeout elapses.
func (e *Ethernet) smiWait() error {
	if e.bus.Load(MACMIIAR)&MACMIIAR_MB == 0 {
		return nil
	}
	deadline := time.Now().Add(e.mdioTimeout)
	backoff := internal.NewBackoff(internal.BackoffCriticalPath)
	for e.bus.Load(MACMIIAR)&MACMIIAR_MB != 0 {
		if time.Now().After(deadline) {
			e.ctr.mdioTimeouts.Add(1)
			e.warn("smi:timeout", slog.Duration("timeout", e.mdioTimeout))
			return ethmac.ErrMDIOTimeout
		}
		backoff.Miss()
	}
	return nil
}

// MDIOBus returns the MAC's station management interface as a [phy.MDIOBus]
// so any PHY on the bus can be managed with [phy.Device].
// Only Clause 22 framing is supported.
func (e *Ethernet) MDIOBus() phy.MDIOBus {
	return mdioBus{e: e}
}

// PHYID reads the identifier registers of the driver's PHY.
func (e *Ethernet) PHYID() (uint32, error) {
	if e.isClosed() {
		return 0, ethmac.ErrClosed
	}
	var dev phy.Device
	err := dev.ConfigureAs22(e.MDIOBus(), e.phyAddr)
	if err != nil {
		return 0, err
	}
	return dev.ID()
}

type mdioBus struct {
	e *Ethernet
}

func (b mdioBus) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	if devAddr != 0 {
		return 0, ethmac.ErrUnsupported
	} else if regAddr > 31 {
		return 0, ethmac.ErrInvalidAddr
	}
	return b.e.smiRead(phyAddr, uint8(regAddr))
}

func (b mdioBus) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	if devAddr != 0 {
		return ethmac.ErrUnsupported
	} else if regAddr > 31 {
		return ethmac.ErrInvalidAddr
	}
	return b.e.smiWrite(phyAddr, uint8(regAddr), value)
}
