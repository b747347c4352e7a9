// Package phy provides Ethernet PHY management via MDIO.
// [Device] gives IEEE 802.3 Clause 22 register access over any [MDIOBus];
// [Generic] and [LAN8742A] implement the [ethmac.PHY] capability set a MAC
// driver uses to bring up the physical layer.
package phy

import (
	"errors"
	"time"

	"github.com/soypat/ethmac"
	"github.com/soypat/ethmac/internal"
)

// MDIOBus is a HAL for MDIO bus access supporting both Clause 22 and Clause 45 devices.
// Implementations should use devaddr to select the framing:
//   - devaddr=0: Clause 22 framing (devaddr ignored in transaction)
//   - devaddr>=1: Clause 45 framing (PMA/PMD=1, WIS=2, PCS=3, PHY XS=4, DTE XS=5, AN=7)
//
// Register address range: Clause 22 uses 0-31, Clause 45 uses 0-65535.
// Invalid combinations of devaddr and regAddr may or may not return an error
// depending on the implementation or result in undefined behavior.
// To avoid this wrap your MDIOBus interfaces with a wrapper type that checks validity of ranges.
type MDIOBus interface {
	// Read reads a 16-bit register from the PHY.
	Read(phyAddr, devAddr uint8, regAddr uint16) (value uint16, err error)
	// Write writes a 16-bit value to a PHY register.
	Write(phyAddr, devAddr uint8, regAddr, value uint16) error
}

// FindClause22PHYs probes every clause 22 address on the MDIO bus and writes
// the addresses that answer to dst. It fails only if no PHY responds.
func FindClause22PHYs(mdio MDIOBus, dst []uint8) (n int, err error) {
	const maxAddr = 31
	if len(dst) < 32 {
		return -1, ethmac.ErrShortBuffer
	}
	n = 0
	for addr := uint8(0); addr <= maxAddr; addr++ {
		val, err := mdio.Read(addr, 0, AddrBMSR)
		if err != nil {
			continue
		}
		// An absent PHY leaves the data line floating high or pulled low.
		if val != 0xffff && val != 0x0000 {
			dst[n] = addr
			n++
		}
		time.Sleep(150 * time.Microsecond)
	}
	if n <= 0 {
		err = errors.New("no phy found")
	}
	return n, err
}

var errInvalidPhyAddr error = ethmac.ErrInvalidAddr

// Device is a Clause 22 PHY at a fixed address on an [MDIOBus].
type Device struct {
	mdio    MDIOBus
	phyaddr uint8
}

// ConfigureAs22 points the device at phyAddr on mdio. Does not do a software reset.
func (phy *Device) ConfigureAs22(mdio MDIOBus, phyAddr uint8) error {
	if phyAddr > 31 {
		return errInvalidPhyAddr
	} else if mdio == nil {
		return ethmac.ErrInvalidConfig
	}
	phy.mdio = mdio
	phy.phyaddr = phyAddr
	return nil
}

// BasicControl reads the Basic Mode Control Register (BMCR, register 0).
func (phy *Device) BasicControl() (BMCR, error) {
	ctl, err := phy.rread(AddrBMCR)
	return BMCR(ctl), err
}

// BasicStatus reads the Basic Mode Status Register (BMSR, register 1).
func (phy *Device) BasicStatus() (BMSR, error) {
	stat, err := phy.rread(AddrBMSR)
	return BMSR(stat), err
}

// ID returns the PHY identifier: register 2 in the upper half holding OUI
// bits 3-18, register 3 in the lower half holding OUI bits 19-24, model and revision.
func (phy *Device) ID() (uint32, error) {
	id1, err := phy.rread(regPhyId1)
	if err != nil {
		return 0, err
	}
	id2, err := phy.rread(regPhyId2)
	return uint32(id1)<<16 | uint32(id2), err
}

// ResetPHY performs a software reset and waits up to timeout for the
// self-clearing reset bit to clear. IEEE 802.3 allows up to 500ms.
// Read errors during the wait are retried until the timeout.
func (phy *Device) ResetPHY(timeout time.Duration) (err error) {
	err = phy.rwrite(AddrBMCR, uint16(BMCRReset))
	if err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)
	backoff := internal.NewBackoff(internal.BackoffHasPriority)
	for {
		var ctl BMCR
		ctl, err = phy.BasicControl()
		if err == nil && ctl&BMCRReset == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
		backoff.Miss()
	}
	if err != nil {
		return err
	}
	return errResetTimeout
}

var (
	errResetTimeout = errors.New("PHY reset timeout")
	errANIncomplete = errors.New("auto-negotiation not complete")
)

// SetupForced disables auto-negotiation and forces a specific link mode.
//
// Inspired by drivers/net/phy/phy_device.c
func (phy *Device) SetupForced(mode LinkMode) error {
	var ctl BMCR
	switch mode.SpeedMbps() {
	case 1000:
		ctl |= BMCRSpeed1000
	case 100:
		ctl |= BMCRSpeed100
	case 10:
		// No speed bits = 10Mbps
	default:
		return ethmac.ErrUnsupported
	}
	if mode.IsFullDuplex() {
		ctl |= BMCRFullDuplex
	}
	// Note: BMCRANEnable is NOT set, disabling auto-negotiation
	return phy.rwrite(AddrBMCR, uint16(ctl))
}

// Advertisement reads the current Auto-Negotiation Advertisement Register.
func (phy *Device) Advertisement() (ANAR, error) {
	val, err := phy.rread(AddrANAR)
	return ANAR(val), err
}

// SetAdvertisement writes to the Auto-Negotiation Advertisement Register.
// Does NOT restart auto-negotiation; call RestartAutoNeg() after if needed.
func (phy *Device) SetAdvertisement(ad ANAR) error {
	return phy.rwrite(AddrANAR, uint16(ad))
}

// LinkPartnerAdvertisement reads what the link partner is advertising (ANLPAR).
func (phy *Device) LinkPartnerAdvertisement() (ANAR, error) {
	val, err := phy.rread(AddrANLPAR)
	return ANAR(val), err
}

// RestartAutoNeg enables auto-negotiation and restarts it.
func (phy *Device) RestartAutoNeg() error {
	ctl, err := phy.BasicControl()
	if err != nil {
		return err
	}
	ctl |= BMCRANEnable | BMCRANRestart
	return phy.rwrite(AddrBMCR, uint16(ctl))
}

// NegotiatedLink returns the auto-negotiated link mode using standard MII registers.
// Returns LinkMode based on ANAR (our advertisement) AND ANLPAR (link partner ability).
// Priority order per IEEE 802.3 Annex 28B.3.
func (phy *Device) NegotiatedLink() (LinkMode, error) {
	status, err := phy.BasicStatus()
	if err != nil {
		return LinkDown, err
	}
	if status&BMSRANComplete == 0 {
		return LinkDown, errANIncomplete
	}

	anar, err := phy.Advertisement()
	if err != nil {
		return LinkDown, err
	}

	anlpar, err := phy.LinkPartnerAdvertisement()
	if err != nil {
		return LinkDown, err
	}
	return (anar & anlpar).LinkMode(), nil
}

func (phy *Device) rread(regaddr uint16) (uint16, error) {
	return phy.mdio.Read(phy.phyaddr, 0, regaddr)
}
func (phy *Device) rwrite(regaddr, value uint16) error {
	return phy.mdio.Write(phy.phyaddr, 0, regaddr, value)
}
