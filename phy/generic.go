package phy

import (
	"time"

	"github.com/soypat/ethmac"
)

var (
	_ ethmac.PHY = (*Generic)(nil) // compile time guarantee of interface implementation.
	_ ethmac.PHY = (*LAN8742A)(nil)
)

const defaultResetTimeout = 500 * time.Millisecond

// Config configures the bring-up of a Clause 22 PHY.
type Config struct {
	// Advertisement is written to ANAR before auto-negotiation is restarted.
	// The zero value advertises 10 and 100Mbps in both duplex modes with symmetric pause.
	Advertisement ANAR
	// Forced disables auto-negotiation and forces the link mode when not [LinkDown].
	Forced LinkMode
	// ResetTimeout bounds the software reset. Default 500ms.
	ResetTimeout time.Duration
}

func (cfg *Config) advertisement() ANAR {
	if cfg.Advertisement == 0 {
		return NewANAR().With10M().With100M().WithPause(true, false)
	}
	return cfg.Advertisement | ANARSelector8023
}

func (cfg *Config) resetTimeout() time.Duration {
	if cfg.ResetTimeout <= 0 {
		return defaultResetTimeout
	}
	return cfg.ResetTimeout
}

// Generic is any IEEE 802.3 Clause 22 PHY managed through the basic register set only.
type Generic struct {
	cfg Config
}

func NewGeneric(cfg Config) *Generic {
	return &Generic{cfg: cfg}
}

// PHYReset issues a BMCR software reset and waits for it to self-clear.
func (g *Generic) PHYReset(sm ethmac.StationManagement) error {
	dev := device(sm)
	return dev.ResetPHY(g.cfg.resetTimeout())
}

// PHYInit starts auto-negotiation with the configured advertisement or forces the configured link mode.
func (g *Generic) PHYInit(sm ethmac.StationManagement) error {
	dev := device(sm)
	if g.cfg.Forced != LinkDown {
		return dev.SetupForced(g.cfg.Forced)
	}
	err := dev.SetAdvertisement(g.cfg.advertisement())
	if err != nil {
		return err
	}
	return dev.RestartAutoNeg()
}

// PollLink reads BMSR once. With auto-negotiation enabled the link is only
// reported up once negotiation has completed.
func (g *Generic) PollLink(sm ethmac.StationManagement) bool {
	dev := device(sm)
	status, err := dev.BasicStatus()
	if err != nil || !status.LinkUp() {
		return false
	}
	return g.cfg.Forced != LinkDown || status.AutoNegotiationComplete()
}

// LinkMode returns the forced link mode or the highest mode advertised by
// both ends once auto-negotiation has completed.
func (g *Generic) LinkMode(sm ethmac.StationManagement) (LinkMode, error) {
	if g.cfg.Forced != LinkDown {
		return g.cfg.Forced, nil
	}
	return device(sm).NegotiatedLink()
}

// device returns a Device over the driver's station management interface.
func device(sm ethmac.StationManagement) *Device {
	var dev Device
	dev.ConfigureAs22(stationBus{sm: sm}, 0) // Address is fixed by sm.
	return &dev
}

// stationBus is an MDIOBus whose PHY address is fixed by the underlying
// station management interface; the phyAddr argument is ignored.
type stationBus struct {
	sm ethmac.StationManagement
}

func (b stationBus) Read(_, devAddr uint8, regAddr uint16) (uint16, error) {
	if devAddr != 0 {
		return 0, ethmac.ErrUnsupported
	} else if regAddr > 31 {
		return 0, ethmac.ErrInvalidAddr
	}
	return b.sm.SMIRead(uint8(regAddr))
}

func (b stationBus) Write(_, devAddr uint8, regAddr, value uint16) error {
	if devAddr != 0 {
		return ethmac.ErrUnsupported
	} else if regAddr > 31 {
		return ethmac.ErrInvalidAddr
	}
	return b.sm.SMIWrite(uint8(regAddr), value)
}
