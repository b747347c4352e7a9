package phy

import (
	"github.com/soypat/ethmac"
)

// LAN8742A is the Microchip LAN8742A RMII transceiver found on Nucleo-144 boards.
// It adds the vendor special status register to the generic bring-up.
type LAN8742A struct {
	Generic
}

func NewLAN8742A(cfg Config) *LAN8742A {
	return &LAN8742A{Generic: Generic{cfg: cfg}}
}

// PHYInit masks the PHY's interrupt output, clears latched interrupt sources
// and starts the link as [Generic.PHYInit] does.
func (p *LAN8742A) PHYInit(sm ethmac.StationManagement) error {
	err := sm.SMIWrite(regIRQMask, 0)
	if err != nil {
		return err
	}
	_, err = sm.SMIRead(regIRQSourceFlag)
	if err != nil {
		return err
	}
	return p.Generic.PHYInit(sm)
}

// PollLink reports the link up once BMSR shows link and, with auto-negotiation,
// the special status register reports negotiation done.
func (p *LAN8742A) PollLink(sm ethmac.StationManagement) bool {
	bsr, err := sm.SMIRead(AddrBMSR)
	if err != nil || !BMSR(bsr).LinkUp() {
		return false
	}
	if p.cfg.Forced != LinkDown {
		return true
	}
	sscsr, err := sm.SMIRead(regSpecialControlStatus)
	return err == nil && sscsr&sscsrAutoDone != 0
}

// LinkMode returns the speed and duplex resolved by the PHY.
func (p *LAN8742A) LinkMode(sm ethmac.StationManagement) (LinkMode, error) {
	sscsr, err := sm.SMIRead(regSpecialControlStatus)
	if err != nil {
		return LinkDown, err
	}
	switch (sscsr & sscsrSpeedMsk) >> sscsrSpeedPos {
	case sscsrSpeed10HDX:
		return Link10HDX, nil
	case sscsrSpeed10FDX:
		return Link10FDX, nil
	case sscsrSpeed100HDX:
		return Link100HDX, nil
	case sscsrSpeed100FDX:
		return Link100FDX, nil
	}
	return LinkDown, nil
}

// StrapAddr returns the PHY address latched from the strap pins at power up.
func (p *LAN8742A) StrapAddr(sm ethmac.StationManagement) (uint8, error) {
	v, err := sm.SMIRead(regSpecialModes)
	return uint8(v & specialModesPHYADMsk), err
}

// SymbolErrors returns the symbol error counter, which wraps at 0xffff.
func (p *LAN8742A) SymbolErrors(sm ethmac.StationManagement) (uint16, error) {
	return sm.SMIRead(regSymbolErrorCounter)
}
