package ethsim

import (
	"log/slog"

	"github.com/soypat/ethmac/stm32eth"
)

// Clause 22 registers and bits modeled by the simulated PHY.
const (
	regBMCR   = 0x00
	regBMSR   = 0x01
	regID1    = 0x02
	regID2    = 0x03
	regANAR   = 0x04
	regANLPAR = 0x05
	regModes  = 0x12
	regISR    = 0x1d
	regSSCSR  = 0x1f

	bmcrReset     = 0x8000
	bmcrANEnable  = 0x1000
	bmcrANRestart = 0x0200
	bmcrSpeed100  = 0x2000
	bmcrFull      = 0x0100

	bmsrLink       = 0x0004
	bmsrANComplete = 0x0020
	// 100BASE-TX and 10BASE-T in both duplex modes, AN capable, extended registers.
	bmsrAbilities = 0x7809

	sscsrAutoDone = 1 << 12

	// Microchip LAN8742A identifiers.
	id1LAN8742A = 0x0007
	id2LAN8742A = 0xc131

	isrANComplete = 1 << 6
	isrLinkDown   = 1 << 4
)

// phyModel is a Clause 22 register file with the reset and
// auto-negotiation behavior of a LAN8742A.
type phyModel struct {
	addr      uint8
	regs      [32]uint16
	link      bool
	resetLeft int
}

func (m *phyModel) init(addr uint8, link bool) {
	m.addr = addr
	m.link = link
	m.reset()
}

func (m *phyModel) reset() {
	m.regs = [32]uint16{}
	m.regs[regBMCR] = bmcrANEnable | bmcrSpeed100
	m.regs[regID1] = id1LAN8742A
	m.regs[regID2] = id2LAN8742A
	m.regs[regANAR] = 0x01e1
	m.regs[regModes] = uint16(m.addr) & 0x1f
	m.negotiate()
}

// negotiate resolves the link against a 10/100 full and half duplex partner.
func (m *phyModel) negotiate() {
	m.regs[regBMSR] = bmsrAbilities
	m.regs[regSSCSR] = 0
	m.regs[regANLPAR] = 0
	if !m.link {
		return
	}
	m.regs[regBMSR] |= bmsrLink
	ctl := m.regs[regBMCR]
	if ctl&bmcrANEnable == 0 {
		speed := uint16(0b001) // 10M half
		if ctl&bmcrSpeed100 != 0 {
			speed = 0b010
		}
		if ctl&bmcrFull != 0 {
			speed |= 0b100
		}
		m.regs[regSSCSR] = speed << 2
		return
	}
	const partner = 0x41e1 // 10/100 HDX/FDX, acknowledge.
	m.regs[regANLPAR] = partner
	common := m.regs[regANAR] & partner
	var speed uint16
	switch {
	case common&0x0100 != 0:
		speed = 0b110
	case common&0x0080 != 0:
		speed = 0b010
	case common&0x0040 != 0:
		speed = 0b101
	case common&0x0020 != 0:
		speed = 0b001
	default:
		m.regs[regBMSR] &^= bmsrLink
		return
	}
	m.regs[regBMSR] |= bmsrANComplete
	m.regs[regSSCSR] = sscsrAutoDone | speed<<2
	m.regs[regISR] |= isrANComplete
}

func (m *phyModel) read(reg uint8) uint16 {
	v := m.regs[reg&31]
	switch reg {
	case regBMCR:
		if m.resetLeft > 0 {
			m.resetLeft--
			if m.resetLeft == 0 {
				m.reset()
			}
		}
	case regISR:
		m.regs[regISR] = 0 // Read to clear.
	}
	return v
}

func (m *phyModel) write(reg uint8, value uint16) {
	reg &= 31
	switch reg {
	case regBMCR:
		if value&bmcrReset != 0 {
			m.regs[regBMCR] = value
			m.resetLeft = defaultPHYResetReads
			return
		}
		m.regs[regBMCR] = value &^ bmcrANRestart
		m.negotiate()
	case regBMSR, regANLPAR, regSSCSR, regISR:
		// Read only.
	default:
		m.regs[reg] = value
	}
}

// pollMDIO completes an MDIO transaction once enough reads have been issued. p.mu must be held.
func (p *Peripheral) pollMDIO() {
	ctl := p.regs[stm32eth.MACMIIAR]
	if ctl&stm32eth.MACMIIAR_MB == 0 || p.cfg.MDIOHang {
		return
	}
	p.mdioLeft--
	if p.mdioLeft > 0 {
		return
	}
	phyAddr := uint8((ctl & stm32eth.MACMIIAR_PA_Msk) >> stm32eth.MACMIIAR_PA_Pos)
	reg := uint8((ctl & stm32eth.MACMIIAR_MR_Msk) >> stm32eth.MACMIIAR_MR_Pos)
	write := ctl&stm32eth.MACMIIAR_MW != 0
	switch {
	case phyAddr != p.phy.addr:
		if !write {
			p.regs[stm32eth.MACMIIDR] = 0xffff // Nobody drives MDIO; pulled up.
		}
	case write:
		p.phy.write(reg, uint16(p.regs[stm32eth.MACMIIDR]))
	default:
		p.regs[stm32eth.MACMIIDR] = uint32(p.phy.read(reg))
	}
	p.regs[stm32eth.MACMIIAR] = ctl &^ stm32eth.MACMIIAR_MB
	p.log.trace("ethsim:mdio", slog.Uint64("phy", uint64(phyAddr)), slog.Uint64("reg", uint64(reg)), slog.Bool("write", write))
}

// SetLink changes the link state seen by the PHY.
func (p *Peripheral) SetLink(up bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if up == p.phy.link {
		return
	}
	p.phy.link = up
	if !up {
		p.phy.regs[regISR] |= isrLinkDown
	}
	p.phy.negotiate()
	p.log.debug("ethsim:link", slog.Bool("up", up))
}

// PHYReg returns PHY register reg without read side effects.
func (p *Peripheral) PHYReg(reg uint8) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phy.regs[reg&31]
}

// SetPHYReg sets PHY register reg, bypassing MDIO.
func (p *Peripheral) SetPHYReg(reg uint8, value uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phy.regs[reg&31] = value
}
