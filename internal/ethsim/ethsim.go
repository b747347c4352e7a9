// Package ethsim simulates the STM32 ETH peripheral at register level so the
// stm32eth driver can run on a hosted Go toolchain. It models the DMA soft reset,
// MDIO transactions against a Clause 22 PHY register file, the transmit and
// receive DMA engines walking descriptor rings, write-1-to-clear status
// flags and interrupt delivery with masking.
//
// Interrupt handlers run synchronously on the goroutine that raised the
// interrupt, or on the goroutine that ends the critical section that
// deferred it.
package ethsim

import (
	"log/slog"
	"sync"

	"github.com/soypat/ethmac/internal"
	"github.com/soypat/ethmac/stm32eth"
)

var (
	_ stm32eth.Bus       = (*Peripheral)(nil) // compile time guarantee of interface implementation.
	_ stm32eth.Interrupt = (*Peripheral)(nil)
	_ stm32eth.Clocks    = (*Peripheral)(nil)
	_ stm32eth.GPIO      = (*Peripheral)(nil)
	_ stm32eth.DMAMemory = (*Peripheral)(nil)
)

const (
	defaultHCLK          = 216_000_000
	defaultMDIOLatency   = 2
	defaultResetLatency  = 2
	defaultRxFIFO        = 4
	defaultPHYResetReads = 1
)

// Config configures a simulated peripheral. The zero value is a 216MHz part
// with a LAN8742A-like PHY at address 0 and the link up.
type Config struct {
	// HCLK is the frequency returned by AHBFrequency. Default 216MHz.
	HCLK uint32
	// PHYAddr is the address the simulated PHY answers to. Other addresses read 0xffff.
	PHYAddr uint8
	// LinkDown starts the PHY without link.
	LinkDown bool
	// MDIOLatency is the amount of MACMIIAR reads during which the busy flag stays set.
	MDIOLatency int
	// MDIOHang keeps the MDIO busy flag set forever.
	MDIOHang bool
	// ResetLatency is the amount of DMABMR reads before the soft reset completes.
	ResetLatency int
	// ResetHang keeps DMABMR.SR set forever.
	ResetHang bool
	// HoldTx makes the transmit DMA ignore poll demands. Frames are only
	// transmitted by [Peripheral.CompleteTx].
	HoldTx bool
	// RxFIFO is the amount of frames buffered while no receive descriptor is available.
	RxFIFO int
	// OnTransmit is called with every transmitted frame as seen on the wire
	// (padded, FCS appended). It must not call into the Peripheral.
	OnTransmit func(wire []byte)
	Logger     *slog.Logger
}

// Peripheral is a simulated ETH peripheral. All methods are safe for concurrent use.
type Peripheral struct {
	mu   sync.Mutex
	regs map[uint32]uint32
	cfg  Config
	phy  phyModel
	// Countdowns of self-clearing flags.
	resetLeft int
	mdioLeft  int
	dma       dma
	clocks    clockState
	pins      map[stm32eth.Pin]PinMode
	events    []Event
	stats     Stats
	irq       irqLine
	log       logger
}

// New returns a simulated peripheral in its power-on state.
func New(cfg Config) *Peripheral {
	if cfg.HCLK == 0 {
		cfg.HCLK = defaultHCLK
	}
	if cfg.MDIOLatency <= 0 {
		cfg.MDIOLatency = defaultMDIOLatency
	}
	if cfg.ResetLatency <= 0 {
		cfg.ResetLatency = defaultResetLatency
	}
	if cfg.RxFIFO <= 0 {
		cfg.RxFIFO = defaultRxFIFO
	}
	p := &Peripheral{
		regs: make(map[uint32]uint32),
		cfg:  cfg,
		pins: make(map[stm32eth.Pin]PinMode),
		log:  logger{log: cfg.Logger},
	}
	p.phy.init(cfg.PHYAddr, !cfg.LinkDown)
	return p
}

// Load implements [stm32eth.Bus]. Reads of DMABMR and MACMIIAR advance
// the soft reset and MDIO transaction respectively.
func (p *Peripheral) Load(off uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch off {
	case stm32eth.DMABMR:
		p.pollReset()
	case stm32eth.MACMIIAR:
		p.pollMDIO()
	}
	return p.regs[off]
}

// Store implements [stm32eth.Bus].
func (p *Peripheral) Store(off uint32, value uint32) {
	p.mu.Lock()
	p.events = append(p.events, Event{Kind: EventRegWrite, Off: off, Value: value})
	prev := p.regs[off]
	switch off {
	case stm32eth.DMASR:
		// Write 1 to clear.
		p.regs[off] = prev &^ value
	case stm32eth.DMABMR:
		p.regs[off] = value
		if value&stm32eth.DMABMR_SR != 0 && prev&stm32eth.DMABMR_SR == 0 {
			p.resetLeft = p.cfg.ResetLatency
		}
	case stm32eth.MACMIIAR:
		p.regs[off] = value
		if value&stm32eth.MACMIIAR_MB != 0 {
			p.mdioLeft = p.cfg.MDIOLatency
		}
	case stm32eth.DMAOMR:
		p.regs[off] = value &^ stm32eth.DMAOMR_FTF // Flush completes immediately.
		if value&stm32eth.DMAOMR_ST != 0 && prev&stm32eth.DMAOMR_ST == 0 {
			p.dma.tx.cursor = 0
			p.runTx(-1)
		}
		if value&stm32eth.DMAOMR_SR != 0 && prev&stm32eth.DMAOMR_SR == 0 {
			p.dma.rx.cursor = 0
			p.runRx()
		}
	case stm32eth.DMATPDR:
		if !p.cfg.HoldTx {
			p.runTx(-1)
		}
	case stm32eth.DMARPDR:
		p.runRx()
	default:
		p.regs[off] = value
	}
	p.mu.Unlock()
	p.dispatch()
}

// Peek returns the value of a register without read side effects.
func (p *Peripheral) Peek(off uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs[off]
}

// pollReset completes a soft reset once enough reads have been issued.
func (p *Peripheral) pollReset() {
	if p.regs[stm32eth.DMABMR]&stm32eth.DMABMR_SR == 0 || p.cfg.ResetHang {
		return
	}
	p.resetLeft--
	if p.resetLeft > 0 {
		return
	}
	// Soft reset returns every MAC and DMA register to its reset value.
	clear(p.regs)
	p.dma.reset()
	p.log.trace("ethsim:reset")
}

// AttachRings implements [stm32eth.DMAMemory].
func (p *Peripheral) AttachRings(tx, rx stm32eth.RingView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dma.tx.ring = tx
	p.dma.rx.ring = rx
}

// Stats returns the counters of the simulated hardware.
func (p *Peripheral) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Stats counts frames as seen by the simulated MAC.
type Stats struct {
	TxFrames   int // Frames transmitted on the wire.
	TxErrors   int // Transmissions completed with an injected error.
	RxFrames   int // Frames written to receive descriptors.
	RxCRCError int // Frames received with a bad FCS.
	RxFiltered int // Frames discarded by the destination address filter.
	RxMissed   int // Frames dropped for lack of descriptors and FIFO space.
}

// HCLK frequency and interface selection of the reset and clock controller.
type clockState struct {
	enabled bool
	rmii    bool
}

// EnableEthernet implements [stm32eth.Clocks].
func (p *Peripheral) EnableEthernet(rmii bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clocks = clockState{enabled: true, rmii: rmii}
	p.events = append(p.events, Event{Kind: EventClockEnable})
}

// AHBFrequency implements [stm32eth.Clocks].
func (p *Peripheral) AHBFrequency() uint32 { return p.cfg.HCLK }

// ClocksEnabled reports whether the ETH clocks are enabled and the RMII interface is selected.
func (p *Peripheral) ClocksEnabled() (enabled, rmii bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clocks.enabled, p.clocks.rmii
}

type logger struct {
	log *slog.Logger
}

func (l logger) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelDebug, msg, attrs...)
}
func (l logger) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, internal.LevelTrace, msg, attrs...)
}
