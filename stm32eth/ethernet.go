// Package stm32eth drives the Ethernet MAC and DMA controller of STM32F4/F7
// microcontrollers (the "ETH" peripheral) in RMII mode.
//
// The driver keeps a ring of transmit and a ring of receive descriptors in
// RAM shared with the peripheral's DMA engine. Foreground calls and the
// peripheral interrupt handler share the rings through a critical section
// that masks the interrupt line. The network stack consumes the driver
// through the [ethmac.Device] interface and sleeps until the registered waker
// is invoked from the interrupt handler.
package stm32eth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soypat/ethmac"
	"github.com/soypat/ethmac/internal"
)

var _ ethmac.Device = (*Ethernet)(nil) // compile time guarantee of interface implementation.

const (
	defaultDescriptors  = 4
	defaultBufferSize   = 1536
	maxBufferSize       = 0x1ffc // TBS1/RBS1 are 13 bits wide; rounded down to a word multiple.
	defaultMDIOTimeout  = 10 * time.Millisecond
	defaultResetTimeout = 100 * time.Millisecond
	pauseTime           = 0x100
)

// claimed is set while an Ethernet driver owns the peripheral.
var claimed atomic.Bool

// Clocks is the reset and clock control collaborator of the driver.
type Clocks interface {
	// EnableEthernet selects the MII or RMII interface and enables the
	// MAC, MAC TX and MAC RX clocks.
	EnableEthernet(rmii bool)
	// AHBFrequency returns HCLK in Hz, the clock the MDC divider is derived from.
	AHBFrequency() uint32
}

// Config is the configuration of an [Ethernet] driver. Bus, Interrupt, Clocks,
// GPIO and PHY are required; zero values of the remaining fields select defaults.
type Config struct {
	Bus       Bus
	Interrupt Interrupt
	Clocks    Clocks
	GPIO      GPIO
	// Pins is the RMII wiring. The zero value selects [NucleoRMIIPins].
	Pins RMIIPins
	PHY  ethmac.PHY
	// PHYAddr is the address of PHY on the MDIO bus (0-31).
	PHYAddr uint8
	// HardwareAddr is the station MAC address. It must be a unicast address.
	HardwareAddr [6]byte
	// TxDescriptors and RxDescriptors set the ring capacities. Default 4.
	TxDescriptors int
	RxDescriptors int
	// BufferSize is the size of each descriptor's buffer. It is rounded up
	// to a multiple of 4 and must hold at least [ethmac.MTU] bytes. Default 1536.
	BufferSize int
	// MDIOTimeout bounds each MDIO transaction. Default 10ms.
	MDIOTimeout time.Duration
	// ResetTimeout bounds the DMA software reset. Default 100ms.
	ResetTimeout time.Duration
	Logger       *slog.Logger
}

// Ethernet is the driver of the ETH peripheral. It owns the peripheral, its
// pins and its interrupt line from [New] until [Ethernet.Close].
type Ethernet struct {
	pm   peripheralMutex
	bus  Bus
	gpio GPIO
	pins [numSignals]boundPin
	phy  ethmac.PHY
	logger
	ctr          counters
	hwaddr       [6]byte
	phyAddr      uint8
	clockRange   ClockRange
	mdioTimeout  time.Duration
	resetTimeout time.Duration
	burst        int
	closed       bool
}

// New brings up the peripheral, starts the DMA engines and initializes the PHY.
// Only one driver may exist at a time; a second call to New before Close
// returns [ethmac.ErrPeripheralInUse].
func New(cfg Config) (*Ethernet, error) {
	ntx, nrx, bufSize, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if !claimed.CompareAndSwap(false, true) {
		return nil, ethmac.ErrPeripheralInUse
	}
	pinCfg := cfg.Pins
	if pinCfg == (RMIIPins{}) {
		pinCfg = NucleoRMIIPins
	}
	pins, err := pinCfg.bind()
	if err != nil {
		claimed.Store(false)
		return nil, err
	}
	e := &Ethernet{
		bus:          cfg.Bus,
		gpio:         cfg.GPIO,
		pins:         pins,
		phy:          cfg.PHY,
		logger:       logger{log: cfg.Logger},
		hwaddr:       cfg.HardwareAddr,
		phyAddr:      cfg.PHYAddr,
		mdioTimeout:  durationOr(cfg.MDIOTimeout, defaultMDIOTimeout),
		resetTimeout: durationOr(cfg.ResetTimeout, defaultResetTimeout),
		burst:        min(ntx, nrx),
	}
	e.pm = peripheralMutex{
		irq: cfg.Interrupt,
		state: inner{
			bus:  cfg.Bus,
			ring: makeDescriptorRing(cfg.Bus, ntx, nrx, bufSize),
			ctr:  &e.ctr,
		},
	}
	e.pm.state.ring.rx.irq = cfg.Interrupt
	waker.Clear()

	err = e.start(cfg.Clocks)
	if err != nil {
		e.shutdown()
		return nil, err
	}
	if internal.LogEnabled(e.log, slog.LevelInfo) {
		id, _ := e.PHYID()
		e.info("eth:up", internal.SlogAddr6("hwaddr", &e.hwaddr), slog.Int("tx", ntx), slog.Int("rx", nrx),
			slog.Int("bufsize", bufSize), slog.String("mdc", e.clockRange.String()), slog.String("phyid", fmt.Sprintf("%08x", id)))
	}
	return e, nil
}

func (cfg *Config) validate() (ntx, nrx, bufSize int, err error) {
	if cfg.Bus == nil || cfg.Interrupt == nil || cfg.Clocks == nil || cfg.GPIO == nil || cfg.PHY == nil {
		return 0, 0, 0, fmt.Errorf("missing collaborator: %w", ethmac.ErrInvalidConfig)
	} else if cfg.PHYAddr > 31 {
		return 0, 0, 0, fmt.Errorf("PHY address %d: %w", cfg.PHYAddr, ethmac.ErrInvalidAddr)
	} else if !ethmac.IsUnicast(cfg.HardwareAddr) {
		return 0, 0, 0, fmt.Errorf("hardware address not unicast: %w", ethmac.ErrInvalidAddr)
	} else if cfg.TxDescriptors < 0 || cfg.RxDescriptors < 0 || cfg.BufferSize < 0 {
		return 0, 0, 0, ethmac.ErrInvalidConfig
	}
	ntx = intOr(cfg.TxDescriptors, defaultDescriptors)
	nrx = intOr(cfg.RxDescriptors, defaultDescriptors)
	bufSize = (intOr(cfg.BufferSize, defaultBufferSize) + 3) &^ 3
	if bufSize < ethmac.MTU || bufSize > maxBufferSize {
		return 0, 0, 0, fmt.Errorf("buffer size %d out of range [%d,%d]: %w", bufSize, ethmac.MTU, maxBufferSize, ethmac.ErrInvalidConfig)
	}
	return ntx, nrx, bufSize, nil
}

// start runs the bring-up sequence. Each step depends on the previous one.
func (e *Ethernet) start(clocks Clocks) error {
	bus := e.bus
	// 1. Clocks and RMII selection.
	st := e.pm.irq.Mask()
	clocks.EnableEthernet(true)
	e.pm.irq.Restore(st)

	// 2. Pins.
	for _, p := range e.pins {
		e.gpio.ConfigureAltFunc(p.pin, p.af)
	}

	// 3. DMA software reset.
	setBits(bus, DMABMR, DMABMR_SR)
	err := e.waitReset()
	if err != nil {
		return err
	}

	// 4. MAC configuration and station address. Writing MACA0LR latches both halves.
	setBits(bus, MACCR, MACCR_IFG96|MACCR_APCS|MACCR_CSTF|MACCR_FES|MACCR_DM)
	hw := e.hwaddr
	bus.Store(MACA0HR, uint32(hw[4])|uint32(hw[5])<<8)
	bus.Store(MACA0LR, uint32(hw[0])|uint32(hw[1])<<8|uint32(hw[2])<<16|uint32(hw[3])<<24)
	replaceBits(bus, MACFCR, pauseTime<<MACFCR_PT_Pos, MACFCR_PT_Msk)

	// 5. DMA operation mode and burst length.
	setBits(bus, DMAOMR, DMAOMR_TSF|DMAOMR_RSF)
	replaceBits(bus, DMABMR, DMABMR_PBL32, DMABMR_PBL_Msk)

	// 6. MDC clock divider.
	hclk := clocks.AHBFrequency()
	e.clockRange, err = ClockRangeFor(hclk)
	if err != nil {
		e.error("eth:clock", slog.Uint64("hclk", uint64(hclk)))
		return err
	}
	replaceBits(bus, MACMIIAR, uint32(e.clockRange)<<MACMIIAR_CR_Pos, MACMIIAR_CR_Msk)

	// 7. Rings, then MAC and DMA engines, then interrupt sources.
	in, st := e.pm.lock()
	in.ring.init()
	bus.Store(DMATDLAR, in.ring.tx.base())
	bus.Store(DMARDLAR, in.ring.rx.base())
	if mem, ok := bus.(DMAMemory); ok {
		mem.AttachRings(&in.ring.tx, &in.ring.rx)
	}
	fence()
	setBits(bus, MACCR, MACCR_TE|MACCR_RE)
	setBits(bus, DMAOMR, DMAOMR_FTF|DMAOMR_ST|DMAOMR_SR)
	bus.Store(DMAIER, DMAIER_NISE|DMAIER_RIE|DMAIER_TIE)
	e.pm.unlock(st)
	e.pm.irq.Enable(e.pm.handle)

	// 8. PHY.
	err = e.phy.PHYReset(e)
	if err != nil {
		return fmt.Errorf("PHY reset: %w", err)
	}
	err = e.phy.PHYInit(e)
	if err != nil {
		return fmt.Errorf("PHY init: %w", err)
	}
	return nil
}

func (e *Ethernet) waitReset() error {
	deadline := time.Now().Add(e.resetTimeout)
	backoff := internal.NewBackoff(internal.BackoffCriticalPath)
	for e.bus.Load(DMABMR)&DMABMR_SR != 0 {
		if time.Now().After(deadline) {
			e.error("eth:reset-timeout", slog.Duration("timeout", e.resetTimeout))
			return ethmac.ErrResetTimeout
		}
		backoff.Miss()
	}
	return nil
}

// IsTransmitReady reports whether a transmit descriptor is free.
func (e *Ethernet) IsTransmitReady() bool {
	in, st := e.pm.lock()
	defer e.pm.unlock(st)
	return !e.closed && in.ring.tx.available()
}

// Transmit copies frame into the next free transmit descriptor and hands it to
// DMA. frame must not include the FCS, which the MAC appends.
// Transmit returns [ethmac.ErrQueueFull] when every descriptor is in flight.
func (e *Ethernet) Transmit(frame []byte) error {
	if len(frame) < ethmac.SizeHeader {
		return ethmac.ErrShortFrame
	} else if len(frame) > ethmac.MTU {
		return ethmac.ErrPacketTooLarge
	}
	in, st := e.pm.lock()
	if e.closed {
		e.pm.unlock(st)
		return ethmac.ErrClosed
	}
	err := in.ring.tx.transmit(frame)
	e.pm.unlock(st)
	if err == ethmac.ErrQueueFull {
		e.ctr.txQueueFull.Add(1)
	}
	if err == nil && internal.LogEnabled(e.log, internal.LevelTrace) {
		e.trace("eth:tx", slog.Int("len", len(frame)))
	}
	return err
}

// Receive returns the next received frame. The returned packet must be
// released once the caller is done with its data.
func (e *Ethernet) Receive() (ethmac.Packet, bool) {
	in, st := e.pm.lock()
	if e.closed {
		e.pm.unlock(st)
		return nil, false
	}
	pkt, ok := in.ring.rx.popPacket()
	e.pm.unlock(st)
	if !ok {
		return nil, false
	}
	e.ctr.rxFrames.Add(1)
	return pkt, true
}

// RegisterWaker sets fn to be called from interrupt context on the next
// transmit completion or frame reception. fn must not block.
func (e *Ethernet) RegisterWaker(fn func()) {
	waker.Register(fn)
}

// LinkState polls the PHY for link status. A closed driver reports the link down.
func (e *Ethernet) LinkState() ethmac.LinkState {
	if e.isClosed() || !e.phy.PollLink(e) {
		return ethmac.LinkDown
	}
	return ethmac.LinkUp
}

func (e *Ethernet) Capabilities() ethmac.Capabilities {
	return ethmac.Capabilities{
		MaxTransmissionUnit: ethmac.MTU,
		MaxBurstSize:        e.burst,
	}
}

func (e *Ethernet) HardwareAddr6() [6]byte { return e.hwaddr }

// ClockRange returns the MDC clock divider selected at construction.
func (e *Ethernet) ClockRange() ClockRange { return e.clockRange }

// Stats returns a snapshot of the driver counters.
func (e *Ethernet) Stats() Stats {
	in, st := e.pm.lock()
	dropped := in.ring.rx.dropped
	e.pm.unlock(st)
	return Stats{
		TxFrames:     e.ctr.txFrames.Load(),
		TxErrors:     e.ctr.txErrors.Load(),
		TxQueueFull:  e.ctr.txQueueFull.Load(),
		RxFrames:     e.ctr.rxFrames.Load(),
		RxDropped:    uint32(dropped),
		Interrupts:   e.ctr.interrupts.Load(),
		MDIOTimeouts: e.ctr.mdioTimeouts.Load(),
	}
}

var errClosed = errors.New("stm32eth: already closed")

// Close stops the peripheral abruptly without waiting for in-flight
// transmissions, returns every pin to analog mode and releases the peripheral.
// Packets still held by the caller may be released after Close.
func (e *Ethernet) Close() error {
	if e.isClosed() {
		return errClosed
	}
	e.shutdown()
	e.info("eth:closed")
	return nil
}

func (e *Ethernet) isClosed() bool {
	_, st := e.pm.lock()
	defer e.pm.unlock(st)
	return e.closed
}

// shutdown stops the transmit DMA, the MAC, then the receive DMA, and
// reverts pins. It is also the cleanup path of a failed New.
func (e *Ethernet) shutdown() {
	bus := e.bus
	st := e.pm.irq.Mask()
	clearBits(bus, DMAOMR, DMAOMR_ST)
	clearBits(bus, MACCR, MACCR_TE|MACCR_RE)
	clearBits(bus, DMAOMR, DMAOMR_SR)
	bus.Store(DMAIER, 0)
	e.closed = true
	e.pm.irq.Restore(st)
	e.pm.irq.Disable()
	for _, p := range e.pins {
		e.gpio.SetAnalog(p.pin)
	}
	waker.Clear()
	claimed.Store(false)
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
