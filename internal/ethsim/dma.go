package ethsim

import (
	"log/slog"

	"github.com/soypat/ethmac/ethernet"
	"github.com/soypat/ethmac/stm32eth"
)

// Descriptor bits the DMA engine interprets. They match the driver's layout.
const (
	own     = stm32eth.TDES0_OWN
	tdesIC  = stm32eth.TDES0_IC
	tdesLS  = stm32eth.TDES0_LS
	tdesFS  = stm32eth.TDES0_FS
	tdesTER = stm32eth.TDES0_TER
	tdesES  = stm32eth.TDES0_ES

	rdesFS  = stm32eth.RDES0_FS
	rdesLS  = stm32eth.RDES0_LS
	rdesES  = stm32eth.RDES0_ES
	rdesCE  = stm32eth.RDES0_CE
	rdesRER = stm32eth.RDES1_RER
)

type dmaChannel struct {
	ring   stm32eth.RingView
	cursor int
}

// next returns the descriptor index following i, honoring the end-of-ring bit.
func (ch *dmaChannel) next(i int, endOfRing bool) int {
	i++
	if endOfRing || i >= ch.ring.Len() {
		return 0
	}
	return i
}

type dma struct {
	tx      dmaChannel
	rx      dmaChannel
	txFrame []byte // frame being gathered between FS and LS descriptors.
	txFail  int    // transmissions left to complete with an error.
	rxFIFO  []rxFrame
}

func (d *dma) reset() {
	d.tx.cursor = 0
	d.rx.cursor = 0
	d.txFrame = d.txFrame[:0]
	d.rxFIFO = nil
}

// FailTx makes the next n transmissions complete with the error summary bit set.
func (p *Peripheral) FailTx(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dma.txFail = n
}

// CompleteTx transmits up to n frames owned by DMA regardless of HoldTx and
// returns the amount of frames transmitted.
func (p *Peripheral) CompleteTx(n int) int {
	p.mu.Lock()
	sent := p.runTx(n)
	p.mu.Unlock()
	p.dispatch()
	return sent
}

func (p *Peripheral) txRunning() bool {
	return p.dma.tx.ring != nil && p.regs[stm32eth.DMAOMR]&stm32eth.DMAOMR_ST != 0 &&
		p.regs[stm32eth.MACCR]&stm32eth.MACCR_TE != 0
}

func (p *Peripheral) rxRunning() bool {
	return p.dma.rx.ring != nil && p.regs[stm32eth.DMAOMR]&stm32eth.DMAOMR_SR != 0 &&
		p.regs[stm32eth.MACCR]&stm32eth.MACCR_RE != 0
}

// runTx walks the transmit ring from the current descriptor, transmitting
// up to limit frames (all when negative). It suspends at the first
// descriptor owned by software. p.mu must be held.
func (p *Peripheral) runTx(limit int) (sent int) {
	if !p.txRunning() {
		return 0
	}
	ch := &p.dma.tx
	for i := 0; i < ch.ring.Len() && limit != 0; i++ {
		d := ch.ring.Descriptor(ch.cursor)
		status := d.Load(0)
		if status&own == 0 {
			p.regs[stm32eth.DMASR] |= stm32eth.DMASR_TBUS
			break
		}
		n := int(d.Load(1) & stm32eth.TDES1_TBS1_Msk)
		if status&tdesFS != 0 {
			p.dma.txFrame = p.dma.txFrame[:0]
		}
		p.dma.txFrame = append(p.dma.txFrame, ch.ring.Buffer(ch.cursor)[:n]...)
		status &^= own
		if status&tdesLS != 0 {
			if p.dma.txFail > 0 {
				p.dma.txFail--
				status |= tdesES
				p.stats.TxErrors++
			} else {
				p.emit(p.dma.txFrame)
			}
			sent++
			limit--
		}
		d.Store(0, status)
		if status&tdesIC != 0 {
			p.regs[stm32eth.DMASR] |= stm32eth.DMASR_TS | stm32eth.DMASR_NIS
		}
		ch.cursor = ch.next(ch.cursor, status&tdesTER != 0)
	}
	return sent
}

func (p *Peripheral) emit(frame []byte) {
	p.stats.TxFrames++
	wire := ethernet.AppendWire(nil, frame)
	p.log.trace("ethsim:tx", slog.Int("len", len(frame)))
	if p.cfg.OnTransmit != nil {
		p.cfg.OnTransmit(wire)
	}
}

// Inject puts frame on the wire towards the MAC. The FCS is computed and
// short frames padded as a transmitting station would.
func (p *Peripheral) Inject(frame []byte) {
	p.InjectRaw(ethernet.AppendWire(nil, frame))
}

// InjectRaw puts wire on the wire towards the MAC. wire must end with the FCS.
// Frames with a bad FCS are delivered with error status, as the MAC does
// in store and forward mode with error frame forwarding enabled.
func (p *Peripheral) InjectRaw(wire []byte) {
	p.mu.Lock()
	p.receive(wire)
	p.mu.Unlock()
	p.dispatch()
}

func (p *Peripheral) receive(wire []byte) {
	if p.regs[stm32eth.MACCR]&stm32eth.MACCR_RE == 0 {
		return
	}
	frame, ok := ethernet.CheckFCS(wire)
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		return // Runt.
	}
	if !p.accept(efrm) {
		p.stats.RxFiltered++
		return
	}
	var status uint32
	if !ok {
		status = rdesES | rdesCE
		p.stats.RxCRCError++
	}
	// Automatic pad and CRC stripping is modeled for all frames.
	if len(p.dma.rxFIFO) >= p.cfg.RxFIFO {
		p.stats.RxMissed++
		return
	}
	p.dma.rxFIFO = append(p.dma.rxFIFO, rxFrame{data: append([]byte(nil), frame...), status: status})
	p.runRx()
}

// accept applies the destination address filter.
func (p *Peripheral) accept(efrm ethernet.Frame) bool {
	if p.regs[stm32eth.MACFFR]&(stm32eth.MACFFR_PM|stm32eth.MACFFR_RA) != 0 || efrm.IsMulticast() {
		return true
	}
	hr, lr := p.regs[stm32eth.MACA0HR], p.regs[stm32eth.MACA0LR]
	station := [6]byte{byte(lr), byte(lr >> 8), byte(lr >> 16), byte(lr >> 24), byte(hr), byte(hr >> 8)}
	return *efrm.DestinationHardwareAddr() == station
}

// rxFrame is a frame waiting in the receive FIFO with its status.
type rxFrame struct {
	data   []byte
	status uint32
}

// runRx moves frames from the FIFO into descriptors owned by DMA. A frame
// larger than a descriptor buffer spans several descriptors. p.mu must be held.
func (p *Peripheral) runRx() {
	if !p.rxRunning() {
		return
	}
	ch := &p.dma.rx
	for len(p.dma.rxFIFO) > 0 {
		f := p.dma.rxFIFO[0]
		if !p.fits(len(f.data)) {
			p.regs[stm32eth.DMASR] |= stm32eth.DMASR_RBUS
			return
		}
		p.dma.rxFIFO = p.dma.rxFIFO[1:]
		first := true
		data := f.data
		for first || len(data) > 0 {
			d := ch.ring.Descriptor(ch.cursor)
			rdes1 := d.Load(1)
			size := int(rdes1 & stm32eth.RDES1_RBS1_Msk)
			n := copy(ch.ring.Buffer(ch.cursor)[:size], data)
			data = data[n:]
			status := f.status
			if first {
				status |= rdesFS
			}
			if len(data) == 0 {
				// Frame length is only valid in the last descriptor.
				status |= rdesLS | uint32(len(f.data))<<stm32eth.RDES0_FL_Pos&stm32eth.RDES0_FL_Msk
			}
			d.Store(0, status)
			ch.cursor = ch.next(ch.cursor, rdes1&rdesRER != 0)
			first = false
		}
		p.stats.RxFrames++
		p.regs[stm32eth.DMASR] |= stm32eth.DMASR_RS | stm32eth.DMASR_NIS
		p.log.trace("ethsim:rx", slog.Int("len", len(f.data)))
	}
}

// fits reports whether enough consecutive descriptors from the cursor are
// owned by DMA to hold n bytes.
func (p *Peripheral) fits(n int) bool {
	ch := &p.dma.rx
	idx := ch.cursor
	for i := 0; i < ch.ring.Len(); i++ {
		d := ch.ring.Descriptor(idx)
		if d.Load(0)&own == 0 {
			return false
		}
		rdes1 := d.Load(1)
		n -= int(rdes1 & stm32eth.RDES1_RBS1_Msk)
		if n <= 0 {
			return true
		}
		idx = ch.next(idx, rdes1&rdesRER != 0)
	}
	return false
}
