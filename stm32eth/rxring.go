package stm32eth

import "github.com/soypat/ethmac"

var _ ethmac.Packet = (*RxPacket)(nil) // compile time guarantee of interface implementation.

// RxPacket is a received frame lent out of the receive ring. Its data aliases
// the DMA buffer of the descriptor it was received into, which stays owned by
// software until Release hands it back to the DMA engine.
// Each reception gets its own RxPacket so a stale handle never reaches a
// later reception in the same slot.
type RxPacket struct {
	rx  *rxRing
	idx int
	gen uint32
}

// Data returns the frame, FCS excluded. It returns nil after Release.
func (p *RxPacket) Data() []byte {
	slot := &p.rx.slots[p.idx]
	if !slot.lent || slot.gen != p.gen {
		return nil
	}
	return p.rx.Buffer(p.idx)[:slot.n]
}

// Release recycles the packet's descriptor so it can receive another frame.
// Release panics if called twice for the same reception.
func (p *RxPacket) Release() {
	if irq := p.rx.irq; irq != nil {
		st := irq.Mask()
		defer irq.Restore(st)
	}
	p.rx.release(p)
}

// rxSlot tracks the software side of one receive descriptor.
type rxSlot struct {
	n    int
	gen  uint32 // incremented on every lend.
	lent bool
}

// rxRing manages receive descriptors. All descriptors start owned by DMA.
// A descriptor returned to software by DMA is either dropped immediately
// (error frames) or lent out as an RxPacket until released.
type rxRing struct {
	ringBuffers
	bus Bus
	// irq guards Release calls, which happen outside the driver's critical section.
	irq     Interrupt
	next    int // read cursor.
	dropped int
	slots   []rxSlot
}

func makeRxRing(bus Bus, n, bufSize int) rxRing {
	return rxRing{
		ringBuffers: makeRingBuffers(n, bufSize),
		bus:         bus,
		slots:       make([]rxSlot, n),
	}
}

func (rx *rxRing) init() {
	for i := range rx.desc {
		rx.slots[i] = rxSlot{}
		d := &rx.desc[i]
		rdes1 := uint32(rx.bufSize) & RDES1_RBS1_Msk
		if rx.isLast(i) {
			rdes1 |= RDES1_RER
		}
		d.Store(1, rdes1)
		d.Store(2, rx.bufAddr(i))
		d.Store(3, 0)
		d.giveToDMA(0)
	}
	rx.next = 0
	rx.dropped = 0
}

// popPacket returns the frame at the read cursor if DMA has completed it.
// Frames flagged with errors or spanning more than one descriptor are
// recycled on the spot and skipped; they are counted by dropped.
func (rx *rxRing) popPacket() (*RxPacket, bool) {
	for range rx.desc {
		i := rx.next
		slot := &rx.slots[i]
		if slot.lent {
			return nil, false // Ring wrapped around to a packet not yet released.
		}
		d := &rx.desc[i]
		status := d.Load(0)
		if status&RDES0_OWN != 0 {
			return nil, false
		}
		fence()
		rx.next = rx.wrap(i)
		length := int(status&RDES0_FL_Msk) >> RDES0_FL_Pos
		complete := status&(RDES0_FS|RDES0_LS) == RDES0_FS|RDES0_LS
		if status&RDES0_ES != 0 || !complete || length == 0 || length > rx.bufSize {
			rx.dropped++
			rx.recycle(i)
			continue
		}
		slot.n = length
		slot.gen++
		slot.lent = true
		return &RxPacket{rx: rx, idx: i, gen: slot.gen}, true
	}
	return nil, false
}

// onInterrupt reports whether a completed frame is waiting at the read cursor.
// Receive needs no ring bookkeeping in interrupt context; the consumer is
// woken and pops frames itself.
func (rx *rxRing) onInterrupt() bool {
	return !rx.slots[rx.next].lent && !rx.desc[rx.next].OwnedByDMA()
}

func (rx *rxRing) release(p *RxPacket) {
	slot := &rx.slots[p.idx]
	if !slot.lent || slot.gen != p.gen {
		panic("stm32eth: rx packet released twice")
	}
	slot.lent = false
	slot.n = 0
	rx.recycle(p.idx)
}

// recycle hands descriptor i back to DMA and resumes reception in case the
// receive process suspended for lack of descriptors.
func (rx *rxRing) recycle(i int) {
	rx.desc[i].giveToDMA(0)
	rx.bus.Store(DMARPDR, 0)
}
