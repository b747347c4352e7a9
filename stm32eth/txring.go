package stm32eth

import (
	"github.com/soypat/ethmac"
)

// txRing manages transmit descriptors. Descriptors are handed to DMA in ring
// order starting at next and reclaimed in the same order, so the in-flight
// descriptors are always the inFlight descriptors preceding next.
type txRing struct {
	ringBuffers
	bus      Bus
	next     int // next descriptor to fill.
	inFlight int // descriptors owned by DMA.
}

func (tx *txRing) init() {
	for i := range tx.desc {
		d := &tx.desc[i]
		d.Store(1, 0)
		d.Store(2, tx.bufAddr(i))
		d.Store(3, 0)
		var status uint32
		if tx.isLast(i) {
			status = TDES0_TER
		}
		d.Store(0, status)
	}
	tx.next = 0
	tx.inFlight = 0
}

// available reports whether at least one descriptor is owned by software.
func (tx *txRing) available() bool {
	return tx.inFlight < len(tx.desc)
}

// free returns the amount of descriptors owned by software.
func (tx *txRing) free() int {
	return len(tx.desc) - tx.inFlight
}

// transmit copies pkt into the next free descriptor's buffer, hands the
// descriptor to DMA and issues a transmit poll demand.
func (tx *txRing) transmit(pkt []byte) error {
	if len(pkt) > tx.bufSize {
		return ethmac.ErrPacketTooLarge
	} else if !tx.available() {
		return ethmac.ErrQueueFull
	}
	i := tx.next
	d := &tx.desc[i]
	if d.OwnedByDMA() {
		panic("stm32eth: free tx descriptor owned by DMA")
	}
	copy(tx.Buffer(i), pkt)
	d.Store(1, uint32(len(pkt))&TDES1_TBS1_Msk)
	status := uint32(TDES0_IC | TDES0_FS | TDES0_LS)
	if tx.isLast(i) {
		status |= TDES0_TER
	}
	d.giveToDMA(status)
	tx.next = tx.wrap(i)
	tx.inFlight++
	// Any value written resumes a suspended transmit process.
	tx.bus.Store(DMATPDR, 0)
	return nil
}

// onInterrupt reclaims descriptors DMA has finished with, oldest first, and
// returns how many were reclaimed and how many of those carried a transmit error.
// Reclamation stops at the first descriptor still owned by DMA.
func (tx *txRing) onInterrupt() (reclaimed, errs int) {
	n := len(tx.desc)
	for tx.inFlight > 0 {
		i := tx.next - tx.inFlight
		if i < 0 {
			i += n
		}
		status := tx.desc[i].Load(0)
		if status&TDES0_OWN != 0 {
			break
		}
		fence()
		if status&TDES0_ES != 0 {
			errs++
		}
		tx.inFlight--
		reclaimed++
	}
	return reclaimed, errs
}
