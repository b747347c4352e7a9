package stm32eth

import (
	"sync/atomic"
	"unsafe"
)

// TDES0 bits of a transmit descriptor in ring mode.
const (
	TDES0_OWN = 1 << 31 // owned by DMA
	TDES0_IC  = 1 << 30 // interrupt on completion
	TDES0_LS  = 1 << 29 // last segment
	TDES0_FS  = 1 << 28 // first segment
	TDES0_TER = 1 << 21 // transmit end of ring
	TDES0_ES  = 1 << 15 // error summary, written by DMA

	TDES1_TBS1_Msk = 0x1fff // transmit buffer 1 size
)

// RDES0 and RDES1 bits of a receive descriptor in ring mode.
const (
	RDES0_OWN    = 1 << 31 // owned by DMA
	RDES0_FL_Pos = 16      // frame length, written by DMA
	RDES0_FL_Msk = 0x3fff << RDES0_FL_Pos
	RDES0_ES     = 1 << 15 // error summary
	RDES0_FS     = 1 << 9  // first descriptor of frame
	RDES0_LS     = 1 << 8  // last descriptor of frame
	RDES0_CE     = 1 << 1  // CRC error

	RDES1_RER      = 1 << 15 // receive end of ring
	RDES1_RBS1_Msk = 0x1fff  // receive buffer 1 size
)

// Descriptor is a normal DMA descriptor as read and written by the DMA engine:
// word 0 holds status and the ownership bit, word 1 the buffer size, word 2
// the buffer address and word 3 is unused in ring mode.
//
// Ownership is held by exactly one side at any time, indicated by bit 31 of word 0.
// Software only reads or writes a descriptor it owns and publishes the
// descriptor to DMA by setting the ownership bit last, after a fence.
type Descriptor struct {
	w [4]uint32
}

const sizeDescriptor = 16

// Load atomically loads word i of the descriptor.
func (d *Descriptor) Load(i int) uint32 { return atomic.LoadUint32(&d.w[i]) }

// Store atomically stores word i of the descriptor.
func (d *Descriptor) Store(i int, v uint32) { atomic.StoreUint32(&d.w[i], v) }

// OwnedByDMA reports whether the DMA engine currently owns the descriptor.
// Both transmit and receive descriptors keep the ownership bit at bit 31 of word 0.
func (d *Descriptor) OwnedByDMA() bool {
	return d.Load(0)&TDES0_OWN != 0
}

// giveToDMA publishes the descriptor. Every other word must have been written before.
func (d *Descriptor) giveToDMA(status uint32) {
	fence()
	d.Store(0, status|TDES0_OWN)
}

// dmaAddr returns the bus address of p as seen by the DMA engine. On 32-bit
// microcontrollers this is the pointer value; on hosted builds the value
// is only informative since simulated DMA reaches memory through [DMAMemory].
func dmaAddr(p unsafe.Pointer) uint32 {
	return uint32(uintptr(p))
}
