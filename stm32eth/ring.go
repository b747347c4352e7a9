package stm32eth

import (
	"unsafe"
)

// DMAMemory is implemented by buses whose DMA engine cannot reach descriptor
// memory through the addresses written to DMATDLAR and DMARDLAR,
// such as a simulated peripheral on a 64-bit host. The driver attaches its
// rings after initializing them and before starting DMA.
type DMAMemory interface {
	AttachRings(tx, rx RingView)
}

// RingView is the DMA engine's view of a descriptor ring:
// descriptor i is paired with buffer i and the ring wraps after Len descriptors.
type RingView interface {
	Len() int
	Descriptor(i int) *Descriptor
	Buffer(i int) []byte
}

// ringBuffers is a fixed array of descriptors each paired with a buffer slot
// of equal size. It never grows after construction.
type ringBuffers struct {
	desc    []Descriptor
	buf     []byte
	bufSize int
}

func makeRingBuffers(n, bufSize int) ringBuffers {
	if n <= 0 || bufSize <= 0 || bufSize%4 != 0 {
		panic("stm32eth: bad ring dimensions")
	}
	// Back buffers with words so every slot is 4-byte aligned for DMA.
	words := make([]uint32, n*bufSize/4)
	return ringBuffers{
		desc:    make([]Descriptor, n),
		buf:     unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n*bufSize),
		bufSize: bufSize,
	}
}

func (r *ringBuffers) Len() int { return len(r.desc) }

func (r *ringBuffers) Descriptor(i int) *Descriptor { return &r.desc[i] }

func (r *ringBuffers) Buffer(i int) []byte {
	off := i * r.bufSize
	return r.buf[off : off+r.bufSize : off+r.bufSize]
}

func (r *ringBuffers) base() uint32 { return dmaAddr(unsafe.Pointer(&r.desc[0])) }

func (r *ringBuffers) bufAddr(i int) uint32 {
	return dmaAddr(unsafe.Pointer(&r.buf[i*r.bufSize]))
}

func (r *ringBuffers) isLast(i int) bool { return i == len(r.desc)-1 }

func (r *ringBuffers) wrap(i int) int {
	i++
	if i == len(r.desc) {
		return 0
	}
	return i
}

// descriptorRing holds the transmit and receive rings of the peripheral.
type descriptorRing struct {
	tx txRing
	rx rxRing
}

func makeDescriptorRing(bus Bus, ntx, nrx, bufSize int) descriptorRing {
	return descriptorRing{
		tx: txRing{ringBuffers: makeRingBuffers(ntx, bufSize), bus: bus},
		rx: makeRxRing(bus, nrx, bufSize),
	}
}

// init programs every descriptor's buffer address, hands all receive
// descriptors to DMA and leaves all transmit descriptors with software.
// It must run before the DMA engines are started since they latch the
// descriptor list addresses on start.
func (dr *descriptorRing) init() {
	dr.tx.init()
	dr.rx.init()
}
