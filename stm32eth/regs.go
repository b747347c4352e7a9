package stm32eth

// Register offsets from the ETH peripheral base (0x4002_8000 on STM32F4/F7).
const (
	MACCR    = 0x0000 // MAC configuration
	MACFFR   = 0x0004 // MAC frame filter
	MACMIIAR = 0x0010 // MAC MII address (MDIO control)
	MACMIIDR = 0x0014 // MAC MII data
	MACFCR   = 0x0018 // MAC flow control
	MACA0HR  = 0x0040 // MAC address 0 high
	MACA0LR  = 0x0044 // MAC address 0 low

	DMABMR   = 0x1000 // DMA bus mode
	DMATPDR  = 0x1004 // DMA transmit poll demand
	DMARPDR  = 0x1008 // DMA receive poll demand
	DMARDLAR = 0x100C // DMA receive descriptor list address
	DMATDLAR = 0x1010 // DMA transmit descriptor list address
	DMASR    = 0x1014 // DMA status
	DMAOMR   = 0x1018 // DMA operation mode
	DMAIER   = 0x101C // DMA interrupt enable

	// RegisterSpan is the size of the register block covering all offsets above.
	RegisterSpan = 0x1060
)

// MACCR bits.
const (
	MACCR_RE   = 1 << 2  // receiver enable
	MACCR_TE   = 1 << 3  // transmitter enable
	MACCR_APCS = 1 << 7  // automatic pad/CRC stripping
	MACCR_DM   = 1 << 11 // duplex mode: full
	MACCR_FES  = 1 << 14 // fast ethernet speed: 100Mbit/s
	MACCR_CSTF = 1 << 25 // CRC stripping for type frames

	MACCR_IFG_Pos = 17
	MACCR_IFG_Msk = 0b111 << MACCR_IFG_Pos
	MACCR_IFG96   = 0b000 << MACCR_IFG_Pos // 96 bit times
)

// MACFFR bits.
const (
	MACFFR_PM = 1 << 0  // promiscuous mode
	MACFFR_RA = 1 << 31 // receive all
)

// MACMIIAR fields. PA and MR select PHY address and register, MW selects a write,
// CR selects the MDC clock divider and MB is set by software to start a
// transaction and cleared by hardware on completion.
const (
	MACMIIAR_MB     = 1 << 0
	MACMIIAR_MW     = 1 << 1
	MACMIIAR_CR_Pos = 2
	MACMIIAR_CR_Msk = 0b111 << MACMIIAR_CR_Pos
	MACMIIAR_MR_Pos = 6
	MACMIIAR_MR_Msk = 0b11111 << MACMIIAR_MR_Pos
	MACMIIAR_PA_Pos = 11
	MACMIIAR_PA_Msk = 0b11111 << MACMIIAR_PA_Pos

	MACMIIDR_MD_Msk = 0xffff
)

// MACFCR fields.
const (
	MACFCR_PT_Pos = 16
	MACFCR_PT_Msk = 0xffff << MACFCR_PT_Pos
)

// DMABMR bits.
const (
	DMABMR_SR      = 1 << 0 // software reset, cleared by hardware when done
	DMABMR_PBL_Pos = 8
	DMABMR_PBL_Msk = 0b111111 << DMABMR_PBL_Pos
	DMABMR_PBL32   = 32 << DMABMR_PBL_Pos
)

// DMASR bits. Status bits are cleared by writing 1.
const (
	DMASR_TS   = 1 << 0  // transmit status
	DMASR_TPSS = 1 << 1  // transmit process stopped
	DMASR_TBUS = 1 << 2  // transmit buffer unavailable
	DMASR_RS   = 1 << 6  // receive status
	DMASR_RBUS = 1 << 7  // receive buffer unavailable
	DMASR_RPSS = 1 << 8  // receive process stopped
	DMASR_AIS  = 1 << 15 // abnormal interrupt summary
	DMASR_NIS  = 1 << 16 // normal interrupt summary
)

// DMAOMR bits.
const (
	DMAOMR_SR  = 1 << 1  // start/stop receive
	DMAOMR_ST  = 1 << 13 // start/stop transmission
	DMAOMR_FTF = 1 << 20 // flush transmit FIFO, self-clearing
	DMAOMR_TSF = 1 << 21 // transmit store and forward
	DMAOMR_RSF = 1 << 25 // receive store and forward
)

// DMAIER bits.
const (
	DMAIER_TIE  = 1 << 0  // transmit interrupt
	DMAIER_RIE  = 1 << 6  // receive interrupt
	DMAIER_NISE = 1 << 16 // normal interrupt summary
)

// Bus is 32-bit access to the ETH register block. On hardware it is
// memory mapped I/O; offsets are the constants in this file.
type Bus interface {
	Load(off uint32) uint32
	Store(off uint32, value uint32)
}

func setBits(bus Bus, off, bits uint32) {
	bus.Store(off, bus.Load(off)|bits)
}

func clearBits(bus Bus, off, bits uint32) {
	bus.Store(off, bus.Load(off)&^bits)
}

func replaceBits(bus Bus, off, value, mask uint32) {
	bus.Store(off, bus.Load(off)&^mask|value&mask)
}
