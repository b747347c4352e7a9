// Package ethmac defines the contract between an Ethernet MAC driver and the
// network stack that consumes it, along with the PHY capability set a driver
// uses to bring up the physical layer.
package ethmac

// MTU is the largest frame the device accepts for transmission and delivers on reception:
// 14 bytes of header plus 1500 bytes of payload. The frame check sequence is
// appended and stripped by the MAC and is not included.
const MTU = 1514

// SizeHeader is the length of an untagged Ethernet header.
const SizeHeader = 14

// LinkState is the state of the physical link as reported by the PHY.
type LinkState uint8

const (
	LinkDown LinkState = iota // down
	LinkUp                    // up
)

func (ls LinkState) String() string {
	if ls == LinkUp {
		return "up"
	}
	return "down"
}

// Capabilities is a static description of what a device supports.
type Capabilities struct {
	// MaxTransmissionUnit is the largest frame accepted by Transmit, header included.
	MaxTransmissionUnit int
	// MaxBurstSize is the amount of frames that may be queued before
	// the device stops being ready to transmit.
	MaxBurstSize int
}

// Packet is a received frame lent to the caller by a [Device].
// The frame data is only valid until Release is called. Release must be called
// exactly once so the underlying buffer can receive the next frame.
type Packet interface {
	Data() []byte
	Release()
}

// Device is the packet-level interface a network stack uses to drive an Ethernet MAC.
// None of the methods block. A stack registers a waker, polls Receive and
// IsTransmitReady, and sleeps until the waker is invoked.
type Device interface {
	// IsTransmitReady reports whether Transmit would accept a frame.
	IsTransmitReady() bool
	// Transmit queues a frame for transmission. It returns [ErrQueueFull] if no
	// transmit slot is available; callers are expected to check IsTransmitReady first.
	Transmit(frame []byte) error
	// Receive returns the next received frame, if any.
	Receive() (Packet, bool)
	// RegisterWaker sets the function invoked when transmit capacity frees up
	// or a frame is received. Only the last registered function is invoked.
	RegisterWaker(fn func())
	LinkState() LinkState
	Capabilities() Capabilities
	// HardwareAddr6 returns the station's MAC address.
	HardwareAddr6() [6]byte
}

// StationManagement is register access to a PHY over the management interface (MDIO/MDC)
// of the MAC. The PHY address is fixed by the implementation.
type StationManagement interface {
	SMIRead(reg uint8) (uint16, error)
	SMIWrite(reg uint8, value uint16) error
}

// PHY is the capability set a MAC driver requires of a physical layer transceiver.
// All methods are called from foreground context with the management interface
// of the owning driver.
type PHY interface {
	// PHYReset performs a software reset of the transceiver.
	PHYReset(sm StationManagement) error
	// PHYInit configures the transceiver after reset, typically starting auto-negotiation.
	PHYInit(sm StationManagement) error
	// PollLink reports whether the link is established.
	PollLink(sm StationManagement) bool
}
