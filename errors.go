package ethmac

import (
	"errors"
	"strconv"
)

type errGeneric uint8

// Generic errors common to Ethernet MAC drivers.
const (
	_                  errGeneric = iota // non-initialized err
	ErrQueueFull                         // transmit queue full
	ErrPacketTooLarge                    // packet too large
	ErrShortFrame                        // frame shorter than ethernet header
	ErrMDIOTimeout                       // MDIO transaction timeout
	ErrResetTimeout                      // DMA reset timeout
	ErrClockRange                        // bus clock out of MDIO range
	ErrClosed                            // device closed
	ErrPeripheralInUse                   // peripheral in use
)

func (err errGeneric) Error() string {
	return err.String()
}

func (err errGeneric) String() string {
	switch err {
	case ErrQueueFull:
		return "transmit queue full"
	case ErrPacketTooLarge:
		return "packet too large"
	case ErrShortFrame:
		return "frame shorter than ethernet header"
	case ErrMDIOTimeout:
		return "MDIO transaction timeout"
	case ErrResetTimeout:
		return "DMA reset timeout"
	case ErrClockRange:
		return "bus clock out of MDIO range"
	case ErrClosed:
		return "device closed"
	case ErrPeripheralInUse:
		return "peripheral in use"
	}
	return "errGeneric(" + strconv.Itoa(int(err)) + ")"
}

var (
	ErrInvalidConfig = errors.New("ethmac: invalid configuration")
	ErrInvalidAddr   = errors.New("ethmac: invalid address")
	ErrUnsupported   = errors.New("ethmac: unsupported")
	ErrShortBuffer   = errors.New("ethmac: short buffer")
)
