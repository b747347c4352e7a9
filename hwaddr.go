package ethmac

import (
	"golang.org/x/crypto/blake2s"
)

// HardwareAddrFromUID derives a stable, locally administered unicast MAC address
// from a microcontroller's unique device identifier (96 bits on STM32 parts).
// The same identifier always yields the same address.
func HardwareAddrFromUID(uid []byte) (hw [6]byte, err error) {
	if len(uid) == 0 {
		return hw, ErrInvalidAddr
	}
	sum := blake2s.Sum256(uid)
	copy(hw[:], sum[:6])
	hw[0] = (hw[0] &^ 0b01) | 0b10 // Clear multicast bit, set locally administered bit.
	return hw, nil
}

// IsUnicast reports whether hw is a valid station address: not multicast, not all zeros.
func IsUnicast(hw [6]byte) bool {
	return hw[0]&1 == 0 && hw != [6]byte{}
}
