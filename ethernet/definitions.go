// Package ethernet provides zero-copy access to Ethernet II frames as they
// appear on the wire between a MAC and its PHY, along with the frame check
// sequence and padding rules the MAC applies.
package ethernet

import (
	"strconv"
)

const (
	sizeHeaderNoVLAN = 14
	// SizeFCS is the length of the frame check sequence trailing every frame on the wire.
	SizeFCS = 4
	// MinFrameSize is the shortest frame on the wire, FCS included.
	MinFrameSize = 64
)

// AppendAddr appends the text representation of the hardware address to the destination buffer.
func AppendAddr(dst []byte, hwAddr [6]byte) []byte {
	for i, b := range hwAddr {
		if i != 0 {
			dst = append(dst, ':')
		}
		if b < 16 {
			dst = append(dst, '0')
		}
		dst = strconv.AppendUint(dst, uint64(b), 16)
	}
	return dst
}

// BroadcastAddr returns the all 0xff's broadcast hardware/MAC/EUI/OUI address.
func BroadcastAddr() [6]byte {
	return [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
}

// Type is the EtherType/Size field of an Ethernet header.
type Type uint16

// IsSize returns true if the EtherType is actually the size of the payload
// and should NOT be interpreted as an EtherType.
func (et Type) IsSize() bool { return et <= 1500 }

// EtherTypes most commonly seen by an embedded station.
const (
	TypeIPv4                Type = 0x0800
	TypeARP                 Type = 0x0806
	TypeWakeOnLAN           Type = 0x0842
	TypeIPv6                Type = 0x86DD
	TypeEthernetFlowControl Type = 0x8808
	TypeLLDP                Type = 0x88CC
	TypeVLAN                Type = 0x8100
	TypeServiceVLAN         Type = 0x88a8
)

func (et Type) String() string {
	switch et {
	case TypeIPv4:
		return "IPv4"
	case TypeARP:
		return "ARP"
	case TypeWakeOnLAN:
		return "wake on LAN"
	case TypeIPv6:
		return "IPv6"
	case TypeEthernetFlowControl:
		return "EthernetFlowCtl"
	case TypeLLDP:
		return "LLDP"
	case TypeVLAN:
		return "VLAN"
	case TypeServiceVLAN:
		return "service VLAN"
	}
	if et.IsSize() {
		return "size(" + strconv.Itoa(int(et)) + ")"
	}
	return "Type(0x" + strconv.FormatUint(uint64(et), 16) + ")"
}
