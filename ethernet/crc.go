package ethernet

import (
	"encoding/binary"
	"hash/crc32"
)

// crcTable is the IEEE CRC-32 table used for Ethernet FCS calculation.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 calculates the Ethernet Frame Check Sequence (FCS) for the given data.
// The CRC is computed using the IEEE 802.3 CRC-32 polynomial.
// The input should be the frame data from destination MAC through payload,
// excluding any existing FCS.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// AppendWire appends frame as a MAC transmits it: padded with zeros to the
// minimum frame size and followed by its FCS in little-endian order.
func AppendWire(dst, frame []byte) []byte {
	start := len(dst)
	dst = append(dst, frame...)
	for len(dst)-start < MinFrameSize-SizeFCS {
		dst = append(dst, 0)
	}
	return binary.LittleEndian.AppendUint32(dst, CRC32(dst[start:]))
}

// CheckFCS reports whether the last 4 bytes of wire are the FCS of the
// bytes preceding them and returns the frame with the FCS removed.
func CheckFCS(wire []byte) (frame []byte, ok bool) {
	if len(wire) < SizeFCS {
		return nil, false
	}
	n := len(wire) - SizeFCS
	return wire[:n], CRC32(wire[:n]) == binary.LittleEndian.Uint32(wire[n:])
}

// CRC32Search searches for a valid CRC32 in data starting from minOffCRC.
// It computes the CRC incrementally from minOffCRC, checking at each position
// if the CRC matches the next 4 bytes (little-endian FCS).
// Returns the offset where a valid CRC was found, or -1 if no valid CRC exists.
// This is useful when the exact frame length is unknown but bounded by minOffCRC.
func CRC32Search(data []byte, minOffCRC int) (foundOffOrNegative int) {
	if minOffCRC < 0 {
		minOffCRC = 0
	}
	if len(data) < minOffCRC+4 {
		return -1
	}
	crc := crc32.Checksum(data[:minOffCRC], crcTable)
	for off := minOffCRC; off <= len(data)-4; off++ {
		got := binary.LittleEndian.Uint32(data[off:])
		if crc == got {
			return off
		}
		crc = crc32.Update(crc, crcTable, data[off:off+1])
	}
	return -1
}
