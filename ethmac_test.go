package ethmac

import (
	"bytes"
	"strings"
	"testing"
)

func TestWakerLastWriterWins(t *testing.T) {
	var w Waker
	var a, b int
	w.Register(func() { a++ })
	w.Register(func() { b++ })
	w.Wake()
	if a != 0 || b != 1 {
		t.Fatalf("a=%d b=%d", a, b)
	}
	w.Wake()
	if b != 1 {
		t.Error("wake did not consume the registration")
	}
	w.Register(func() { a++ })
	w.Clear()
	w.Wake()
	if a != 0 {
		t.Error("cleared registration invoked")
	}
	w.Register(nil)
	w.Wake()
}

func TestHardwareAddrFromUID(t *testing.T) {
	uid := []byte{0x32, 0x00, 0x3c, 0x00, 0x0a, 0x51, 0x37, 0x30, 0x31, 0x38, 0x39, 0x33}
	hw1, err := HardwareAddrFromUID(uid)
	if err != nil {
		t.Fatal(err)
	}
	hw2, _ := HardwareAddrFromUID(bytes.Clone(uid))
	if hw1 != hw2 {
		t.Error("address not stable")
	}
	if !IsUnicast(hw1) || hw1[0]&0b10 == 0 {
		t.Errorf("%x not a locally administered unicast address", hw1)
	}
	uid[0]++
	if hw3, _ := HardwareAddrFromUID(uid); hw3 == hw1 {
		t.Error("distinct identifiers produced the same address")
	}
	if _, err := HardwareAddrFromUID(nil); err != ErrInvalidAddr {
		t.Errorf("empty uid: %v", err)
	}
}

func TestIsUnicast(t *testing.T) {
	for _, tc := range []struct {
		hw   [6]byte
		want bool
	}{
		{[6]byte{0x02, 0, 0, 0, 0, 1}, true},
		{[6]byte{0x01, 0, 0x5e, 0, 0, 1}, false},
		{[6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, false},
		{[6]byte{}, false},
	} {
		if got := IsUnicast(tc.hw); got != tc.want {
			t.Errorf("%x: got %v", tc.hw, got)
		}
	}
}

func TestErrorStrings(t *testing.T) {
	for err := ErrQueueFull; err <= ErrPeripheralInUse; err++ {
		if s := err.Error(); strings.HasPrefix(s, "errGeneric") {
			t.Errorf("error %d has no message", uint8(err))
		}
	}
}
