package ethernet

import "testing"

func TestFrameFields(t *testing.T) {
	src := [6]byte{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0xee}
	dst := [6]byte{0x01, 0x00, 0x5e, 0x00, 0x00, 0x01}
	buf := AppendFrame(nil, dst, src, TypeARP, []byte{1, 2, 3})
	frm, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := frm.ValidateSize(); err != nil {
		t.Fatal(err)
	}
	if *frm.SourceHardwareAddr() != src || *frm.DestinationHardwareAddr() != dst {
		t.Error("address mismatch")
	}
	if frm.EtherTypeOrSize() != TypeARP || frm.EtherTypeOrSize().String() != "ARP" {
		t.Errorf("bad ethertype %v", frm.EtherTypeOrSize())
	}
	if !frm.IsMulticast() || frm.IsBroadcast() {
		t.Error("expected multicast, non-broadcast destination")
	}
	if string(frm.Payload()) != "\x01\x02\x03" {
		t.Errorf("payload %x", frm.Payload())
	}
	if got := string(AppendAddr(nil, src)); got != "02:aa:bb:cc:dd:ee" {
		t.Errorf("AppendAddr=%q", got)
	}
}

func TestFrameShort(t *testing.T) {
	if _, err := NewFrame(make([]byte, 13)); err == nil {
		t.Error("expected error for short frame")
	}
	buf := AppendFrame(nil, BroadcastAddr(), [6]byte{2}, Type(100), make([]byte, 10))
	frm, _ := NewFrame(buf)
	if err := frm.ValidateSize(); err == nil {
		t.Error("expected size field error")
	}
	frm.SetEtherType(TypeVLAN)
	if err := frm.ValidateSize(); err != nil {
		t.Errorf("VLAN frame of %d bytes: %v", len(buf), err)
	}
	if frm.HeaderLength() != 18 {
		t.Errorf("VLAN header length %d", frm.HeaderLength())
	}
}
