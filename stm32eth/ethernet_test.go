package stm32eth_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/soypat/ethmac"
	"github.com/soypat/ethmac/ethernet"
	"github.com/soypat/ethmac/internal"
	"github.com/soypat/ethmac/internal/ethsim"
	"github.com/soypat/ethmac/phy"
	"github.com/soypat/ethmac/stm32eth"
)

var stationAddr = [6]byte{0x02, 0x80, 0xe1, 0x00, 0x00, 0x01}

func testLogger() *slog.Logger {
	if !testing.Verbose() {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: internal.LevelTrace}))
}

func driverConfig(sim *ethsim.Peripheral) stm32eth.Config {
	return stm32eth.Config{
		Bus:          sim,
		Interrupt:    sim,
		Clocks:       sim,
		GPIO:         sim,
		PHY:          phy.NewLAN8742A(phy.Config{}),
		HardwareAddr: stationAddr,
		Logger:       testLogger(),
	}
}

// newDriver returns a running driver over a fresh simulated peripheral.
// The driver is closed when the test ends.
func newDriver(t *testing.T, simcfg ethsim.Config, mod func(*stm32eth.Config)) (*stm32eth.Ethernet, *ethsim.Peripheral) {
	t.Helper()
	sim := ethsim.New(simcfg)
	cfg := driverConfig(sim)
	if mod != nil {
		mod(&cfg)
	}
	eth, err := stm32eth.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eth.Close() })
	return eth, sim
}

func frameTo(dst [6]byte, payload string) []byte {
	return ethernet.AppendFrame(nil, dst, [6]byte{0x02, 0, 0, 0, 0, 0xaa}, ethernet.TypeIPv4, []byte(payload))
}

func TestBringUp(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	if enabled, rmii := sim.ClocksEnabled(); !enabled || !rmii {
		t.Errorf("clocks enabled=%v rmii=%v", enabled, rmii)
	}
	pins := sim.Pins()
	if len(pins) != 9 {
		t.Errorf("%d pins configured, want 9", len(pins))
	}
	for pin, mode := range pins {
		if mode.AltFunc != 11 || mode.Analog {
			t.Errorf("%v: %+v", pin, mode)
		}
	}
	maccr := sim.Peek(stm32eth.MACCR)
	const want = stm32eth.MACCR_TE | stm32eth.MACCR_RE | stm32eth.MACCR_APCS | stm32eth.MACCR_CSTF | stm32eth.MACCR_FES | stm32eth.MACCR_DM
	if maccr&want != want {
		t.Errorf("MACCR=%#x missing bits %#x", maccr, want&^maccr)
	}
	omr := sim.Peek(stm32eth.DMAOMR)
	if omr&(stm32eth.DMAOMR_ST|stm32eth.DMAOMR_SR|stm32eth.DMAOMR_TSF|stm32eth.DMAOMR_RSF) != stm32eth.DMAOMR_ST|stm32eth.DMAOMR_SR|stm32eth.DMAOMR_TSF|stm32eth.DMAOMR_RSF {
		t.Errorf("DMAOMR=%#x", omr)
	}
	if ier := sim.Peek(stm32eth.DMAIER); ier != stm32eth.DMAIER_NISE|stm32eth.DMAIER_RIE|stm32eth.DMAIER_TIE {
		t.Errorf("DMAIER=%#x", ier)
	}
	if eth.LinkState() != ethmac.LinkUp {
		t.Error("link down after bring-up")
	}
	caps := eth.Capabilities()
	if caps.MaxTransmissionUnit != ethmac.MTU || caps.MaxBurstSize != 4 {
		t.Errorf("capabilities %+v", caps)
	}
	if eth.HardwareAddr6() != stationAddr {
		t.Error("hardware address mismatch")
	}
}

func TestBringUpOrder(t *testing.T) {
	_, sim := newDriver(t, ethsim.Config{}, nil)
	events := sim.Events()
	index := func(match func(ethsim.Event) bool) int {
		for i, ev := range events {
			if match(ev) {
				return i
			}
		}
		t.Fatal("event not found")
		return -1
	}
	clock := index(func(ev ethsim.Event) bool { return ev.Kind == ethsim.EventClockEnable })
	pin := index(func(ev ethsim.Event) bool { return ev.Kind == ethsim.EventPinAltFunc })
	reset := index(func(ev ethsim.Event) bool {
		return ev.Kind == ethsim.EventRegWrite && ev.Off == stm32eth.DMABMR && ev.Value&stm32eth.DMABMR_SR != 0
	})
	descList := index(func(ev ethsim.Event) bool {
		return ev.Kind == ethsim.EventRegWrite && ev.Off == stm32eth.DMATDLAR
	})
	start := index(func(ev ethsim.Event) bool {
		return ev.Kind == ethsim.EventRegWrite && ev.Off == stm32eth.DMAOMR && ev.Value&stm32eth.DMAOMR_ST != 0
	})
	irq := index(func(ev ethsim.Event) bool { return ev.Kind == ethsim.EventIRQEnable })
	if !(clock < pin && pin < reset && reset < descList && descList < start && start < irq) {
		t.Errorf("bring-up order clock=%d pin=%d reset=%d desc=%d start=%d irq=%d", clock, pin, reset, descList, start, irq)
	}
}

func TestHardwareAddrRegisters(t *testing.T) {
	_, sim := newDriver(t, ethsim.Config{}, nil)
	hr, lr := sim.Peek(stm32eth.MACA0HR), sim.Peek(stm32eth.MACA0LR)
	if hr&0xffff != 0x0100 {
		t.Errorf("MACA0HR=%#x", hr)
	}
	if lr != 0x00e18002 {
		t.Errorf("MACA0LR=%#x", lr)
	}
	// Low register write latches the address so it must come last.
	var hrIdx, lrIdx int
	for i, ev := range sim.Events() {
		switch {
		case ev.Kind != ethsim.EventRegWrite:
		case ev.Off == stm32eth.MACA0HR:
			hrIdx = i
		case ev.Off == stm32eth.MACA0LR:
			lrIdx = i
		}
	}
	if hrIdx >= lrIdx {
		t.Errorf("MACA0HR written at %d after MACA0LR at %d", hrIdx, lrIdx)
	}
}

func TestTransmitQueue(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{HoldTx: true}, func(cfg *stm32eth.Config) {
		cfg.TxDescriptors = 2
	})
	frames := [][]byte{frameTo(ethernet.BroadcastAddr(), "first"), frameTo(ethernet.BroadcastAddr(), "second"), frameTo(ethernet.BroadcastAddr(), "third")}
	for i := 0; i < 2; i++ {
		if !eth.IsTransmitReady() {
			t.Fatalf("not ready before frame %d", i)
		}
		if err := eth.Transmit(frames[i]); err != nil {
			t.Fatal(err)
		}
	}
	if eth.IsTransmitReady() {
		t.Fatal("ready with both descriptors in flight")
	}
	if err := eth.Transmit(frames[2]); err != ethmac.ErrQueueFull {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
	if n := sim.CompleteTx(1); n != 1 {
		t.Fatalf("completed %d", n)
	}
	if !eth.IsTransmitReady() {
		t.Fatal("not ready after completion")
	}
	if err := eth.Transmit(frames[2]); err != nil {
		t.Fatal(err)
	}
	sim.CompleteTx(-1)
	stats := eth.Stats()
	if stats.TxFrames != 3 || stats.TxQueueFull != 1 || stats.TxErrors != 0 {
		t.Errorf("stats %+v", stats)
	}
	if sim.Stats().TxFrames != 3 {
		t.Errorf("simulator transmitted %d frames", sim.Stats().TxFrames)
	}
}

func TestTransmitWire(t *testing.T) {
	var wire [][]byte
	sim := ethsim.New(ethsim.Config{OnTransmit: func(w []byte) {
		wire = append(wire, append([]byte(nil), w...))
	}})
	eth, err := stm32eth.New(driverConfig(sim))
	if err != nil {
		t.Fatal(err)
	}
	defer eth.Close()
	sent := [][]byte{frameTo(ethernet.BroadcastAddr(), "a"), frameTo(ethernet.BroadcastAddr(), "bb"), frameTo(ethernet.BroadcastAddr(), "ccc")}
	for _, f := range sent {
		if err := eth.Transmit(f); err != nil {
			t.Fatal(err)
		}
	}
	if len(wire) != len(sent) {
		t.Fatalf("%d frames on wire, want %d", len(wire), len(sent))
	}
	for i, w := range wire {
		frame, ok := ethernet.CheckFCS(w)
		if !ok {
			t.Fatalf("frame %d bad FCS", i)
		}
		if len(w) < ethernet.MinFrameSize {
			t.Errorf("frame %d not padded: %d bytes", i, len(w))
		}
		if !bytes.HasPrefix(frame, sent[i]) {
			t.Errorf("frame %d out of order or corrupted", i)
		}
	}
	if !eth.IsTransmitReady() || eth.Stats().TxFrames != 3 {
		t.Errorf("descriptors not reclaimed: %+v", eth.Stats())
	}
}

func TestTransmitErrors(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	if err := eth.Transmit(make([]byte, 10)); err != ethmac.ErrShortFrame {
		t.Errorf("short frame: %v", err)
	}
	if err := eth.Transmit(make([]byte, ethmac.MTU+1)); err != ethmac.ErrPacketTooLarge {
		t.Errorf("large frame: %v", err)
	}
	sim.FailTx(1)
	if err := eth.Transmit(frameTo(ethernet.BroadcastAddr(), "fails")); err != nil {
		t.Fatal(err)
	}
	if err := eth.Transmit(frameTo(ethernet.BroadcastAddr(), "works")); err != nil {
		t.Fatal(err)
	}
	stats := eth.Stats()
	if stats.TxErrors != 1 || stats.TxFrames != 1 {
		t.Errorf("stats %+v", stats)
	}
	if !eth.IsTransmitReady() {
		t.Error("errored descriptor not reclaimed")
	}
}

func TestReceiveOrder(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	payloads := []string{"R1", "R2", "R3"}
	for _, p := range payloads {
		sim.Inject(frameTo(stationAddr, p))
	}
	for _, p := range payloads {
		pkt, ok := eth.Receive()
		if !ok {
			t.Fatalf("missing frame %s", p)
		}
		efrm, err := ethernet.NewFrame(pkt.Data())
		if err != nil {
			t.Fatal(err)
		}
		if got := string(efrm.Payload()[:len(p)]); got != p {
			t.Errorf("got %q want %q", got, p)
		}
		// FCS is stripped by the MAC: length is the padded frame.
		if len(pkt.Data()) != 60 {
			t.Errorf("frame length %d", len(pkt.Data()))
		}
		pkt.Release()
	}
	if _, ok := eth.Receive(); ok {
		t.Error("extra frame")
	}
	if eth.Stats().RxFrames != 3 {
		t.Errorf("stats %+v", eth.Stats())
	}
}

func TestReceiveFilter(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	sim.Inject(frameTo([6]byte{0x02, 1, 2, 3, 4, 5}, "not for us"))
	sim.Inject(frameTo(ethernet.BroadcastAddr(), "broadcast"))
	pkt, ok := eth.Receive()
	if !ok {
		t.Fatal("broadcast not received")
	}
	efrm, _ := ethernet.NewFrame(pkt.Data())
	if *efrm.DestinationHardwareAddr() != ethernet.BroadcastAddr() {
		t.Error("wrong frame delivered")
	}
	pkt.Release()
	if sim.Stats().RxFiltered != 1 {
		t.Errorf("sim stats %+v", sim.Stats())
	}
}

func TestReceiveDropsErrorFrames(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	wire := ethernet.AppendWire(nil, frameTo(stationAddr, "corrupted"))
	wire[len(wire)-1] ^= 0xff
	sim.InjectRaw(wire)
	sim.Inject(frameTo(stationAddr, "good"))
	pkt, ok := eth.Receive()
	if !ok {
		t.Fatal("good frame not received")
	}
	efrm, _ := ethernet.NewFrame(pkt.Data())
	if !bytes.HasPrefix(efrm.Payload(), []byte("good")) {
		t.Error("error frame delivered")
	}
	pkt.Release()
	stats := eth.Stats()
	if stats.RxDropped != 1 || stats.RxFrames != 1 {
		t.Errorf("stats %+v", stats)
	}
}

func TestReceiveRingExhausted(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, func(cfg *stm32eth.Config) {
		cfg.RxDescriptors = 2
	})
	for _, p := range []string{"R1", "R2", "R3"} {
		sim.Inject(frameTo(stationAddr, p))
	}
	p1, ok1 := eth.Receive()
	p2, ok2 := eth.Receive()
	if !ok1 || !ok2 {
		t.Fatal("ring frames not received")
	}
	if _, ok := eth.Receive(); ok {
		t.Fatal("received with every descriptor lent")
	}
	p1.Release()
	p3, ok := eth.Receive()
	if !ok {
		t.Fatal("buffered frame not delivered after release")
	}
	efrm, _ := ethernet.NewFrame(p3.Data())
	if !bytes.HasPrefix(efrm.Payload(), []byte("R3")) {
		t.Error("wrong frame after release")
	}
	p2.Release()
	p3.Release()
}

func TestReleaseTwicePanics(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	sim.Inject(frameTo(stationAddr, "once"))
	pkt, ok := eth.Receive()
	if !ok {
		t.Fatal("no frame")
	}
	pkt.Release()
	defer func() {
		if recover() == nil {
			t.Error("double release did not panic")
		}
	}()
	pkt.Release()
}

func TestWaker(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	var first, second int
	eth.RegisterWaker(func() { first++ })
	eth.RegisterWaker(func() { second++ })
	sim.Inject(frameTo(stationAddr, "wake"))
	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d, last registration must win", first, second)
	}
	sim.Inject(frameTo(stationAddr, "again"))
	if second != 1 {
		t.Error("waker called without registration")
	}
	eth.RegisterWaker(func() { second++ })
	if err := eth.Transmit(frameTo(ethernet.BroadcastAddr(), "tx")); err != nil {
		t.Fatal(err)
	}
	if second != 2 {
		t.Error("transmit completion did not wake")
	}
	for {
		pkt, ok := eth.Receive()
		if !ok {
			break
		}
		pkt.Release()
	}
}

func TestSMI(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{PHYAddr: 1}, func(cfg *stm32eth.Config) {
		cfg.PHYAddr = 1
	})
	if err := eth.SMIWrite(3, 0x1234); err != nil {
		t.Fatal(err)
	}
	v, err := eth.SMIRead(3)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1234 {
		t.Fatalf("read back %#x", v)
	}
	writes := sim.RegWrites(stm32eth.MACMIIAR)
	if len(writes) < 2 {
		t.Fatal("no MDIO transactions")
	}
	cr := uint32(stm32eth.ClockRange150_216) << stm32eth.MACMIIAR_CR_Pos
	base := uint32(1)<<stm32eth.MACMIIAR_PA_Pos | 3<<stm32eth.MACMIIAR_MR_Pos | cr | stm32eth.MACMIIAR_MB
	if got := writes[len(writes)-2]; got != base|stm32eth.MACMIIAR_MW {
		t.Errorf("write control %#x, want %#x", got, base|stm32eth.MACMIIAR_MW)
	}
	if got := writes[len(writes)-1]; got != base {
		t.Errorf("read control %#x, want %#x", got, base)
	}
	if sim.PHYReg(3) != 0x1234 {
		t.Error("PHY register not written")
	}
	if _, err := eth.SMIRead(32); !errors.Is(err, ethmac.ErrInvalidAddr) {
		t.Errorf("register 32: %v", err)
	}
}

func TestMDIOBusScan(t *testing.T) {
	eth, _ := newDriver(t, ethsim.Config{PHYAddr: 5}, func(cfg *stm32eth.Config) {
		cfg.PHYAddr = 5
	})
	var found [32]uint8
	n, err := phy.FindClause22PHYs(eth.MDIOBus(), found[:])
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || found[0] != 5 {
		t.Fatalf("found %v", found[:n])
	}
}

func TestMDIOTimeout(t *testing.T) {
	sim := ethsim.New(ethsim.Config{MDIOHang: true})
	cfg := driverConfig(sim)
	cfg.MDIOTimeout = time.Millisecond
	_, err := stm32eth.New(cfg)
	if !errors.Is(err, ethmac.ErrMDIOTimeout) {
		t.Fatalf("want ErrMDIOTimeout, got %v", err)
	}
	for pin, mode := range sim.Pins() {
		if !mode.Analog {
			t.Errorf("%v left configured after failed bring-up", pin)
		}
	}
	assertReleased(t)
}

func TestResetTimeout(t *testing.T) {
	sim := ethsim.New(ethsim.Config{ResetHang: true})
	cfg := driverConfig(sim)
	cfg.ResetTimeout = time.Millisecond
	_, err := stm32eth.New(cfg)
	if !errors.Is(err, ethmac.ErrResetTimeout) {
		t.Fatalf("want ErrResetTimeout, got %v", err)
	}
	assertReleased(t)
}

func TestClockRange(t *testing.T) {
	for _, tc := range []struct {
		hclk uint32
		want stm32eth.ClockRange
		ok   bool
	}{
		{hclk: 24_000_000},
		{hclk: 25_000_000, want: stm32eth.ClockRange20_35, ok: true},
		{hclk: 59_000_000, want: stm32eth.ClockRange35_60, ok: true},
		{hclk: 60_000_000, want: stm32eth.ClockRange60_100, ok: true},
		{hclk: 150_000_000, want: stm32eth.ClockRange150_216, ok: true},
		{hclk: 216_000_000, want: stm32eth.ClockRange150_216, ok: true},
		{hclk: 217_000_000},
	} {
		sim := ethsim.New(ethsim.Config{HCLK: tc.hclk})
		eth, err := stm32eth.New(driverConfig(sim))
		if !tc.ok {
			if !errors.Is(err, ethmac.ErrClockRange) {
				t.Errorf("%dHz: want ErrClockRange, got %v", tc.hclk, err)
			}
			assertReleased(t)
			continue
		}
		if err != nil {
			t.Fatalf("%dHz: %v", tc.hclk, err)
		}
		if eth.ClockRange() != tc.want {
			t.Errorf("%dHz: clock range %v, want %v", tc.hclk, eth.ClockRange(), tc.want)
		}
		cr := (sim.Peek(stm32eth.MACMIIAR) & stm32eth.MACMIIAR_CR_Msk) >> stm32eth.MACMIIAR_CR_Pos
		if stm32eth.ClockRange(cr) != tc.want {
			t.Errorf("%dHz: MACMIIAR.CR=%#b", tc.hclk, cr)
		}
		eth.Close()
	}
}

func TestSingleton(t *testing.T) {
	eth, _ := newDriver(t, ethsim.Config{}, nil)
	_, err := stm32eth.New(driverConfig(ethsim.New(ethsim.Config{})))
	if err != ethmac.ErrPeripheralInUse {
		t.Fatalf("want ErrPeripheralInUse, got %v", err)
	}
	if err := eth.Close(); err != nil {
		t.Fatal(err)
	}
	if err := eth.Close(); err == nil {
		t.Error("second close succeeded")
	}
	assertReleased(t)
}

func TestCloseOrder(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	var fired bool
	eth.RegisterWaker(func() { fired = true })
	sim.ResetEvents()
	if err := eth.Close(); err != nil {
		t.Fatal(err)
	}
	events := sim.Events()
	var steps []string
	for _, ev := range events {
		switch {
		case ev.Kind == ethsim.EventRegWrite && ev.Off == stm32eth.DMAOMR && ev.Value&stm32eth.DMAOMR_ST == 0 && ev.Value&stm32eth.DMAOMR_SR != 0:
			steps = append(steps, "tx-dma-off")
		case ev.Kind == ethsim.EventRegWrite && ev.Off == stm32eth.MACCR && ev.Value&(stm32eth.MACCR_TE|stm32eth.MACCR_RE) == 0:
			steps = append(steps, "mac-off")
		case ev.Kind == ethsim.EventRegWrite && ev.Off == stm32eth.DMAOMR && ev.Value&(stm32eth.DMAOMR_ST|stm32eth.DMAOMR_SR) == 0:
			steps = append(steps, "rx-dma-off")
		case ev.Kind == ethsim.EventIRQDisable:
			steps = append(steps, "irq-off")
		case ev.Kind == ethsim.EventPinAnalog && len(steps) > 0 && steps[len(steps)-1] != "pins-analog":
			steps = append(steps, "pins-analog")
		}
	}
	want := []string{"tx-dma-off", "mac-off", "rx-dma-off", "irq-off", "pins-analog"}
	if len(steps) != len(want) {
		t.Fatalf("close steps %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("close steps %v, want %v", steps, want)
		}
	}
	for pin, mode := range sim.Pins() {
		if !mode.Analog {
			t.Errorf("%v not analog after close", pin)
		}
	}
	sim.Inject(frameTo(stationAddr, "after close"))
	if fired {
		t.Error("waker survived close")
	}
	if err := eth.Transmit(frameTo(ethernet.BroadcastAddr(), "x")); err != ethmac.ErrClosed {
		t.Errorf("transmit after close: %v", err)
	}
	if eth.IsTransmitReady() {
		t.Error("transmit ready after close")
	}
}

func TestLinkState(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	sim.SetLink(false)
	if eth.LinkState() != ethmac.LinkDown {
		t.Error("link up with cable unplugged")
	}
	sim.SetLink(true)
	if eth.LinkState() != ethmac.LinkUp {
		t.Error("link down after reconnect")
	}
}

func TestLinkStateAfterClose(t *testing.T) {
	eth, sim := newDriver(t, ethsim.Config{}, nil)
	if eth.LinkState() != ethmac.LinkUp {
		t.Fatal("link down before close")
	}
	eth.Close()
	before := len(sim.RegWrites(stm32eth.MACMIIAR))
	if eth.LinkState() != ethmac.LinkDown {
		t.Error("closed driver reports link up")
	}
	if _, err := eth.PHYID(); err != ethmac.ErrClosed {
		t.Errorf("PHYID after close: %v", err)
	}
	if after := len(sim.RegWrites(stm32eth.MACMIIAR)); after != before {
		t.Errorf("%d MDIO transactions on a closed peripheral", after-before)
	}
}

func TestPHYID(t *testing.T) {
	var logbuf bytes.Buffer
	eth, _ := newDriver(t, ethsim.Config{PHYAddr: 2}, func(c *stm32eth.Config) {
		c.PHYAddr = 2
		c.Logger = slog.New(slog.NewTextHandler(&logbuf, nil))
	})
	id, err := eth.PHYID()
	if err != nil {
		t.Fatal(err)
	}
	const lan8742a = 0x0007c131
	if id != lan8742a {
		t.Errorf("PHY id %08x, want %08x", id, lan8742a)
	}
	if !bytes.Contains(logbuf.Bytes(), []byte("phyid=0007c131")) {
		t.Errorf("bring-up log lacks PHY id: %s", logbuf.String())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*stm32eth.Config)
		want error
	}{
		{"no PHY", func(c *stm32eth.Config) { c.PHY = nil }, ethmac.ErrInvalidConfig},
		{"multicast address", func(c *stm32eth.Config) { c.HardwareAddr[0] |= 1 }, ethmac.ErrInvalidAddr},
		{"zero address", func(c *stm32eth.Config) { c.HardwareAddr = [6]byte{} }, ethmac.ErrInvalidAddr},
		{"PHY address", func(c *stm32eth.Config) { c.PHYAddr = 32 }, ethmac.ErrInvalidAddr},
		{"small buffers", func(c *stm32eth.Config) { c.BufferSize = 1000 }, ethmac.ErrInvalidConfig},
		{"negative descriptors", func(c *stm32eth.Config) { c.TxDescriptors = -1 }, ethmac.ErrInvalidConfig},
	}
	for _, tc := range tests {
		cfg := driverConfig(ethsim.New(ethsim.Config{}))
		tc.mod(&cfg)
		_, err := stm32eth.New(cfg)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}
	assertReleased(t)
}

// assertReleased checks the peripheral is free to be claimed again.
func assertReleased(t *testing.T) {
	t.Helper()
	eth, err := stm32eth.New(driverConfig(ethsim.New(ethsim.Config{})))
	if err != nil {
		t.Fatalf("peripheral not released: %v", err)
	}
	eth.Close()
}
