//go:build linux && !tinygo

package internal

import (
	"errors"
	"fmt"
	"net/netip"
	"os"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Tap is a Linux TAP interface. Frames written to it are received by the
// host network stack and frames the host sends out of the interface are read from it.
type Tap struct {
	fd   int // points to /dev/net/tun device.
	name string
}

// NewTap creates TAP interface name. If prefix is valid the link is brought
// up and prefix is assigned to it.
func NewTap(name string, prefix netip.Prefix) (*Tap, error) {
	if len(name) >= unix.IFNAMSIZ {
		return nil, errors.New("name too large")
	}
	fd, err := unix.Open("/dev/net/tun", os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open tun device: %w", err)
	}
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	ifr.SetUint16(unix.IFF_TAP | unix.IFF_NO_PI)
	err = unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("creating tap interface: %w", err)
	}
	tap := &Tap{fd: fd, name: name}
	if prefix.IsValid() {
		err = linkUp(name, prefix)
		if err != nil {
			tap.Close()
			return nil, err
		}
	}
	return tap, nil
}

func linkUp(name string, prefix netip.Prefix) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return err
	}
	err = netlink.LinkSetUp(link)
	if err != nil {
		return fmt.Errorf("failed to set link up: %w", err)
	}
	addr, err := netlink.ParseAddr(prefix.String())
	if err != nil {
		return err
	}
	err = netlink.AddrAdd(link, addr)
	if err != nil {
		return fmt.Errorf("failed to assign IP address: %w", err)
	}
	return nil
}

func (tap *Tap) Read(b []byte) (int, error)  { return unix.Read(tap.fd, b) }
func (tap *Tap) Write(b []byte) (int, error) { return unix.Write(tap.fd, b) }
func (tap *Tap) Close() error                { return unix.Close(tap.fd) }

func (tap *Tap) MTU() (int, error) { return linkMTU(tap.name) }

// HardwareAddress6 returns the host side address of the interface.
func (tap *Tap) HardwareAddress6() ([6]byte, error) { return linkHW(tap.name) }

// Bridge is a raw AF_PACKET socket bound to an existing interface (a TAP
// or a physical NIC). Every frame seen on the interface is read from it.
type Bridge struct {
	fd   int
	name string
}

func NewBridge(name string) (*Bridge, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil, err
	}
	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, err
	}
	ll := unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  link.Attrs().Index,
	}
	if err := unix.Bind(fd, &ll); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Bridge{fd: fd, name: name}, nil
}

func (br *Bridge) Read(frame []byte) (int, error)  { return unix.Read(br.fd, frame) }
func (br *Bridge) Write(frame []byte) (int, error) { return unix.Write(br.fd, frame) }
func (br *Bridge) Close() error                    { return unix.Close(br.fd) }

func (br *Bridge) MTU() (int, error) { return linkMTU(br.name) }

func (br *Bridge) HardwareAddress6() ([6]byte, error) { return linkHW(br.name) }

func linkMTU(name string) (int, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, err
	}
	return link.Attrs().MTU, nil
}

func linkHW(name string) (hw [6]byte, err error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return hw, err
	}
	addr := link.Attrs().HardwareAddr
	if len(addr) != 6 {
		return hw, fmt.Errorf("expecting 6 byte hardware address, got %d", len(addr))
	}
	copy(hw[:], addr)
	return hw, nil
}

// htons converts a uint16 from host to network byte order.
func htons(i uint16) uint16 { return (i<<8)&0xff00 | i>>8 }
