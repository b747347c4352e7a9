//go:build !linux || tinygo

package internal

import (
	"errors"
	"net/netip"
)

type Tap struct{}

func NewTap(name string, prefix netip.Prefix) (*Tap, error) {
	return nil, errors.ErrUnsupported
}

func (tap *Tap) Read(b []byte) (int, error)         { return -1, errors.ErrUnsupported }
func (tap *Tap) Write(b []byte) (int, error)        { return -1, errors.ErrUnsupported }
func (tap *Tap) Close() error                       { return errors.ErrUnsupported }
func (tap *Tap) MTU() (int, error)                  { return -1, errors.ErrUnsupported }
func (tap *Tap) HardwareAddress6() ([6]byte, error) { return [6]byte{}, errors.ErrUnsupported }

type Bridge struct{}

func NewBridge(name string) (*Bridge, error) {
	return nil, errors.ErrUnsupported
}

func (br *Bridge) Read(frame []byte) (int, error)     { return -1, errors.ErrUnsupported }
func (br *Bridge) Write(frame []byte) (int, error)    { return -1, errors.ErrUnsupported }
func (br *Bridge) Close() error                       { return errors.ErrUnsupported }
func (br *Bridge) MTU() (int, error)                  { return -1, errors.ErrUnsupported }
func (br *Bridge) HardwareAddress6() ([6]byte, error) { return [6]byte{}, errors.ErrUnsupported }
