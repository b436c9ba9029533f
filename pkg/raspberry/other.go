//go:build !linux
// +build !linux

package raspberry

import "akbd/pkg/port"

// ChipLines is not available on this platform.
type ChipLines struct{}

// ChipLED is not available on this platform.
type ChipLED struct{}

// MemLines is not available on this platform.
type MemLines struct{}

// MemLED is not available on this platform.
type MemLED struct{}

// OpenChip returns ErrNotSupported.
func OpenChip(string, Pins) (*ChipLines, error) { return nil, ErrNotSupported }

// OpenMem returns ErrNotSupported.
func OpenMem(Pins) (*MemLines, error) { return nil, ErrNotSupported }

func (*ChipLines) Clock() bool { return true }
func (*ChipLines) Data() bool { return true }
func (*ChipLines) Reset() bool { return true }
func (*ChipLines) SetData(port.Direction, bool) {}
func (*ChipLines) NewLED(int) (*ChipLED, error) { return nil, ErrNotSupported }
func (*ChipLines) Close() error { return nil }
func (*MemLines) Clock() bool { return true }
func (*MemLines) Data() bool { return true }
func (*MemLines) Reset() bool { return true }
func (*MemLines) SetData(port.Direction, bool) {}
func (*MemLines) NewLED(int) (*MemLED, error) { return nil, ErrNotSupported }
func (*MemLines) Close() error { return nil }
func (*ChipLED) Set(bool) {}
func (*ChipLED) Close() error { return nil }
func (*MemLED) Set(bool) {}
func (*MemLED) Close() error { return nil }
