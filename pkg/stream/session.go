// ABOUTME: Session capability consumed by the pump
// ABOUTME: Mirrors a shared-mode render client: format, period, buffer and padding
package stream

import (
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
)

// ShareMode selects how the device is opened
type ShareMode int

const (
	ShareModeShared ShareMode = iota
	ShareModeExclusive
)

// BufferFlags accompany a released region
type BufferFlags uint32

const (
	FlagNone BufferFlags = 0
	// FlagSilent tells the device to treat the released frames as silence
	FlagSilent BufferFlags = 0x2
)

// Session is an open playback endpoint. Frame counts are in frames, not bytes.
type Session interface {
	// MixFormat returns the format the device mixes in
	MixFormat() (audio.WaveFormat, error)

	// DevicePeriod returns the default and minimum scheduling periods
	DevicePeriod() (def, min time.Duration, err error)

	// Initialize sets up the stream buffer
	Initialize(mode ShareMode, bufferDuration, periodicity time.Duration, format audio.WaveFormat) error

	// BufferSize returns the total buffer capacity
	BufferSize() (int, error)

	// CurrentPadding returns the frames queued but not yet played
	CurrentPadding() (int, error)

	// GetBuffer returns a writable region of exactly frames frames
	GetBuffer(frames int) ([]byte, error)

	// ReleaseBuffer commits frames frames of the last acquired region
	ReleaseBuffer(frames int, flags BufferFlags) error

	Start() error
	Stop() error
}

// Named is implemented by sessions that know their device's friendly name
type Named interface {
	Name() string
}

// Filler writes audio into one acquired region
type Filler interface {
	Fill(r *Region) error
}
