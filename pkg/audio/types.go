// ABOUTME: Audio type definitions
// ABOUTME: Defines the device mix format descriptor and its tags
package audio

import (
	"fmt"

	"github.com/google/uuid"
)

// FormatTag identifies the primary encoding family of a WaveFormat
type FormatTag uint16

const (
	FormatPCM        FormatTag = 0x0001
	FormatIEEEFloat  FormatTag = 0x0003
	FormatExtensible FormatTag = 0xFFFE
)

// Well-known extensible sub-formats
var (
	SubFormatPCM       = uuid.MustParse("00000001-0000-0010-8000-00aa00389b71")
	SubFormatIEEEFloat = uuid.MustParse("00000003-0000-0010-8000-00aa00389b71")
)

func (t FormatTag) String() string {
	switch t {
	case FormatPCM:
		return "pcm"
	case FormatIEEEFloat:
		return "float"
	case FormatExtensible:
		return "extensible"
	default:
		return fmt.Sprintf("tag(0x%04x)", uint16(t))
	}
}

// WaveFormat describes the sample layout a playback device expects.
// It is read-only for the life of a stream.
type WaveFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Tag           FormatTag
	SubFormat     uuid.UUID // Only meaningful when Tag is FormatExtensible
}

// BytesPerSample returns the size of one sample of one channel
func (f WaveFormat) BytesPerSample() int {
	return f.BitsPerSample / 8
}

// BlockAlign returns the size of one frame in bytes
func (f WaveFormat) BlockAlign() int {
	return f.Channels * f.BytesPerSample()
}

// Validate checks the numeric fields. It does not decide whether the
// encoding itself is supported; see encode.Resolve for that.
func (f WaveFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	switch f.BitsPerSample {
	case 8, 16, 24, 32, 64:
	default:
		return fmt.Errorf("invalid bits per sample: %d", f.BitsPerSample)
	}
	return nil
}

func (f WaveFormat) String() string {
	s := fmt.Sprintf("%dHz %dch %d-bit %s", f.SampleRate, f.Channels, f.BitsPerSample, f.Tag)
	if f.Tag == FormatExtensible {
		s += fmt.Sprintf(" {%s}", f.SubFormat)
	}
	return s
}
