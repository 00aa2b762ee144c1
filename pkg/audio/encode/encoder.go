// ABOUTME: Encoding resolution for device mix formats
// ABOUTME: Maps (bits, tag, sub-format) onto one concrete sample encoding
package encode

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
)

// ErrUnsupportedFormat is returned when a format has no concrete encoding
var ErrUnsupportedFormat = errors.New("unsupported wave format")

// Encoding is one of the concrete sample encodings
type Encoding int

const (
	Invalid Encoding = iota
	Uint8
	Int16
	Int32
	Int64
	Float32
)

// Resolve picks the concrete encoding for a device format.
//
// Plain PCM at 16 bits resolves to signed Int16, the same as the extensible
// PCM path, so both descriptors produce identical bytes for the same sample.
func Resolve(f audio.WaveFormat) (Encoding, error) {
	switch {
	case f.BitsPerSample == 8 && f.Tag == audio.FormatPCM:
		return Uint8, nil
	case f.BitsPerSample == 16 && f.Tag == audio.FormatPCM:
		return Int16, nil
	case f.BitsPerSample == 32 && f.Tag == audio.FormatIEEEFloat:
		return Float32, nil
	case f.Tag == audio.FormatExtensible:
		return resolveExtensible(f)
	}
	return Invalid, fmt.Errorf("%w: %d-bit %s", ErrUnsupportedFormat, f.BitsPerSample, f.Tag)
}

func resolveExtensible(f audio.WaveFormat) (Encoding, error) {
	switch f.SubFormat {
	case audio.SubFormatPCM:
		switch f.BitsPerSample {
		case 8:
			return Uint8, nil
		case 16:
			return Int16, nil
		case 32:
			return Int32, nil
		case 64:
			return Int64, nil
		}
	case audio.SubFormatIEEEFloat:
		if f.BitsPerSample == 32 {
			return Float32, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %d-bit extensible {%s}", ErrUnsupportedFormat, f.BitsPerSample, f.SubFormat)
}

// Size returns the number of bytes one sample occupies
func (e Encoding) Size() int {
	switch e {
	case Uint8:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Int64:
		return 8
	default:
		return 0
	}
}

func (e Encoding) String() string {
	switch e {
	case Uint8:
		return "U8"
	case Int16:
		return "S16LE"
	case Int32:
		return "S32LE"
	case Int64:
		return "S64LE"
	case Float32:
		return "F32LE"
	default:
		return fmt.Sprintf("Invalid(%d)", int(e))
	}
}
