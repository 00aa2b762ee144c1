// ABOUTME: Per-sample quantization and little-endian packing
// ABOUTME: Writes one normalized sample into exactly Size() bytes of a frame
package encode

import (
	"encoding/binary"
	"math"
)

// Full-scale multipliers. Samples are rounded half away from zero and then
// saturated, so +1.0 and -1.0 never wrap.
const (
	scaleUint8 = 127.0
	scaleInt16 = math.MaxInt16
	scaleInt32 = math.MaxInt32
	scaleInt64 = math.MaxInt64
)

// Put writes sample into dst[:e.Size()]. Bytes past that are untouched.
// The caller is responsible for dst being long enough.
func (e Encoding) Put(dst []byte, sample float64) {
	switch e {
	case Uint8:
		dst[0] = quantizeUint8(sample)
	case Int16:
		binary.LittleEndian.PutUint16(dst, uint16(quantizeInt16(sample)))
	case Int32:
		binary.LittleEndian.PutUint32(dst, uint32(quantizeInt32(sample)))
	case Int64:
		binary.LittleEndian.PutUint64(dst, uint64(quantizeInt64(sample)))
	case Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(sample)))
	}
}

// PutFrame duplicates the same scalar sample across every channel of a frame
func (e Encoding) PutFrame(frame []byte, sample float64, channels int) {
	size := e.Size()
	for ch := 0; ch < channels; ch++ {
		e.Put(frame[ch*size:], sample)
	}
}

// Decode reads one sample back into the normalized range.
// It is the inverse of the scale applied by Put.
func (e Encoding) Decode(src []byte) float64 {
	switch e {
	case Uint8:
		return (float64(src[0]) - 128) / scaleUint8
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(src))) / scaleInt16
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(src))) / scaleInt32
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(src))) / scaleInt64
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	default:
		return 0
	}
}

func quantizeUint8(sample float64) uint8 {
	v := math.Round(sample*scaleUint8 + 128)
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return uint8(v)
}

func quantizeInt16(sample float64) int16 {
	v := math.Round(sample * scaleInt16)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	if math.IsNaN(v) {
		return 0
	}
	return int16(v)
}

func quantizeInt32(sample float64) int32 {
	v := math.Round(sample * scaleInt32)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	if math.IsNaN(v) {
		return 0
	}
	return int32(v)
}

// float64(MaxInt64) rounds up to 2^63, which does not fit in an int64,
// so the upper bound is checked with >=.
func quantizeInt64(sample float64) int64 {
	v := math.Round(sample * scaleInt64)
	if v >= scaleInt64 {
		return math.MaxInt64
	}
	if v <= math.MinInt64 {
		return math.MinInt64
	}
	if math.IsNaN(v) {
		return 0
	}
	return int64(v)
}
