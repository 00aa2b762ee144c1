// ABOUTME: Unit tests for format resolution
// ABOUTME: Tests every (bits, tag, sub-format) pair of the resolution table
package encode

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/google/uuid"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		bits     int
		tag      audio.FormatTag
		sub      uuid.UUID
		expected Encoding
		wantErr  bool
	}{
		{"pcm 8", 8, audio.FormatPCM, uuid.Nil, Uint8, false},
		{"pcm 16", 16, audio.FormatPCM, uuid.Nil, Int16, false},
		{"float 32", 32, audio.FormatIEEEFloat, uuid.Nil, Float32, false},
		{"extensible pcm 8", 8, audio.FormatExtensible, audio.SubFormatPCM, Uint8, false},
		{"extensible pcm 16", 16, audio.FormatExtensible, audio.SubFormatPCM, Int16, false},
		{"extensible pcm 32", 32, audio.FormatExtensible, audio.SubFormatPCM, Int32, false},
		{"extensible pcm 64", 64, audio.FormatExtensible, audio.SubFormatPCM, Int64, false},
		{"extensible float 32", 32, audio.FormatExtensible, audio.SubFormatIEEEFloat, Float32, false},
		{"pcm 32 without extensible", 32, audio.FormatPCM, uuid.Nil, Invalid, true},
		{"pcm 24", 24, audio.FormatPCM, uuid.Nil, Invalid, true},
		{"float 64", 64, audio.FormatIEEEFloat, uuid.Nil, Invalid, true},
		{"extensible pcm 24", 24, audio.FormatExtensible, audio.SubFormatPCM, Invalid, true},
		{"extensible float 64", 64, audio.FormatExtensible, audio.SubFormatIEEEFloat, Invalid, true},
		{"extensible unknown sub-format", 16, audio.FormatExtensible, uuid.MustParse("00000092-0000-0010-8000-00aa00389b71"), Invalid, true},
		{"unknown tag", 16, audio.FormatTag(0x0055), uuid.Nil, Invalid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := audio.WaveFormat{
				SampleRate:    48000,
				Channels:      2,
				BitsPerSample: tt.bits,
				Tag:           tt.tag,
				SubFormat:     tt.sub,
			}
			got, err := Resolve(f)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve() expected error, got %v", got)
				}
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("Resolve() error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Resolve() = %v, want %v", got, tt.expected)
			}
			if got.Size()*8 != tt.bits {
				t.Errorf("Size() = %d bytes, want %d bits", got.Size(), tt.bits)
			}
		})
	}
}

func TestEncodingString(t *testing.T) {
	if Float32.String() != "F32LE" {
		t.Errorf("expected F32LE, got %s", Float32.String())
	}
	if Invalid.Size() != 0 {
		t.Errorf("expected invalid size 0, got %d", Invalid.Size())
	}
	if Encoding(42).String() != "Invalid(42)" {
		t.Errorf("unexpected string %s", Encoding(42).String())
	}
}
