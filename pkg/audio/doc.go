// ABOUTME: Audio fundamentals package providing the device format descriptor
// ABOUTME: Defines WaveFormat, format tags and the well-known sub-format identifiers
// Package audio provides the format types shared by the encoder, the synthesizer
// and the stream pump.
//
// A WaveFormat describes what a playback device expects in its buffer:
//   - SampleRate, Channels and BitsPerSample
//   - Tag: integer PCM, IEEE float or extensible
//   - SubFormat: the 128-bit identifier that names the real encoding when Tag is extensible
//
// Example:
//
//	format := audio.WaveFormat{
//	    SampleRate:    48000,
//	    Channels:      2,
//	    BitsPerSample: 32,
//	    Tag:           audio.FormatExtensible,
//	    SubFormat:     audio.SubFormatIEEEFloat,
//	}
//	frameBytes := format.BlockAlign() // 8
package audio
