// ABOUTME: Sample encoder package converting normalized samples to device formats
// ABOUTME: Resolves a WaveFormat once into a closed set of concrete encodings
// Package encode turns normalized float samples into the bytes a playback
// device expects.
//
// Supports: unsigned 8-bit (offset binary), signed 16/32/64-bit PCM and
// 32-bit IEEE float, all little-endian.
//
// The format is resolved once per stream; the resulting Encoding is a small
// value that is switched on per sample.
//
// Example:
//
//	enc, err := encode.Resolve(format)
//	enc.PutFrame(frame, sample, format.Channels)
package encode
