// ABOUTME: Stream pump package pacing writes against a device buffer
// ABOUTME: Defines the Session capability, bounds-checked regions and the pump loop
// Package stream keeps a playback device buffer topped up.
//
// The device side is reached only through the Session interface: mix format,
// device period, initialization, buffer size and padding queries, buffer
// acquisition and release, start and stop. Where that session comes from is
// up to the caller (see pkg/audio/output for ready-made ones).
//
// A Pump goes Idle -> Streaming -> Stopped. Each cycle it asks the device how
// many frames are queued, acquires exactly the free space, lets a Filler write
// into a bounds-checked Region, and commits.
//
// Example:
//
//	pump := stream.NewPump(session, stream.DefaultConfig())
//	format, err := pump.Open()
//	gen, err := synth.NewToneGenerator(format, 440, 0.5)
//	err = pump.Run(ctx, gen)
package stream
