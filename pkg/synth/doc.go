// ABOUTME: Additive-harmonic oscillator bank and tone generator
// ABOUTME: Produces phase-continuous samples and encodes them into device regions
// Package synth generates the audio that the stream pump writes to the device.
//
// A Bank holds any number of voices. Each voice contributes its fundamental
// plus three harmonics at half, quarter and eighth amplitude; voices are
// averaged and the mix is scaled by MixLevel.
//
// All voice state sits behind a single lock, so a control goroutine may call
// SetFrequency, AddVoice or RemoveVoice while a render pass is in progress
// without tearing a sample.
//
// Example:
//
//	gen, err := synth.NewToneGenerator(format, 440, 0.5)
//	gen.Bank().AddVoice(660)
//	err = pump.Run(ctx, gen)
package synth
