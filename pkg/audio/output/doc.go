// ABOUTME: Playback session implementations for the stream pump
// ABOUTME: Provides malgo, oto, PulseAudio, PortAudio and null sessions over a shared frame ring
// Package output provides ready-made stream.Session implementations.
//
// Every backend keeps a Ring of encoded frames. The pump writes into the ring
// through GetBuffer/ReleaseBuffer and reads its fill level through
// CurrentPadding; the backend's device callback (or, for the null session, a
// wall-clock timer) drains it.
//
// Supported backends: "malgo" (miniaudio), "oto", "pulse" (native
// PulseAudio protocol), "portaudio" (build with -tags portaudio) and "null".
//
// Example:
//
//	sess, err := output.New("malgo", output.DefaultConfig())
//	defer sess.Close()
//	pump := stream.NewPump(sess, stream.DefaultConfig())
package output
