// ABOUTME: Bounds-checked view over a device-provided buffer
// ABOUTME: Hands out one frame at a time with capacity capped at the frame end
package stream

import (
	"fmt"
)

// Region is a writable device buffer valid for a single fill-and-commit
// cycle. Its length is fixed to frames*frameSize when it is created.
type Region struct {
	buf       []byte
	frames    int
	frameSize int
}

// NewRegion wraps buf. buf may be longer than needed; the extra bytes are
// not reachable through the Region.
func NewRegion(buf []byte, frames, frameSize int) (*Region, error) {
	if frames < 0 {
		return nil, fmt.Errorf("invalid frame count: %d", frames)
	}
	if frameSize <= 0 {
		return nil, fmt.Errorf("invalid frame size: %d", frameSize)
	}
	need := frames * frameSize
	if len(buf) < need {
		return nil, fmt.Errorf("region too small: %d bytes for %d frames of %d bytes", len(buf), frames, frameSize)
	}
	return &Region{
		buf:       buf[:need:need],
		frames:    frames,
		frameSize: frameSize,
	}, nil
}

// Frames returns the number of frames in the region
func (r *Region) Frames() int { return r.frames }

// FrameSize returns the size of one frame in bytes
func (r *Region) FrameSize() int { return r.frameSize }

// Frame returns the bytes of frame i. The slice's capacity ends at the
// frame boundary, so appends cannot spill into the next frame.
func (r *Region) Frame(i int) ([]byte, error) {
	if i < 0 || i >= r.frames {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", i, r.frames)
	}
	start := i * r.frameSize
	end := start + r.frameSize
	return r.buf[start:end:end], nil
}

// Bytes returns the whole region
func (r *Region) Bytes() []byte { return r.buf }
