// ABOUTME: Frame-granular ring buffer between the pump and a device callback
// ABOUTME: Reserve/Commit on the write side, silence-padding Read on the device side
package output

import (
	"fmt"
	"sync"
)

// Ring is a thread-safe circular buffer of encoded frames.
// The writer reserves a staging area, fills it and commits; the reader
// drains arbitrary byte counts.
type Ring struct {
	buffer    []byte
	frameSize int
	readPos   int
	writePos  int
	count     int // Bytes currently queued
	staging   []byte
	reserved  int  // Frames handed out by Reserve and not yet committed
	silence   byte // Fill byte for underruns and silent commits
	underruns int64
	mu        sync.Mutex
}

// NewRing creates a ring holding capacity frames of frameSize bytes.
// silence is the byte value of a zero-level sample (0x80 for unsigned 8-bit).
func NewRing(capacity, frameSize int, silence byte) *Ring {
	return &Ring{
		buffer:    make([]byte, capacity*frameSize),
		frameSize: frameSize,
		staging:   make([]byte, capacity*frameSize),
		silence:   silence,
	}
}

// Capacity returns the ring size in frames
func (r *Ring) Capacity() int {
	return len(r.buffer) / r.frameSize
}

// FrameSize returns the size of one frame in bytes
func (r *Ring) FrameSize() int {
	return r.frameSize
}

// Queued returns the number of frames not yet read. A partially read
// frame still counts as queued.
func (r *Ring) Queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queuedLocked()
}

func (r *Ring) queuedLocked() int {
	return (r.count + r.frameSize - 1) / r.frameSize
}

// Reserve returns a staging area for frames frames. Only one reservation
// may be outstanding.
func (r *Ring) Reserve(frames int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reserved > 0 {
		return nil, fmt.Errorf("buffer already acquired (%d frames)", r.reserved)
	}
	free := r.Capacity() - r.queuedLocked()
	if frames < 0 || frames > free {
		return nil, fmt.Errorf("requested %d frames, %d free", frames, free)
	}
	r.reserved = frames
	return r.staging[:frames*r.frameSize], nil
}

// Commit queues the first frames frames of the staging area.
// Committing 0 frames drops the reservation.
func (r *Ring) Commit(frames int, silent bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frames < 0 || frames > r.reserved {
		return fmt.Errorf("release of %d frames exceeds %d acquired", frames, r.reserved)
	}
	n := frames * r.frameSize
	src := r.staging[:n]
	if silent {
		fill(src, r.silence)
	}
	for i := 0; i < n; i++ {
		r.buffer[r.writePos] = src[i]
		r.writePos = (r.writePos + 1) % len(r.buffer)
	}
	r.count += n
	r.reserved = 0
	return nil
}

// Read drains up to len(p) bytes and pads the rest with silence on underrun.
// It returns the number of real bytes copied.
func (r *Ring) Read(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	read := 0
	for i := 0; i < len(p) && r.count > 0; i++ {
		p[i] = r.buffer[r.readPos]
		r.readPos = (r.readPos + 1) % len(r.buffer)
		r.count--
		read++
	}

	if read < len(p) {
		fill(p[read:], r.silence)
		r.underruns++
	}

	return read
}

// Underruns returns how many reads found fewer bytes than requested
func (r *Ring) Underruns() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.underruns
}

// Reset drops all queued frames and any reservation
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readPos, r.writePos, r.count, r.reserved = 0, 0, 0, 0
}

func fill(p []byte, b byte) {
	for i := range p {
		p[i] = b
	}
}
