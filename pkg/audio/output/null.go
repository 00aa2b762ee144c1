// ABOUTME: Headless playback session with no device
// ABOUTME: Drains the ring at the wall-clock sample rate and meters the peak level
package output

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/encode"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
)

// Null consumes frames in real time without playing them
type Null struct {
	*ringSession

	encoding encode.Encoding

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	consumed int64
	peak     float64
}

// NewNull creates a headless session
func NewNull(config Config) (*Null, error) {
	rs, err := newRingSession(config)
	if err != nil {
		return nil, err
	}
	enc, err := encode.Resolve(rs.format)
	if err != nil {
		return nil, err
	}
	return &Null{ringSession: rs, encoding: enc}, nil
}

// Name returns the pseudo device name
func (n *Null) Name() string {
	return "null"
}

// Initialize allocates the ring
func (n *Null) Initialize(mode stream.ShareMode, bufferDuration, _ time.Duration, format audio.WaveFormat) error {
	if err := n.initRing(mode, bufferDuration, format); err != nil {
		return err
	}
	log.Printf("Audio output initialized: %s (null)", format)
	return nil
}

// Start begins draining in the background
func (n *Null) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopChan != nil {
		return fmt.Errorf("already started")
	}
	if _, err := n.getRing(); err != nil {
		return err
	}

	n.stopChan = make(chan struct{})
	n.wg.Add(1)
	go n.run(n.stopChan)
	return nil
}

// Stop halts draining and waits for the drain goroutine to exit
func (n *Null) Stop() error {
	n.mu.Lock()
	stop := n.stopChan
	n.stopChan = nil
	n.mu.Unlock()

	if stop != nil {
		close(stop)
		n.wg.Wait()
	}
	return nil
}

// Close stops the session
func (n *Null) Close() error {
	return n.Stop()
}

// Consumed returns the number of frames drained so far
func (n *Null) Consumed() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.consumed
}

// Peak returns the highest absolute sample level seen on the first channel
func (n *Null) Peak() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peak
}

func (n *Null) run(stop <-chan struct{}) {
	defer n.wg.Done()

	ticker := time.NewTicker(n.period / 2)
	defer ticker.Stop()

	frameSize := n.format.BlockAlign()
	rate := int64(n.format.SampleRate)
	start := time.Now()
	var drained int64
	var scratch []byte

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		due := int64(time.Since(start)) * rate / int64(time.Second)
		frames := int(due - drained)
		if frames <= 0 {
			continue
		}
		if cap(scratch) < frames*frameSize {
			scratch = make([]byte, frames*frameSize)
		}
		buf := scratch[:frames*frameSize]
		n.drain(buf)
		drained = due

		peak := 0.0
		for i := 0; i < frames; i++ {
			v := math.Abs(n.encoding.Decode(buf[i*frameSize:]))
			if v > peak {
				peak = v
			}
		}

		n.mu.Lock()
		n.consumed += int64(frames)
		if peak > n.peak {
			n.peak = peak
		}
		n.mu.Unlock()
	}
}
