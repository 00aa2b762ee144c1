//go:build portaudio

// ABOUTME: PortAudio playback session
// ABOUTME: Cross-platform output; the stream callback decodes frames from the ring
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/encode"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
	"github.com/gordonklaus/portaudio"
)

// PortAudio session implementation
type PortAudio struct {
	*ringSession

	encoding encode.Encoding
	stream   *portaudio.Stream
	scratch  []byte
	name     string
	mu       sync.Mutex
}

// NewPortAudio initializes PortAudio and looks up the default output device
func NewPortAudio(config Config) (Session, error) {
	rs, err := newRingSession(config)
	if err != nil {
		return nil, err
	}
	enc, err := encode.Resolve(rs.format)
	if err != nil {
		return nil, err
	}
	if enc != encode.Float32 && enc != encode.Int16 {
		return nil, fmt.Errorf("portaudio cannot play %s samples (supported: f32, s16)", enc)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p := &PortAudio{ringSession: rs, encoding: enc, name: "default"}
	if dev, err := portaudio.DefaultOutputDevice(); err == nil && dev != nil {
		p.name = dev.Name
	}
	return p, nil
}

// Name returns the default output device's name
func (p *PortAudio) Name() string {
	return p.name
}

// Initialize allocates the ring and opens the default output stream
func (p *PortAudio) Initialize(mode stream.ShareMode, bufferDuration, _ time.Duration, format audio.WaveFormat) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.initRing(mode, bufferDuration, format); err != nil {
		return err
	}

	framesPerBuffer := int(int64(p.period) * int64(format.SampleRate) / int64(time.Second))

	var callback interface{}
	if p.encoding == encode.Float32 {
		callback = func(out []float32) {
			buf := p.pull(len(out) * 4)
			for i := range out {
				out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
			}
		}
	} else {
		callback = func(out []int16) {
			buf := p.pull(len(out) * 2)
			for i := range out {
				out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			}
		}
	}

	s, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), framesPerBuffer, callback)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	p.stream = s

	log.Printf("Audio output initialized: %s (portaudio) on %q", format, p.name)
	return nil
}

// pull drains n bytes from the ring into a reused scratch buffer.
// Only the stream callback goroutine calls it.
func (p *PortAudio) pull(n int) []byte {
	if cap(p.scratch) < n {
		p.scratch = make([]byte, n)
	}
	buf := p.scratch[:n]
	p.drain(buf)
	return buf
}

// Start starts the stream
func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("stream not opened")
	}
	return p.stream.Start()
}

// Stop stops the stream
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	return p.stream.Stop()
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			log.Printf("Warning: portaudio stream close error: %v", err)
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
