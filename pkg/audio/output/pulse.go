// ABOUTME: PulseAudio playback session speaking the native protocol
// ABOUTME: The stream's reader callback decodes frames from the ring into typed samples
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
	"github.com/jfreymuth/pulse"
)

// Pulse session implementation using a pure Go PulseAudio client
type Pulse struct {
	*ringSession

	encoding encode.Encoding
	client   *pulse.Client
	stream   *pulse.PlaybackStream
	scratch  []byte
	name     string
	mu       sync.Mutex
}

// NewPulse connects to the PulseAudio server and looks up the default sink.
// The playback stream is created by Initialize.
func NewPulse(config Config) (*Pulse, error) {
	rs, err := newRingSession(config)
	if err != nil {
		return nil, err
	}
	enc, err := encode.Resolve(rs.format)
	if err != nil {
		return nil, err
	}
	if _, err := pulseReader(enc, nil); err != nil {
		return nil, err
	}
	if _, err := pulseChannels(rs.format.Channels); err != nil {
		return nil, err
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("tonegen"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pulseaudio: %w", err)
	}

	p := &Pulse{ringSession: rs, encoding: enc, client: client, name: "default"}
	if sink, err := client.DefaultSink(); err == nil && sink != nil {
		p.name = sink.Name()
	} else if err != nil {
		log.Printf("Warning: could not query default sink: %v", err)
	}
	return p, nil
}

// Name returns the default sink's name
func (p *Pulse) Name() string {
	return p.name
}

// Initialize allocates the ring and creates a corked playback stream
func (p *Pulse) Initialize(mode stream.ShareMode, bufferDuration, _ time.Duration, format audio.WaveFormat) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.initRing(mode, bufferDuration, format); err != nil {
		return err
	}

	reader, err := pulseReader(p.encoding, p.pull)
	if err != nil {
		return err
	}
	channels, err := pulseChannels(format.Channels)
	if err != nil {
		return err
	}

	s, err := p.client.NewPlayback(reader,
		channels,
		pulse.PlaybackSampleRate(format.SampleRate),
		pulse.PlaybackLatency(p.period.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("failed to create playback stream: %w", err)
	}
	p.stream = s

	log.Printf("Audio output initialized: %s (pulse) on %q", format, p.name)
	return nil
}

// pull drains n bytes from the ring into a reused scratch buffer.
// Only the client's stream goroutine calls it.
func (p *Pulse) pull(n int) []byte {
	if cap(p.scratch) < n {
		p.scratch = make([]byte, n)
	}
	buf := p.scratch[:n]
	p.drain(buf)
	return buf
}

// Start uncorks the stream
func (p *Pulse) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("stream not created")
	}
	p.stream.Start()
	return p.stream.Error()
}

// Stop stops the stream
func (p *Pulse) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	p.stream.Stop()
	return nil
}

// Close releases the stream and the server connection
func (p *Pulse) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		p.stream.Close()
		p.stream = nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	return nil
}

// pulseReader builds the typed reader PulseAudio pulls samples through.
// pull returns n bytes of little-endian frames; it may be nil to only check
// that the encoding is playable.
func pulseReader(enc encode.Encoding, pull func(n int) []byte) (pulse.Reader, error) {
	switch enc {
	case encode.Uint8:
		return pulse.Uint8Reader(func(out []byte) (int, error) {
			copy(out, pull(len(out)))
			return len(out), nil
		}), nil
	case encode.Int16:
		return pulse.Int16Reader(func(out []int16) (int, error) {
			buf := pull(len(out) * 2)
			for i := range out {
				out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			}
			return len(out), nil
		}), nil
	case encode.Int32:
		return pulse.Int32Reader(func(out []int32) (int, error) {
			buf := pull(len(out) * 4)
			for i := range out {
				out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
			}
			return len(out), nil
		}), nil
	case encode.Float32:
		return pulse.Float32Reader(func(out []float32) (int, error) {
			buf := pull(len(out) * 4)
			for i := range out {
				out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
			}
			return len(out), nil
		}), nil
	default:
		return nil, fmt.Errorf("pulse cannot play %s samples", enc)
	}
}

func pulseChannels(channels int) (pulse.PlaybackOption, error) {
	switch channels {
	case 1:
		return pulse.PlaybackMono, nil
	case 2:
		return pulse.PlaybackStereo, nil
	default:
		return nil, fmt.Errorf("pulse session supports mono or stereo, not %d channels", channels)
	}
}
