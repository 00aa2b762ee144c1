// ABOUTME: Tone generator tying the oscillator bank to a device format
// ABOUTME: Renders a batch of samples and encodes them frame by frame into a region
package synth

import (
	"fmt"
	"math"
	"sync"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/encode"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
)

// ToneGenerator fills device regions from a Bank. The encoding is resolved
// once at construction and reused for every frame.
type ToneGenerator struct {
	bank     *Bank
	format   audio.WaveFormat
	encoding encode.Encoding

	mu        sync.Mutex
	amplitude float64
	scratch   []float64
	closed    bool
}

// NewToneGenerator creates a generator with one voice at frequency.
// amplitude is clamped to [0, 1].
func NewToneGenerator(format audio.WaveFormat, frequency, amplitude float64) (*ToneGenerator, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	enc, err := encode.Resolve(format)
	if err != nil {
		return nil, err
	}
	bank, err := NewBank(float64(format.SampleRate), frequency)
	if err != nil {
		return nil, err
	}

	return &ToneGenerator{
		bank:      bank,
		format:    format,
		encoding:  enc,
		amplitude: clampAmplitude(amplitude),
	}, nil
}

// Bank returns the oscillator bank, for control from other goroutines
func (g *ToneGenerator) Bank() *Bank { return g.bank }

// Format returns the device format the generator encodes for
func (g *ToneGenerator) Format() audio.WaveFormat { return g.format }

// Encoding returns the resolved sample encoding
func (g *ToneGenerator) Encoding() encode.Encoding { return g.encoding }

// Amplitude returns the master amplitude
func (g *ToneGenerator) Amplitude() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.amplitude
}

// SetAmplitude sets the master amplitude, clamped to [0, 1]
func (g *ToneGenerator) SetAmplitude(a float64) {
	g.mu.Lock()
	g.amplitude = clampAmplitude(a)
	g.mu.Unlock()
}

// Fill renders r.Frames() samples, scales them by the amplitude and writes
// each one to every channel of its frame.
func (g *ToneGenerator) Fill(r *stream.Region) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("%w: generator closed", stream.ErrInvalidState)
	}
	if r.FrameSize() != g.format.BlockAlign() {
		return fmt.Errorf("region frame size %d does not match format block align %d",
			r.FrameSize(), g.format.BlockAlign())
	}

	n := r.Frames()
	if cap(g.scratch) < n {
		g.scratch = make([]float64, n)
	}
	samples := g.scratch[:n]
	g.bank.Render(samples)

	for i, s := range samples {
		frame, err := r.Frame(i)
		if err != nil {
			return err
		}
		g.encoding.PutFrame(frame, s*g.amplitude, g.format.Channels)
	}
	return nil
}

// Close ends the generator's session; later fills fail
func (g *ToneGenerator) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	return nil
}

func clampAmplitude(a float64) float64 {
	if math.IsNaN(a) || a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
