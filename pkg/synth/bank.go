// ABOUTME: Oscillator bank holding voices behind a single mutex
// ABOUTME: Sums four harmonics per voice and advances phases per sample
package synth

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

const (
	// MixLevel scales the averaged voices so the harmonic sum stays near full scale
	MixLevel = 0.6

	twoPi = 2 * math.Pi
)

var (
	ErrNoSuchVoice       = errors.New("no such voice")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// Voice is one oscillator. Phase is in radians and kept in [0, 2π).
type Voice struct {
	Frequency float64
	Phase     float64
}

// Bank is a set of voices sharing one sample rate
type Bank struct {
	mu         sync.Mutex
	sampleRate float64
	voices     []Voice
}

// NewBank creates a bank with one voice per frequency, all starting at phase 0.
// The sample rate must be positive and finite; every frequency must pass the
// same check as AddVoice.
func NewBank(sampleRate float64, freqs ...float64) (*Bank, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	b := &Bank{sampleRate: sampleRate}
	for _, f := range freqs {
		if !validFrequency(f) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, f)
		}
		b.voices = append(b.voices, Voice{Frequency: f})
	}
	return b, nil
}

// SampleRate returns the rate the bank advances phases at
func (b *Bank) SampleRate() float64 {
	return b.sampleRate
}

// NextSample produces one mono sample and advances every voice.
// An empty bank produces silence.
func (b *Bank) NextSample() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextSampleLocked()
}

// Render fills dst with consecutive samples under one lock acquisition,
// so no control change can land in the middle of a buffer.
func (b *Bank) Render(dst []float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range dst {
		dst[i] = b.nextSampleLocked()
	}
}

func (b *Bank) nextSampleLocked() float64 {
	n := len(b.voices)
	if n == 0 {
		return 0
	}

	var value float64
	for i := range b.voices {
		v := &b.voices[i]
		p := v.Phase

		fundamental := math.Sin(p)
		h1 := math.Sin(2*p) * 0.5
		h2 := math.Sin(3*p) * 0.25
		h3 := math.Sin(4*p) * 0.125
		value += (fundamental + h1 + h2 + h3) / float64(n)

		v.Phase = wrapPhase(p + twoPi*(v.Frequency/b.sampleRate))
	}

	return value * MixLevel
}

// wrapPhase folds p into [0, 2π). Increments larger than 2π are handled too;
// a phase that is no longer finite restarts at 0.
func wrapPhase(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if p >= twoPi {
		p = math.Mod(p, twoPi)
	}
	if p < 0 {
		p = math.Mod(p, twoPi) + twoPi
		if p >= twoPi {
			p = 0
		}
	}
	return p
}

// SetFrequency changes the frequency of voice i. Its phase is kept,
// so the change is click-free.
func (b *Bank) SetFrequency(i int, freq float64) error {
	if !validFrequency(freq) {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, freq)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if i < 0 || i >= len(b.voices) {
		return fmt.Errorf("%w: %d (have %d)", ErrNoSuchVoice, i, len(b.voices))
	}
	b.voices[i].Frequency = freq
	return nil
}

// AddVoice appends a voice at phase 0 and returns its index
func (b *Bank) AddVoice(freq float64) (int, error) {
	if !validFrequency(freq) {
		return -1, fmt.Errorf("%w: %v", ErrInvalidFrequency, freq)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.voices = append(b.voices, Voice{Frequency: freq})
	return len(b.voices) - 1, nil
}

// RemoveVoice deletes voice i. Later voices shift down by one.
func (b *Bank) RemoveVoice(i int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i < 0 || i >= len(b.voices) {
		return fmt.Errorf("%w: %d (have %d)", ErrNoSuchVoice, i, len(b.voices))
	}
	b.voices = append(b.voices[:i], b.voices[i+1:]...)
	return nil
}

// Voices returns a copy of the current voice state
func (b *Bank) Voices() []Voice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Voice, len(b.voices))
	copy(out, b.voices)
	return out
}

// Len returns the number of voices
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.voices)
}

func validFrequency(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
