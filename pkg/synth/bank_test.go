// ABOUTME: Tests for the oscillator bank
// ABOUTME: Tests phase wrapping, silence, harmonic mix and concurrent control
package synth

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func newTestBank(t *testing.T, sampleRate float64, freqs ...float64) *Bank {
	t.Helper()
	b, err := NewBank(sampleRate, freqs...)
	if err != nil {
		t.Fatalf("NewBank(%v, %v) failed: %v", sampleRate, freqs, err)
	}
	return b
}

func TestEmptyBankIsSilent(t *testing.T) {
	b := newTestBank(t, 48000)
	for i := 0; i < 1000; i++ {
		if s := b.NextSample(); s != 0 {
			t.Fatalf("sample %d = %v, want exactly 0", i, s)
		}
	}

	buf := []float64{1, 2, 3}
	b.Render(buf)
	for i, s := range buf {
		if s != 0 {
			t.Errorf("rendered sample %d = %v, want 0", i, s)
		}
	}
}

func TestPhaseStaysWrapped(t *testing.T) {
	tests := []struct {
		name  string
		freqs []float64
	}{
		{"a440", []float64{440}},
		{"near nyquist", []float64{23999}},
		{"near sample rate", []float64{47999}},
		{"above sample rate", []float64{130000}},
		{"chord", []float64{261.63, 329.63, 392.0}},
		{"zero", []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBank(t, 48000, tt.freqs...)
			for i := 0; i < 48000; i++ {
				b.NextSample()
				for v, voice := range b.Voices() {
					if voice.Phase < 0 || voice.Phase >= 2*math.Pi {
						t.Fatalf("call %d voice %d phase %v outside [0, 2π)", i, v, voice.Phase)
					}
				}
			}
		})
	}
}

func TestFirstSamplesMatchHarmonicSum(t *testing.T) {
	const rate = 48000.0
	const freq = 1000.0
	b := newTestBank(t, rate, freq)

	inc := 2 * math.Pi * freq / rate
	for k := 0; k < 100; k++ {
		p := math.Mod(float64(k)*inc, 2*math.Pi)
		want := (math.Sin(p) + 0.5*math.Sin(2*p) + 0.25*math.Sin(3*p) + 0.125*math.Sin(4*p)) * MixLevel
		got := b.NextSample()
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", k, got, want)
		}
	}
}

func TestVoicesAreAveraged(t *testing.T) {
	single := newTestBank(t, 48000, 440)
	double := newTestBank(t, 48000, 440, 440)

	for i := 0; i < 500; i++ {
		a := single.NextSample()
		b := double.NextSample()
		if math.Abs(a-b) > 1e-12 {
			t.Fatalf("sample %d: one voice %v, two identical voices %v", i, a, b)
		}
	}
}

func TestSampleBound(t *testing.T) {
	bound := MixLevel * 1.875
	b := newTestBank(t, 44100, 110, 220, 330, 440, 550)
	for i := 0; i < 44100; i++ {
		if s := b.NextSample(); math.Abs(s) > bound {
			t.Fatalf("sample %d = %v exceeds %v", i, s, bound)
		}
	}
}

func TestControlErrors(t *testing.T) {
	b := newTestBank(t, 48000, 440)

	if err := b.SetFrequency(3, 220); !errors.Is(err, ErrNoSuchVoice) {
		t.Errorf("SetFrequency out of range: got %v", err)
	}
	if err := b.SetFrequency(0, math.NaN()); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("SetFrequency NaN: got %v", err)
	}
	if err := b.SetFrequency(0, -1); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("SetFrequency negative: got %v", err)
	}
	if _, err := b.AddVoice(math.Inf(1)); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("AddVoice Inf: got %v", err)
	}
	if err := b.RemoveVoice(-1); !errors.Is(err, ErrNoSuchVoice) {
		t.Errorf("RemoveVoice negative: got %v", err)
	}
}

func TestAddSetRemoveVoice(t *testing.T) {
	b := newTestBank(t, 48000, 440)

	idx, err := b.AddVoice(660)
	if err != nil {
		t.Fatalf("AddVoice() failed: %v", err)
	}
	if idx != 1 || b.Len() != 2 {
		t.Fatalf("expected index 1 and 2 voices, got %d and %d", idx, b.Len())
	}

	b.NextSample()
	phaseBefore := b.Voices()[1].Phase
	if err := b.SetFrequency(1, 880); err != nil {
		t.Fatalf("SetFrequency() failed: %v", err)
	}
	v := b.Voices()[1]
	if v.Frequency != 880 {
		t.Errorf("expected 880Hz, got %v", v.Frequency)
	}
	if v.Phase != phaseBefore {
		t.Errorf("SetFrequency changed phase from %v to %v", phaseBefore, v.Phase)
	}

	if err := b.RemoveVoice(0); err != nil {
		t.Fatalf("RemoveVoice() failed: %v", err)
	}
	if got := b.Voices(); len(got) != 1 || got[0].Frequency != 880 {
		t.Errorf("unexpected voices after remove: %+v", got)
	}
}

func TestNewBankValidation(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		freqs      []float64
		wantErr    error
	}{
		{"valid", 48000, []float64{440, 220}, nil},
		{"no voices", 48000, nil, nil},
		{"zero rate", 0, []float64{440}, ErrInvalidSampleRate},
		{"negative rate", -48000, []float64{440}, ErrInvalidSampleRate},
		{"NaN rate", math.NaN(), []float64{440}, ErrInvalidSampleRate},
		{"infinite rate", math.Inf(1), []float64{440}, ErrInvalidSampleRate},
		{"NaN frequency", 48000, []float64{440, math.NaN()}, ErrInvalidFrequency},
		{"negative frequency", 48000, []float64{-5}, ErrInvalidFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBank(tt.sampleRate, tt.freqs...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if b != nil {
					t.Error("expected nil bank on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBank() failed: %v", err)
			}
			if b.Len() != len(tt.freqs) {
				t.Errorf("expected %d voices, got %d", len(tt.freqs), b.Len())
			}
		})
	}
}

func TestHugeFrequencyKeepsPhaseFinite(t *testing.T) {
	b := newTestBank(t, 48000, math.MaxFloat64)
	for i := 0; i < 100; i++ {
		if s := b.NextSample(); math.IsNaN(s) {
			t.Fatalf("sample %d is NaN", i)
		}
		p := b.Voices()[0].Phase
		if math.IsNaN(p) || p < 0 || p >= 2*math.Pi {
			t.Fatalf("call %d phase %v outside [0, 2π)", i, p)
		}
	}

	// Retuning afterwards must render normally
	if err := b.SetFrequency(0, 440); err != nil {
		t.Fatalf("SetFrequency() failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		if s := b.NextSample(); math.IsNaN(s) || math.Abs(s) > MixLevel*1.875 {
			t.Fatalf("sample %d = %v after retune", i, s)
		}
	}
}

func TestVoicesReturnsCopy(t *testing.T) {
	b := newTestBank(t, 48000, 440)
	v := b.Voices()
	v[0].Frequency = 1
	if b.Voices()[0].Frequency != 440 {
		t.Error("mutating the snapshot changed the bank")
	}
}

func TestConcurrentControlAndRender(t *testing.T) {
	b := newTestBank(t, 48000, 440)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		buf := make([]float64, 256)
		for i := 0; i < 200; i++ {
			b.Render(buf)
			for _, s := range buf {
				if math.IsNaN(s) || math.Abs(s) > MixLevel*1.875 {
					t.Errorf("bad sample %v", s)
					return
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			idx, err := b.AddVoice(float64(100 + i))
			if err != nil {
				t.Errorf("AddVoice() failed: %v", err)
				return
			}
			_ = b.SetFrequency(idx, float64(200+i))
			if i%2 == 0 {
				_ = b.RemoveVoice(idx)
			}
		}
	}()

	wg.Wait()

	for i, v := range b.Voices() {
		if v.Phase < 0 || v.Phase >= 2*math.Pi {
			t.Errorf("voice %d phase %v outside [0, 2π)", i, v.Phase)
		}
	}
}

func TestWrapPhase(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1, 1},
		{2 * math.Pi, 0},
		{2*math.Pi + 0.5, 0.5},
		{6*math.Pi + 0.25, 0.25},
		{-0.5, 2*math.Pi - 0.5},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		got := wrapPhase(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("wrapPhase(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("wrapPhase(%v) = %v outside [0, 2π)", tt.in, got)
		}
	}
}
