// ABOUTME: Oto-based playback session
// ABOUTME: A persistent oto player reads encoded frames straight from the ring
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/encode"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
	"github.com/ebitengine/oto/v3"
)

// Oto session implementation using oto library
type Oto struct {
	*ringSession

	otoCtx *oto.Context
	player *oto.Player
	mu     sync.Mutex
}

// NewOto creates an oto session. oto allows one context per process, so the
// context is created by Initialize once the format is known.
func NewOto(config Config) (*Oto, error) {
	rs, err := newRingSession(config)
	if err != nil {
		return nil, err
	}
	if _, err := otoFormat(rs.format); err != nil {
		return nil, err
	}
	return &Oto{ringSession: rs}, nil
}

// Name returns the device name; oto only plays to the system default
func (o *Oto) Name() string {
	return "default (oto)"
}

// Initialize allocates the ring and creates the oto context and player
func (o *Oto) Initialize(mode stream.ShareMode, bufferDuration, periodicity time.Duration, format audio.WaveFormat) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.initRing(mode, bufferDuration, format); err != nil {
		return err
	}

	of, err := otoFormat(format)
	if err != nil {
		return err
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       of,
		BufferSize:   o.period,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.player = ctx.NewPlayer(ringReader{o.ringSession})

	// Keep oto's own read-ahead to one period so padding stays meaningful
	periodFrames := int(int64(o.period) * int64(format.SampleRate) / int64(time.Second))
	o.player.SetBufferSize(periodFrames * format.BlockAlign())

	log.Printf("Audio output initialized: %s (oto)", format)
	return nil
}

// Start resumes playback
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return fmt.Errorf("player not initialized")
	}
	o.player.Play()
	return nil
}

// Stop pauses playback
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		o.player.Pause()
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	return nil
}

// ringReader adapts the ring to the io.Reader oto pulls from.
// Underruns are padded with silence so the player never stalls.
type ringReader struct {
	s *ringSession
}

func (r ringReader) Read(p []byte) (int, error) {
	r.s.drain(p)
	return len(p), nil
}

func otoFormat(f audio.WaveFormat) (oto.Format, error) {
	enc, err := encode.Resolve(f)
	if err != nil {
		return 0, err
	}
	switch enc {
	case encode.Uint8:
		return oto.FormatUnsignedInt8, nil
	case encode.Int16:
		return oto.FormatSignedInt16LE, nil
	case encode.Float32:
		return oto.FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("oto cannot play %s samples", enc)
	}
}
