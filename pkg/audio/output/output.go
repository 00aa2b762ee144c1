// ABOUTME: Session interface and backend selection for audio output
// ABOUTME: Shared ring-backed buffer accounting used by every backend
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/encode"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
)

// Session is a stream.Session that also knows its device name, counts
// underruns and owns resources that must be released
type Session interface {
	stream.Session
	Name() string
	Underruns() int64
	Close() error
}

// Config holds output configuration
type Config struct {
	SampleRate int
	Channels   int
	Format     string        // u8, s16, s32, s64 or f32
	Period     time.Duration // Device scheduling period
}

// DefaultConfig returns a 48kHz stereo float configuration
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		Channels:   2,
		Format:     "f32",
		Period:     10 * time.Millisecond,
	}
}

// MinPeriod is the shortest device period a session accepts; shorter
// configured periods are raised to it
const MinPeriod = time.Millisecond

// Backends lists the names accepted by New
var Backends = []string{"malgo", "oto", "pulse", "portaudio", "null"}

// New opens the named backend
func New(backend string, config Config) (Session, error) {
	var (
		s   Session
		err error
	)
	switch backend {
	case "malgo":
		s, err = wrap(NewMalgo(config))
	case "oto":
		s, err = wrap(NewOto(config))
	case "pulse":
		s, err = wrap(NewPulse(config))
	case "portaudio":
		s, err = NewPortAudio(config)
	case "null":
		s, err = wrap(NewNull(config))
	default:
		return nil, fmt.Errorf("unknown backend %q (supported: %v)", backend, Backends)
	}
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", backend, err)
	}
	return s, nil
}

// wrap keeps a failed constructor from producing a non-nil Session
// holding a nil pointer
func wrap[T Session](s T, err error) (Session, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ParseFormat builds the mix format a backend reports for a format name.
// Wider formats are reported as extensible, the way shared-mode mixers do.
func ParseFormat(name string, sampleRate, channels int) (audio.WaveFormat, error) {
	f := audio.WaveFormat{SampleRate: sampleRate, Channels: channels}
	switch name {
	case "u8":
		f.BitsPerSample, f.Tag = 8, audio.FormatPCM
	case "s16":
		f.BitsPerSample, f.Tag = 16, audio.FormatPCM
	case "s32":
		f.BitsPerSample, f.Tag, f.SubFormat = 32, audio.FormatExtensible, audio.SubFormatPCM
	case "s64":
		f.BitsPerSample, f.Tag, f.SubFormat = 64, audio.FormatExtensible, audio.SubFormatPCM
	case "f32":
		f.BitsPerSample, f.Tag, f.SubFormat = 32, audio.FormatExtensible, audio.SubFormatIEEEFloat
	default:
		return audio.WaveFormat{}, fmt.Errorf("unknown sample format %q", name)
	}
	if err := f.Validate(); err != nil {
		return audio.WaveFormat{}, err
	}
	return f, nil
}

// ringSession implements the buffer half of stream.Session on top of a Ring.
// Backends embed it and add the device half.
type ringSession struct {
	format audio.WaveFormat
	period time.Duration

	mu   sync.Mutex
	ring *Ring
}

func newRingSession(config Config) (*ringSession, error) {
	format, err := ParseFormat(config.Format, config.SampleRate, config.Channels)
	if err != nil {
		return nil, err
	}
	period := config.Period
	if period <= 0 {
		period = DefaultConfig().Period
	}
	if period < MinPeriod {
		period = MinPeriod
	}
	return &ringSession{format: format, period: period}, nil
}

func (s *ringSession) MixFormat() (audio.WaveFormat, error) {
	return s.format, nil
}

// DevicePeriod reports the configured period as the default and half of it
// as the minimum
func (s *ringSession) DevicePeriod() (time.Duration, time.Duration, error) {
	return s.period, s.period / 2, nil
}

func (s *ringSession) initRing(mode stream.ShareMode, bufferDuration time.Duration, format audio.WaveFormat) error {
	if mode != stream.ShareModeShared {
		return fmt.Errorf("only shared mode is supported")
	}
	if format != s.format {
		return fmt.Errorf("format %s differs from mix format %s", format, s.format)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ring != nil {
		return fmt.Errorf("session already initialized")
	}
	frames := int(int64(bufferDuration) * int64(format.SampleRate) / int64(time.Second))
	if frames <= 0 {
		return fmt.Errorf("buffer duration %v holds no frames at %dHz", bufferDuration, format.SampleRate)
	}
	s.ring = NewRing(frames, format.BlockAlign(), silenceByte(format))
	return nil
}

func (s *ringSession) getRing() (*Ring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ring == nil {
		return nil, fmt.Errorf("session not initialized")
	}
	return s.ring, nil
}

func (s *ringSession) BufferSize() (int, error) {
	r, err := s.getRing()
	if err != nil {
		return 0, err
	}
	return r.Capacity(), nil
}

func (s *ringSession) CurrentPadding() (int, error) {
	r, err := s.getRing()
	if err != nil {
		return 0, err
	}
	return r.Queued(), nil
}

func (s *ringSession) GetBuffer(frames int) ([]byte, error) {
	r, err := s.getRing()
	if err != nil {
		return nil, err
	}
	return r.Reserve(frames)
}

func (s *ringSession) ReleaseBuffer(frames int, flags stream.BufferFlags) error {
	r, err := s.getRing()
	if err != nil {
		return err
	}
	return r.Commit(frames, flags&stream.FlagSilent != 0)
}

// Underruns returns how many device reads found the ring short
func (s *ringSession) Underruns() int64 {
	r, err := s.getRing()
	if err != nil {
		return 0
	}
	return r.Underruns()
}

// drain feeds a device buffer; before Initialize it plays silence
func (s *ringSession) drain(p []byte) {
	s.mu.Lock()
	r := s.ring
	s.mu.Unlock()

	if r == nil {
		fill(p, silenceByte(s.format))
		return
	}
	r.Read(p)
}

// silenceByte returns the byte pattern of a zero-level sample. Only the
// offset-binary 8-bit encoding is not all zeros.
func silenceByte(f audio.WaveFormat) byte {
	if enc, err := encode.Resolve(f); err == nil && enc == encode.Uint8 {
		return 0x80
	}
	return 0
}
