// ABOUTME: Buffer-pacing loop for a playback session
// ABOUTME: Polls padding, fills exactly the free frames and commits each cycle
package stream

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	// DefaultDuration matches a short audition run
	DefaultDuration = 3 * time.Second

	// fallbackWakeInterval is used when the device reports no period
	fallbackWakeInterval = 5 * time.Millisecond
)

// State is the pump lifecycle state
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds pump configuration
type Config struct {
	Duration       time.Duration // Stop after this long; 0 runs until ctx is cancelled
	WakeInterval   time.Duration // 0 = half the device's minimum period
	BufferDuration time.Duration // 0 = the device's default period
	MaxRetries     int           // Retries per failing device call before giving up
	RetryBackoff   time.Duration // First retry delay, doubled on each attempt
	Debug          bool
}

// DefaultConfig returns the configuration used by the command line tool
func DefaultConfig() Config {
	return Config{
		Duration:     DefaultDuration,
		MaxRetries:   3,
		RetryBackoff: 2 * time.Millisecond,
	}
}

// Stats tracks pump metrics
type Stats struct {
	Cycles        int64
	Skipped       int64 // Cycles where the buffer was already full
	FramesWritten int64
	Retries       int64
	Elapsed       time.Duration
}

// Pump drives one session from Idle to Stopped
type Pump struct {
	session Session
	config  Config
	id      string

	mu       sync.Mutex
	state    State
	opened   bool
	format   audio.WaveFormat
	capacity int
	wake     time.Duration
	stats    Stats
}

// NewPump creates a pump for an externally supplied session
func NewPump(session Session, config Config) *Pump {
	return &Pump{
		session: session,
		config:  config,
		id:      uuid.NewString()[:8],
	}
}

// ID returns the short identifier used in log lines
func (p *Pump) ID() string { return p.id }

// State returns the current lifecycle state
func (p *Pump) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats returns a snapshot of the pump metrics
func (p *Pump) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// WakeInterval returns the resolved cycle interval. Valid after Open.
func (p *Pump) WakeInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wake
}

// Capacity returns the device buffer size in frames. Valid after Open.
func (p *Pump) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity
}

// Open queries the mix format and period, initializes the session in shared
// mode and checks the buffer size. Every failure here is a setup error and
// the pump stays Idle.
func (p *Pump) Open() (audio.WaveFormat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle || p.opened {
		return audio.WaveFormat{}, fmt.Errorf("%w: open in state %s", ErrInvalidState, p.state)
	}

	format, err := p.session.MixFormat()
	if err != nil {
		return audio.WaveFormat{}, setupError("GetMixFormat", err)
	}
	if err := format.Validate(); err != nil {
		return audio.WaveFormat{}, setupError("GetMixFormat", err)
	}

	defPeriod, minPeriod, err := p.session.DevicePeriod()
	if err != nil {
		return audio.WaveFormat{}, setupError("GetDevicePeriod", err)
	}

	bufferDuration := p.config.BufferDuration
	if bufferDuration <= 0 {
		bufferDuration = defPeriod
	}
	if err := p.session.Initialize(ShareModeShared, bufferDuration, 0, format); err != nil {
		return audio.WaveFormat{}, setupError("Initialize", err)
	}

	capacity, err := p.session.BufferSize()
	if err != nil {
		return audio.WaveFormat{}, setupError("GetBufferSize", err)
	}
	if capacity <= 0 {
		return audio.WaveFormat{}, setupError("GetBufferSize", ErrZeroBuffer)
	}

	wake := p.config.WakeInterval
	if wake <= 0 {
		wake = minPeriod / 2
	}
	if wake <= 0 {
		wake = fallbackWakeInterval
	}

	p.format = format
	p.capacity = capacity
	p.wake = wake
	p.opened = true

	log.Printf("[%s] Stream opened: %s, buffer %d frames, period %v/%v, wake every %v",
		p.id, format, capacity, defPeriod, minPeriod, wake)

	return format, nil
}

// Run starts the session and keeps its buffer filled until the configured
// duration elapses or ctx is cancelled. Cancellation is checked once per
// cycle. The session is stopped before Run returns, whatever the outcome.
func (p *Pump) Run(ctx context.Context, filler Filler) error {
	p.mu.Lock()
	if p.state != StateIdle || !p.opened {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("%w: run in state %s (opened=%v)", ErrInvalidState, state, p.opened)
	}
	wake := p.wake
	p.mu.Unlock()

	if err := p.session.Start(); err != nil {
		p.setState(StateStopped)
		return setupError("Start", err)
	}
	p.setState(StateStreaming)
	log.Printf("[%s] Start audio output", p.id)

	err := p.loop(ctx, filler, wake)

	if stopErr := p.session.Stop(); stopErr != nil {
		log.Printf("[%s] Warning: session stop error: %v", p.id, stopErr)
	}
	p.setState(StateStopped)

	stats := p.Stats()
	if err != nil {
		log.Printf("[%s] Stream failed after %v: %v", p.id, stats.Elapsed, err)
		return err
	}
	log.Printf("[%s] Stop audio output: %d cycles (%d skipped), %d frames, %d retries in %v",
		p.id, stats.Cycles, stats.Skipped, stats.FramesWritten, stats.Retries, stats.Elapsed)
	return nil
}

func (p *Pump) loop(ctx context.Context, filler Filler, wake time.Duration) error {
	ticker := time.NewTicker(wake)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] Stream cancelled: %v", p.id, ctx.Err())
			return nil
		case <-ticker.C:
		}

		if err := p.cycle(ctx, filler); err != nil {
			return err
		}

		elapsed := time.Since(start)
		p.mu.Lock()
		p.stats.Elapsed = elapsed
		p.mu.Unlock()

		if p.config.Duration > 0 && elapsed >= p.config.Duration {
			return nil
		}
	}
}

// cycle runs one fill-and-commit pass
func (p *Pump) cycle(ctx context.Context, filler Filler) error {
	padding, err := retry(ctx, p, "GetCurrentPadding", p.session.CurrentPadding)
	if err != nil {
		return err
	}
	capacity, err := retry(ctx, p, "GetBufferSize", p.session.BufferSize)
	if err != nil {
		return err
	}

	available, err := Available(capacity, padding)
	if err != nil {
		return ioError("GetCurrentPadding", err)
	}

	p.mu.Lock()
	p.stats.Cycles++
	if available == 0 {
		p.stats.Skipped++
	}
	frameSize := p.format.BlockAlign()
	p.mu.Unlock()

	if available == 0 {
		return nil
	}

	buf, err := retry(ctx, p, "GetBuffer", func() ([]byte, error) {
		return p.session.GetBuffer(available)
	})
	if err != nil {
		return err
	}

	region, err := NewRegion(buf, available, frameSize)
	if err != nil {
		p.releaseNothing()
		return ioError("GetBuffer", err)
	}

	if err := filler.Fill(region); err != nil {
		p.releaseNothing()
		return fmt.Errorf("fill %d frames: %w", available, err)
	}

	if err := p.session.ReleaseBuffer(available, FlagNone); err != nil {
		return ioError("ReleaseBuffer", err)
	}

	p.mu.Lock()
	p.stats.FramesWritten += int64(available)
	p.mu.Unlock()

	if p.config.Debug {
		log.Printf("[DEBUG] [%s] cycle: padding=%d capacity=%d wrote=%d", p.id, padding, capacity, available)
	}
	return nil
}

// releaseNothing hands an acquired region back without committing frames
func (p *Pump) releaseNothing() {
	if err := p.session.ReleaseBuffer(0, FlagNone); err != nil {
		log.Printf("[%s] Warning: release of unused region failed: %v", p.id, err)
	}
}

func (p *Pump) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Available returns the number of free frames in a buffer of capacity frames
// with padding frames queued.
func Available(capacity, padding int) (int, error) {
	if capacity < 0 || padding < 0 {
		return 0, fmt.Errorf("negative buffer accounting: capacity=%d padding=%d", capacity, padding)
	}
	if padding > capacity {
		return 0, fmt.Errorf("%w: %d > %d", ErrPaddingExceedsBuffer, padding, capacity)
	}
	return capacity - padding, nil
}

// retry calls fn up to MaxRetries+1 times with exponential backoff.
// A cancelled ctx ends the backoff early with the last device error.
func retry[T any](ctx context.Context, p *Pump, op string, fn func() (T, error)) (T, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.config.RetryBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	retries := p.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)

	var lastErr error
	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		p.mu.Lock()
		p.stats.Retries++
		p.mu.Unlock()
		log.Printf("[%s] %s failed (attempt %d/%d), retrying in %v: %v",
			p.id, op, attempt, retries+1, next, err)
	}

	v, err := backoff.RetryNotifyWithData(func() (T, error) {
		v, err := fn()
		if err != nil {
			lastErr = err
		}
		return v, err
	}, policy, notify)
	if err != nil {
		return v, ioError(op, lastErr)
	}
	return v, nil
}
