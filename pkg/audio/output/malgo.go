// ABOUTME: Malgo-based playback session
// ABOUTME: Uses miniaudio via malgo; the device data callback drains the frame ring
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tonegen/pkg/audio"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/encode"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
	"github.com/gen2brain/malgo"
)

// Malgo session implementation using malgo/miniaudio library
type Malgo struct {
	*ringSession

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	name     string
	mu       sync.Mutex
}

// NewMalgo creates a malgo context and looks up the default playback device.
// The device itself is opened by Initialize.
func NewMalgo(config Config) (*Malgo, error) {
	rs, err := newRingSession(config)
	if err != nil {
		return nil, err
	}
	if _, err := malgoFormat(rs.format); err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	m := &Malgo{
		ringSession: rs,
		malgoCtx:    ctx,
		name:        "default",
	}

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		log.Printf("Warning: could not enumerate playback devices: %v", err)
	}
	for i := range infos {
		if infos[i].IsDefault != 0 {
			m.name = infos[i].Name()
			break
		}
	}

	return m, nil
}

// Name returns the default playback device's name
func (m *Malgo) Name() string {
	return m.name
}

// Initialize allocates the ring and opens the playback device in the mix format
func (m *Malgo) Initialize(mode stream.ShareMode, bufferDuration, periodicity time.Duration, format audio.WaveFormat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initRing(mode, bufferDuration, format); err != nil {
		return err
	}

	mf, err := malgoFormat(format)
	if err != nil {
		return err
	}

	period := periodicity
	if period <= 0 {
		period = m.period
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = mf
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = uint32(period / time.Millisecond)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		m.drain(pOutputSample)
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	m.device = device

	log.Printf("Audio output initialized: %s (malgo/%s) on %q", format, formatName(mf), m.name)
	return nil
}

// Start starts the device callback
func (m *Malgo) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return fmt.Errorf("device not initialized")
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Stop stops the device callback
func (m *Malgo) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return nil
	}
	return m.device.Stop()
}

// Close releases the device and the malgo context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// malgoFormat maps a mix format onto the miniaudio sample format
func malgoFormat(f audio.WaveFormat) (malgo.FormatType, error) {
	enc, err := encode.Resolve(f)
	if err != nil {
		return malgo.FormatUnknown, err
	}
	switch enc {
	case encode.Uint8:
		return malgo.FormatU8, nil
	case encode.Int16:
		return malgo.FormatS16, nil
	case encode.Int32:
		return malgo.FormatS32, nil
	case encode.Float32:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("malgo cannot play %s samples", enc)
	}
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS32:
		return "S32"
	case malgo.FormatF32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
