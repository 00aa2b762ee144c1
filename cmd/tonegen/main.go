// ABOUTME: Entry point for the tone generator
// ABOUTME: Parses CLI flags, opens an output session and streams a tone through the pump
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/tonegen/internal/ui"
	"github.com/Resonate-Protocol/tonegen/internal/version"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/output"
	"github.com/Resonate-Protocol/tonegen/pkg/stream"
	"github.com/Resonate-Protocol/tonegen/pkg/synth"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	backend     = flag.String("backend", "malgo", "Output backend: "+strings.Join(output.Backends, ", "))
	duration    = flag.Duration("duration", stream.DefaultDuration, "How long to play (0 = until interrupted)")
	freq        = flag.Float64("freq", 440, "Fundamental frequency of the first voice in Hz")
	voices      = flag.String("voices", "", "Extra voice frequencies, comma separated (e.g. 550,660)")
	amplitude   = flag.Float64("amplitude", 0.5, "Master amplitude (0-1)")
	format      = flag.String("format", "f32", "Device sample format: u8, s16, s32, s64, f32")
	sampleRate  = flag.Int("rate", 48000, "Device sample rate in Hz")
	channels    = flag.Int("channels", 2, "Device channel count")
	period      = flag.Duration("period", 10*time.Millisecond, "Device scheduling period")
	bufferDur   = flag.Duration("buffer", 50*time.Millisecond, "Requested device buffer duration (0 = one period)")
	wake        = flag.Duration("wake", 0, "Pump wake interval (0 = half the minimum device period)")
	retries     = flag.Int("retries", 3, "Retries per failing device call")
	logFile     = flag.String("log-file", "tonegen.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if err := run(useTUI); err != nil {
		log.Printf("Error: %v", err)
		if useTUI {
			fmt.Fprintf(os.Stderr, "tonegen: %v\n", err)
		}
		_ = f.Close()
		os.Exit(1)
	}
}

func run(useTUI bool) error {
	log.Printf("Starting %s", version.String())
	if *debug {
		log.Printf("Debug logging enabled")
	}

	extra, err := parseVoices(*voices)
	if err != nil {
		return err
	}

	session, err := output.New(*backend, output.Config{
		SampleRate: *sampleRate,
		Channels:   *channels,
		Format:     *format,
		Period:     *period,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
	}()

	pumpConfig := stream.DefaultConfig()
	pumpConfig.Duration = *duration
	pumpConfig.WakeInterval = *wake
	pumpConfig.BufferDuration = *bufferDur
	pumpConfig.MaxRetries = *retries
	pumpConfig.Debug = *debug

	pump := stream.NewPump(session, pumpConfig)
	mix, err := pump.Open()
	if err != nil {
		return err
	}

	log.Printf("Device: %s", session.Name())
	log.Printf("Sample rate: %d Hz, channels: %d, block align: %d, bits per sample: %d",
		mix.SampleRate, mix.Channels, mix.BlockAlign(), mix.BitsPerSample)

	gen, err := synth.NewToneGenerator(mix, *freq, *amplitude)
	if err != nil {
		return err
	}
	defer gen.Close()

	for _, v := range extra {
		if _, err := gen.Bank().AddVoice(v); err != nil {
			return err
		}
	}
	log.Printf("Voices: %v Hz at amplitude %.2f (%s)", frequencies(gen.Bank()), gen.Amplitude(), gen.Encoding())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Printf("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	// TUI setup
	var tuiProg *tea.Program
	var toneCtrl *ui.ToneControl

	if useTUI {
		toneCtrl = ui.NewToneControl()
		tuiProg, err = ui.Run(toneCtrl)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			cancel()
		}()
		// Give the terminal back before returning
		defer func() {
			tuiProg.Quit()
			<-tuiDone
		}()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	amp := gen.Amplitude()
	updateTUI(ui.StatusMsg{
		Device:    session.Name(),
		Format:    mix.String(),
		State:     stream.StateStreaming.String(),
		PumpID:    pump.ID(),
		Voices:    frequencies(gen.Bank()),
		Amplitude: &amp,
	})

	if toneCtrl != nil {
		go handleToneControl(ctx, gen, toneCtrl, cancel, updateTUI)
		go statsUpdateLoop(ctx, pump, session, updateTUI)
	}

	err = pump.Run(ctx, gen)
	updateTUI(ui.StatusMsg{State: pump.State().String()})

	stats := pump.Stats()
	log.Printf("Played %d frames in %v (%d underruns)", stats.FramesWritten, stats.Elapsed, session.Underruns())
	return err
}

// handleToneControl applies changes from the TUI to the generator
func handleToneControl(ctx context.Context, gen *synth.ToneGenerator, ctrl *ui.ToneControl, cancel context.CancelFunc, updateTUI func(ui.StatusMsg)) {
	for {
		select {
		case <-ctrl.Ready():
			for _, c := range ctrl.Drain() {
				applyChange(gen, c, updateTUI)
			}
		case <-ctrl.Quit:
			log.Printf("Received quit signal from TUI")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func applyChange(gen *synth.ToneGenerator, c ui.ChangeMsg, updateTUI func(ui.StatusMsg)) {
	bank := gen.Bank()

	var err error
	switch c.Kind {
	case ui.ChangeFrequency:
		err = bank.SetFrequency(c.Voice, c.Frequency)
	case ui.ChangeAmplitude:
		gen.SetAmplitude(c.Amplitude)
	case ui.ChangeAddVoice:
		_, err = bank.AddVoice(c.Frequency)
	case ui.ChangeRemoveVoice:
		err = bank.RemoveVoice(c.Voice)
	}
	if err != nil {
		log.Printf("Control change %+v rejected: %v", c, err)
		// Resync the display with the bank
		updateTUI(ui.StatusMsg{Voices: frequencies(bank)})
		return
	}
	if *debug {
		log.Printf("Control change applied: %+v", c)
	}
}

// statsUpdateLoop periodically updates TUI with pump statistics
func statsUpdateLoop(ctx context.Context, pump *stream.Pump, session output.Session, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := pump.Stats()
			updateTUI(ui.StatusMsg{
				State:         pump.State().String(),
				HasStats:      true,
				Cycles:        stats.Cycles,
				Skipped:       stats.Skipped,
				FramesWritten: stats.FramesWritten,
				Retries:       stats.Retries,
				Underruns:     session.Underruns(),
				Elapsed:       stats.Elapsed,
			})
		}
	}
}

// parseVoices parses a comma separated frequency list
func parseVoices(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, field := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid voice frequency %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func frequencies(b *synth.Bank) []float64 {
	vs := b.Voices()
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v.Frequency
	}
	return out
}
