// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and the changes sent to the control channel
package ui

import (
	"math"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func drain(ctrl *ToneControl) []ChangeMsg {
	return ctrl.Drain()
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // ToneControl is optional for testing

	if model.amplitude != 1 {
		t.Errorf("expected default amplitude 1, got %v", model.amplitude)
	}
	if model.state != "idle" {
		t.Errorf("expected idle state, got %q", model.state)
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
	if len(model.voices) != 0 {
		t.Errorf("expected no voices, got %v", model.voices)
	}
}

func TestStatusMsgDevice(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{
		Device: "Built-in Output",
		Format: "48000Hz 2ch 32-bit float",
		State:  "streaming",
		PumpID: "abcd1234",
	})

	if model.device != "Built-in Output" {
		t.Errorf("expected device 'Built-in Output', got %q", model.device)
	}
	if model.format != "48000Hz 2ch 32-bit float" {
		t.Errorf("unexpected format %q", model.format)
	}
	if model.state != "streaming" {
		t.Errorf("expected state 'streaming', got %q", model.state)
	}
	if model.pumpID != "abcd1234" {
		t.Errorf("expected pump id 'abcd1234', got %q", model.pumpID)
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{
		HasStats:      true,
		Cycles:        200,
		Skipped:       3,
		FramesWritten: 48000,
		Retries:       1,
		Underruns:     2,
		Elapsed:       time.Second,
	})

	if model.cycles != 200 || model.skipped != 3 || model.frames != 48000 {
		t.Errorf("unexpected stats: cycles=%d skipped=%d frames=%d", model.cycles, model.skipped, model.frames)
	}
	if model.retries != 1 || model.underruns != 2 || model.elapsed != time.Second {
		t.Errorf("unexpected stats: retries=%d underruns=%d elapsed=%v", model.retries, model.underruns, model.elapsed)
	}

	// Without HasStats the block is left alone
	model.applyStatus(StatusMsg{State: "stopped"})
	if model.frames != 48000 {
		t.Error("stats should not change without HasStats")
	}
}

func TestStatusMsgVoicesClampSelection(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{Voices: []float64{220, 330, 440}})
	model = press(model, "right", "right")
	if model.selected != 2 {
		t.Fatalf("expected voice 2 selected, got %d", model.selected)
	}

	model.applyStatus(StatusMsg{Voices: []float64{220}})
	if model.selected != 0 {
		t.Errorf("expected selection clamped to 0, got %d", model.selected)
	}

	model.applyStatus(StatusMsg{Voices: []float64{}})
	if model.selected != 0 {
		t.Errorf("expected selection 0 with no voices, got %d", model.selected)
	}
}

func TestStatusMsgAmplitude(t *testing.T) {
	model := NewModel(nil)
	a := 0.25
	model.applyStatus(StatusMsg{Amplitude: &a})
	if model.amplitude != 0.25 {
		t.Errorf("expected amplitude 0.25, got %v", model.amplitude)
	}
}

func TestKeyRetune(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want float64
	}{
		{"semitone up", []string{"up"}, 440 * semitone},
		{"semitone down", []string{"down"}, 440 / semitone},
		{"octave up", []string{"up", "up", "up", "up", "up", "up", "up", "up", "up", "up", "up", "up"}, 880},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewToneControl()
			model := NewModel(ctrl)
			model.applyStatus(StatusMsg{Voices: []float64{440}})

			model = press(model, tt.keys...)
			if math.Abs(model.voices[0]-tt.want) > 1e-6 {
				t.Errorf("expected %v Hz, got %v", tt.want, model.voices[0])
			}

			changes := drain(ctrl)
			if len(changes) != len(tt.keys) {
				t.Fatalf("expected %d changes, got %d", len(tt.keys), len(changes))
			}
			last := changes[len(changes)-1]
			if last.Kind != ChangeFrequency || last.Voice != 0 || last.Frequency != model.voices[0] {
				t.Errorf("unexpected change %+v", last)
			}
		})
	}
}

func TestKeyRetuneClamps(t *testing.T) {
	ctrl := NewToneControl()
	model := NewModel(ctrl)
	model.applyStatus(StatusMsg{Voices: []float64{maxFrequency}})

	model = press(model, "up")
	if model.voices[0] != maxFrequency {
		t.Errorf("expected frequency to stay at %v, got %v", maxFrequency, model.voices[0])
	}
	if len(drain(ctrl)) != 0 {
		t.Error("expected no change at the frequency limit")
	}
}

func TestKeyAddRemoveVoice(t *testing.T) {
	ctrl := NewToneControl()
	model := NewModel(ctrl)

	model = press(model, "a")
	if len(model.voices) != 1 || model.voices[0] != 440 {
		t.Fatalf("expected one voice at 440, got %v", model.voices)
	}

	model = press(model, "a")
	if len(model.voices) != 2 || model.voices[1] != 660 {
		t.Fatalf("expected a fifth above, got %v", model.voices)
	}
	if model.selected != 1 {
		t.Errorf("expected new voice selected, got %d", model.selected)
	}

	model = press(model, "left", "x")
	if len(model.voices) != 1 || model.voices[0] != 660 {
		t.Fatalf("expected only 660 to remain, got %v", model.voices)
	}

	changes := drain(ctrl)
	want := []ChangeKind{ChangeAddVoice, ChangeAddVoice, ChangeRemoveVoice}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(changes))
	}
	for i, k := range want {
		if changes[i].Kind != k {
			t.Errorf("change %d: expected kind %d, got %d", i, k, changes[i].Kind)
		}
	}
	if changes[2].Voice != 0 {
		t.Errorf("expected removal of voice 0, got %d", changes[2].Voice)
	}
}

func TestChangesAreNeverDropped(t *testing.T) {
	ctrl := NewToneControl()
	model := NewModel(ctrl)
	zero := 0.0
	model.applyStatus(StatusMsg{Voices: []float64{440, 660}, Amplitude: &zero})

	keys := make([]string, 0, 22)
	for i := 0; i < 20; i++ {
		keys = append(keys, "+")
	}
	keys = append(keys, "right", "x")
	model = press(model, keys...)

	if len(model.voices) != 1 || model.voices[0] != 440 {
		t.Fatalf("expected only 440 to remain, got %v", model.voices)
	}

	changes := drain(ctrl)
	if len(changes) != 21 {
		t.Fatalf("expected 21 changes, got %d", len(changes))
	}
	for i, c := range changes[:20] {
		if c.Kind != ChangeAmplitude {
			t.Errorf("change %d: expected amplitude change, got kind %d", i, c.Kind)
		}
	}
	last := changes[20]
	if last.Kind != ChangeRemoveVoice || last.Voice != 1 {
		t.Errorf("expected removal of voice 1 last, got %+v", last)
	}
}

func TestToneControlReady(t *testing.T) {
	ctrl := NewToneControl()

	select {
	case <-ctrl.Ready():
		t.Fatal("expected no signal before any change")
	default:
	}

	ctrl.Push(ChangeMsg{Kind: ChangeFrequency, Frequency: 220})
	ctrl.Push(ChangeMsg{Kind: ChangeFrequency, Frequency: 330})

	select {
	case <-ctrl.Ready():
	default:
		t.Fatal("expected a ready signal after Push")
	}

	got := ctrl.Drain()
	if len(got) != 2 || got[0].Frequency != 220 || got[1].Frequency != 330 {
		t.Errorf("expected both changes in push order, got %+v", got)
	}
	if again := ctrl.Drain(); len(again) != 0 {
		t.Errorf("expected empty queue after Drain, got %+v", again)
	}
}

func TestKeyRemoveWithNoVoices(t *testing.T) {
	ctrl := NewToneControl()
	model := press(NewModel(ctrl), "x", "up", "down")
	if len(drain(ctrl)) != 0 {
		t.Error("expected no changes without voices")
	}
	if model.selected != 0 {
		t.Errorf("expected selection 0, got %d", model.selected)
	}
}

func TestKeyVoiceLimit(t *testing.T) {
	model := NewModel(nil)
	for i := 0; i < maxVoices+2; i++ {
		model = press(model, "a")
	}
	if len(model.voices) != maxVoices {
		t.Errorf("expected %d voices, got %d", maxVoices, len(model.voices))
	}
}

func TestKeyAmplitude(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		keys  []string
		want  float64
	}{
		{"down", 0.5, []string{"-"}, 0.45},
		{"up", 0.5, []string{"+", "+"}, 0.6},
		{"clamp high", 1, []string{"+"}, 1},
		{"clamp low", 0.05, []string{"-", "-"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewModel(nil)
			a := tt.start
			model.applyStatus(StatusMsg{Amplitude: &a})
			model = press(model, tt.keys...)
			if math.Abs(model.amplitude-tt.want) > 1e-9 {
				t.Errorf("expected amplitude %v, got %v", tt.want, model.amplitude)
			}
		})
	}
}

func TestKeyQuit(t *testing.T) {
	ctrl := NewToneControl()
	model := NewModel(ctrl)

	_, cmd := model.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit message on control channel")
	}

	// A second quit must not block on the full channel
	model.Update(key("q"))
}

func TestKeyDebugToggle(t *testing.T) {
	model := press(NewModel(nil), "d")
	if !model.showDebug {
		t.Error("expected debug view enabled")
	}
	model = press(model, "d")
	if model.showDebug {
		t.Error("expected debug view disabled")
	}
}

func TestViewLoading(t *testing.T) {
	if got := NewModel(nil).View(); got != "Loading..." {
		t.Errorf("expected loading view before first resize, got %q", got)
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		freq     float64
		expected string
	}{
		{440, "A4 +0¢"},
		{880, "A5 +0¢"},
		{261.6255653, "C4 +0¢"},
		{246.9416506, "B3 +0¢"},
		{0, ""},
	}

	for _, tt := range tests {
		if got := noteName(tt.freq); got != tt.expected {
			t.Errorf("noteName(%v) = %q, expected %q", tt.freq, got, tt.expected)
		}
	}
}
