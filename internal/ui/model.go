// ABOUTME: Bubbletea model for the tone generator TUI
// ABOUTME: Defines display state, key bindings and status updates
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// semitone is the frequency ratio of one up/down key press
	semitone      = 1.0594630943592953
	minFrequency  = 20.0
	maxFrequency  = 20000.0
	amplitudeStep = 0.05
	maxVoices     = 8
)

// Model represents the TUI state
type Model struct {
	// Device
	device string
	format string

	// Stream
	state     string
	pumpID    string
	voices    []float64
	selected  int
	amplitude float64

	// Stats
	cycles    int64
	skipped   int64
	frames    int64
	retries   int64
	underruns int64
	elapsed   time.Duration

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	ctrl *ToneControl
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderVoices()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders device and format
func (m Model) renderHeader() string {
	device := m.device
	if device == "" {
		device = "(opening)"
	}

	return fmt.Sprintf(`┌─ Tone Generator ─────────────────────────────────────┐
│ Device: %-44s │
│ Format: %-44s │
│ State:  %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(device, 44), truncate(m.format, 44), m.state)
}

// renderVoices renders one line per voice with the selection marker
func (m Model) renderVoices() string {
	if len(m.voices) == 0 {
		return "│ No voices (silence)                                  │\n"
	}

	var b strings.Builder
	for i, f := range m.voices {
		marker := " "
		if i == m.selected {
			marker = "▶"
		}
		fmt.Fprintf(&b, "│ %s Voice %d: %9.2f Hz %-30s │\n", marker, i+1, f, noteName(f))
	}
	return b.String()
}

// renderControls renders the amplitude bar
func (m Model) renderControls() string {
	level := int(math.Round(m.amplitude * 100))
	return fmt.Sprintf("│                                                      │\n"+
		"│ Level:  [%s] %3d%%%-24s │\n",
		renderBar(level, 100, 10), level, "")
}

// renderStats renders pump statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  Frames: %-10d Cycles: %-8d Skipped: %-4d│
│         Retries: %-6d Underruns: %-6d %-10s  │
`, m.frames, m.cycles, m.skipped, m.retries, m.underruns, m.elapsed.Truncate(100*time.Millisecond))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Pitch ←/→:Voice +/-:Level a:Add x:Del d:Debug q:Quit│
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Pump: %-44s │
│   Selected voice: %-34d │
`, m.pumpID, m.selected)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.retune(semitone)
	case "down":
		m.retune(1 / semitone)
	case "left":
		if m.selected > 0 {
			m.selected--
		}
	case "right":
		if m.selected < len(m.voices)-1 {
			m.selected++
		}
	case "+", "=":
		m.setAmplitude(m.amplitude + amplitudeStep)
	case "-":
		m.setAmplitude(m.amplitude - amplitudeStep)
	case "a":
		if len(m.voices) >= maxVoices {
			break
		}
		// A fifth above the selected voice, or A4 for the first one
		f := 440.0
		if len(m.voices) > 0 {
			f = clampFrequency(m.voices[m.selected] * 1.5)
		}
		m.voices = append(m.voices, f)
		m.selected = len(m.voices) - 1
		m.send(ChangeMsg{Kind: ChangeAddVoice, Voice: m.selected, Frequency: f})
	case "x":
		if len(m.voices) == 0 {
			break
		}
		i := m.selected
		m.voices = append(m.voices[:i:i], m.voices[i+1:]...)
		if m.selected >= len(m.voices) && m.selected > 0 {
			m.selected--
		}
		m.send(ChangeMsg{Kind: ChangeRemoveVoice, Voice: i})
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m *Model) retune(ratio float64) {
	if len(m.voices) == 0 {
		return
	}
	f := clampFrequency(m.voices[m.selected] * ratio)
	if f == m.voices[m.selected] {
		return
	}
	m.voices[m.selected] = f
	m.send(ChangeMsg{Kind: ChangeFrequency, Voice: m.selected, Frequency: f})
}

func (m *Model) setAmplitude(a float64) {
	a = math.Max(0, math.Min(1, a))
	// Snap to the step grid so repeated presses land on round levels
	a = math.Round(a/amplitudeStep) * amplitudeStep
	if a == m.amplitude {
		return
	}
	m.amplitude = a
	m.send(ChangeMsg{Kind: ChangeAmplitude, Amplitude: a})
}

// send queues a change for the generator without blocking the UI loop
func (m *Model) send(c ChangeMsg) {
	if m.ctrl == nil {
		return
	}
	m.ctrl.Push(c)
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Device != "" {
		m.device = msg.Device
	}
	if msg.Format != "" {
		m.format = msg.Format
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.PumpID != "" {
		m.pumpID = msg.PumpID
	}
	if msg.Voices != nil {
		m.voices = append([]float64(nil), msg.Voices...)
		if m.selected >= len(m.voices) {
			m.selected = len(m.voices) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
	}
	if msg.Amplitude != nil {
		m.amplitude = *msg.Amplitude
	}
	if msg.HasStats {
		m.cycles = msg.Cycles
		m.skipped = msg.Skipped
		m.frames = msg.FramesWritten
		m.retries = msg.Retries
		m.underruns = msg.Underruns
		m.elapsed = msg.Elapsed
	}
}

// StatusMsg updates TUI state. Zero-valued fields are left unchanged,
// except the stats block which applies as a whole when HasStats is set.
type StatusMsg struct {
	Device    string
	Format    string
	State     string
	PumpID    string
	Voices    []float64
	Amplitude *float64

	HasStats      bool
	Cycles        int64
	Skipped       int64
	FramesWritten int64
	Retries       int64
	Underruns     int64
	Elapsed       time.Duration
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func clampFrequency(f float64) float64 {
	return math.Max(minFrequency, math.Min(maxFrequency, f))
}

var noteNames = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// noteName returns the nearest equal-tempered note and its offset in cents
func noteName(f float64) string {
	if f <= 0 {
		return ""
	}
	semis := 12 * math.Log2(f/440)
	nearest := math.Round(semis)
	cents := int(math.Round((semis - nearest) * 100))
	n := int(nearest)
	idx := ((n % 12) + 12) % 12
	// A4 is 9 semitones above C4
	octave := 4 + int(math.Floor((nearest+9)/12))
	return fmt.Sprintf("%s%d %+d¢", noteNames[idx], octave, cents)
}
