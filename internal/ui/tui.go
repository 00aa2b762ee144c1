// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels that carry tone changes out of it
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ToneControl carries changes from the TUI to the generator. Changes are
// queued in order and never dropped, so the voice indexes on both sides stay
// in step; Ready fires whenever the queue goes from empty to non-empty.
type ToneControl struct {
	Quit chan QuitMsg

	mu      sync.Mutex
	pending []ChangeMsg
	ready   chan struct{}
}

// NewToneControl creates a new tone control handler
func NewToneControl() *ToneControl {
	return &ToneControl{
		Quit:  make(chan QuitMsg, 1),
		ready: make(chan struct{}, 1),
	}
}

// Push queues a change without blocking
func (c *ToneControl) Push(change ChangeMsg) {
	c.mu.Lock()
	c.pending = append(c.pending, change)
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// Ready signals that Drain has changes to return
func (c *ToneControl) Ready() <-chan struct{} {
	return c.ready
}

// Drain returns every queued change in the order it was pushed
func (c *ToneControl) Drain() []ChangeMsg {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.pending
	c.pending = nil
	return out
}

// ChangeKind says which control a ChangeMsg touches
type ChangeKind int

const (
	ChangeFrequency ChangeKind = iota
	ChangeAmplitude
	ChangeAddVoice
	ChangeRemoveVoice
)

// ChangeMsg is a control change requested from the keyboard
type ChangeMsg struct {
	Kind      ChangeKind
	Voice     int
	Frequency float64
	Amplitude float64
}

// QuitMsg asks the application to stop streaming
type QuitMsg struct{}

// NewModel creates a new TUI model
func NewModel(ctrl *ToneControl) Model {
	return Model{
		state:     "idle",
		amplitude: 1,
		ctrl:      ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *ToneControl) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
