// Package status provides the status bar for the watch view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
)

// Bar displays remote availability, queue depth and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	status  driving.EngineStatus
	message string
	err     error
	input   bool
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Pending

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		width:   80,
	}
}

// Init starts the spinner.
func (s *Bar) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the spinner.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(tick)
		return s, cmd
	}
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	parts := []string{s.renderAvailability()}

	counts := fmt.Sprintf("%d known", s.status.Known)
	if s.status.Unsaved > 0 {
		parts = append(parts, s.styles.Normal.Render(counts),
			s.styles.Pending.Render(fmt.Sprintf("%d unsaved", s.status.Unsaved)))
	} else {
		parts = append(parts, s.styles.Normal.Render(counts))
	}

	if s.status.Syncing {
		parts = append(parts, s.spinner.View()+s.styles.Muted.Render(" syncing"))
	}

	switch {
	case s.err != nil:
		parts = append(parts, s.styles.Offline.Render("Error: "+s.err.Error()))
	case s.message != "":
		parts = append(parts, s.styles.Muted.Render(s.message))
	}
	return strings.Join(parts, "  ")
}

func (s *Bar) renderAvailability() string {
	switch s.status.Availability {
	case domain.AvailabilityAvailable:
		return s.styles.Online.Render("● online")
	case domain.AvailabilityUnavailable:
		return s.styles.Offline.Render("● offline")
	default:
		return s.styles.Muted.Render("● connecting")
	}
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.input {
		bindings = s.keymap.InputHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetStatus records an engine status snapshot.
func (s *Bar) SetStatus(status driving.EngineStatus) {
	s.status = status
}

// Status returns the last engine status.
func (s *Bar) Status() driving.EngineStatus {
	return s.status
}

// SetMessage shows message and clears any error.
func (s *Bar) SetMessage(message string) {
	s.message = message
	s.err = nil
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetError shows err until the next message.
func (s *Bar) SetError(err error) {
	s.err = err
}

// Err returns the error on display.
func (s *Bar) Err() error {
	return s.err
}

// SetInputMode switches the hints to the note input bindings.
func (s *Bar) SetInputMode(input bool) {
	s.input = input
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear removes the message and error.
func (s *Bar) Clear() {
	s.message = ""
	s.err = nil
}
