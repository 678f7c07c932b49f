// Package input provides the note text input for the watch view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/styles"
)

// maxNoteLength bounds a single note.
const maxNoteLength = 280

// NoteInput wraps a bubbles textinput for composing a note. It starts
// blurred; Focus shows it.
type NoteInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewNoteInput creates a note input.
func NewNoteInput(s *styles.Styles) *NoteInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Write a note..."
	ti.CharLimit = maxNoteLength
	ti.Width = 50

	return &NoteInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init returns the cursor blink command.
func (n *NoteInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards messages to the text input while focused.
func (n *NoteInput) Update(msg tea.Msg) (*NoteInput, tea.Cmd) {
	var cmd tea.Cmd
	n.textinput, cmd = n.textinput.Update(msg)
	return n, cmd
}

// View renders the input.
func (n *NoteInput) View() string {
	label := n.styles.Title.Render("New note: ")
	field := n.styles.InputField.Render(n.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the trimmed note text.
func (n *NoteInput) Value() string {
	return strings.TrimSpace(n.textinput.Value())
}

// SetValue sets the input value.
func (n *NoteInput) SetValue(value string) {
	n.textinput.SetValue(value)
}

// Focus shows the input and takes keystrokes.
func (n *NoteInput) Focus() tea.Cmd {
	return n.textinput.Focus()
}

// Blur hides the input and clears it.
func (n *NoteInput) Blur() {
	n.textinput.Blur()
	n.textinput.Reset()
}

// Focused returns whether the input is focused.
func (n *NoteInput) Focused() bool {
	return n.textinput.Focused()
}

// SetWidth sets the width of the input.
func (n *NoteInput) SetWidth(width int) {
	n.width = width
	// Account for label and padding
	inputWidth := width - 16
	if inputWidth < 20 {
		inputWidth = 20
	}
	n.textinput.Width = inputWidth
}

// Width returns the current width.
func (n *NoteInput) Width() int {
	return n.width
}
