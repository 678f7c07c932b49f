package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/notes"
)

const (
	// statusInterval is how often the status bar polls the engine.
	statusInterval = 2 * time.Second

	// eventBuffer bounds engine events waiting for the model.
	eventBuffer = 64
)

// App is the watch view following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar
	input  *input.NoteInput

	mode     messages.Mode
	notes    []notes.Note
	selected int

	// events carries engine notifications into the Bubbletea loop. Sends
	// never block the engine; a full buffer drops the event and the next
	// status tick reloads the board.
	events      chan tea.Msg
	unsubscribe []func()

	now func() time.Time

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the watch view and subscribes to the engine.
// Close releases the subscriptions.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: s,
		keymap: km,
		bar:    status.NewBar(s, km),
		input:  input.NewNoteInput(s),
		events: make(chan tea.Msg, eventBuffer),
		now:    time.Now,
	}

	a.unsubscribe = append(a.unsubscribe, ports.Engine.Updates().Subscribe(func(u domain.Update) {
		a.post(messages.UpdateApplied{Update: u})
	}))
	for _, failures := range ports.Failures {
		a.unsubscribe = append(a.unsubscribe, failures.Subscribe(func(err error) {
			a.post(messages.FailureReported{Err: err})
		}))
	}
	a.reload()
	return a, nil
}

// WithContext sets the context for engine calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Close unsubscribes from the engine.
func (a *App) Close() {
	for _, cancel := range a.unsubscribe {
		cancel()
	}
	a.unsubscribe = nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("updatesync - notes"),
		a.bar.Init(),
		a.waitForEvent(),
		a.refreshStatus(),
		a.tickStatus(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.UpdateApplied:
		a.reload()
		return a, tea.Batch(a.waitForEvent(), a.refreshStatus())

	case messages.FailureReported:
		a.bar.SetError(msg.Err)
		return a, a.waitForEvent()

	case messages.StatusRefreshed:
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
		} else if msg.Status != nil {
			a.bar.SetStatus(*msg.Status)
		}
		return a, nil

	case messages.StatusTick:
		a.reload()
		return a, tea.Batch(a.refreshStatus(), a.tickStatus())

	case messages.SyncCompleted:
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
		} else {
			a.bar.SetMessage(fmt.Sprintf("Applied %d, wrote %d", msg.Applied, msg.Written))
		}
		return a, a.refreshStatus()

	case messages.NoteDispatched:
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
		}
		return a, a.refreshStatus()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.bar, cmd = a.bar.Update(msg)
		return a, cmd
	}

	if a.mode == messages.ModeInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case messages.ModeInput:
		return a.handleInputKey(msg)
	case messages.ModeHelp:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		a.mode = messages.ModeBoard
		return a, nil
	case messages.ModeBoard:
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(key, a.keymap.Help):
		a.mode = messages.ModeHelp
	case keymap.Matches(key, a.keymap.Up):
		if a.selected > 0 {
			a.selected--
		}
	case keymap.Matches(key, a.keymap.Down):
		if a.selected < len(a.notes)-1 {
			a.selected++
		}
	case keymap.Matches(key, a.keymap.Add):
		a.mode = messages.ModeInput
		a.bar.SetInputMode(true)
		return a, a.input.Focus()
	case keymap.Matches(key, a.keymap.Remove):
		return a, a.removeSelected()
	case keymap.Matches(key, a.keymap.Sync):
		a.bar.SetMessage("Syncing...")
		return a, a.syncNow()
	}
	return a, nil
}

func (a *App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Submit):
		text := a.input.Value()
		a.leaveInput()
		if text == "" {
			return a, nil
		}
		update, err := notes.AddUpdate(text, a.ports.Author, a.now())
		if err != nil {
			a.bar.SetError(err)
			return a, nil
		}
		return a, a.dispatch(update)
	case keymap.Matches(key, a.keymap.Cancel):
		a.leaveInput()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) leaveInput() {
	a.input.Blur()
	a.mode = messages.ModeBoard
	a.bar.SetInputMode(false)
}

func (a *App) removeSelected() tea.Cmd {
	if len(a.notes) == 0 {
		a.bar.SetError(ErrNoNoteSelected)
		return nil
	}
	update, err := notes.RemoveUpdate(a.notes[a.selected].ID)
	if err != nil {
		a.bar.SetError(err)
		return nil
	}
	return a.dispatch(update)
}

// reload copies the board and keeps the selection in range.
func (a *App) reload() {
	a.notes = a.ports.Board.State().Notes
	if a.selected >= len(a.notes) {
		a.selected = len(a.notes) - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func (a *App) post(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
	}
}

func (a *App) waitForEvent() tea.Cmd {
	ctx, events := a.ctx, a.events
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) refreshStatus() tea.Cmd {
	ctx, engine := a.ctx, a.ports.Engine
	return func() tea.Msg {
		s, err := engine.Status(ctx)
		return messages.StatusRefreshed{Status: s, Err: err}
	}
}

func (a *App) tickStatus() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return messages.StatusTick{}
	})
}

func (a *App) syncNow() tea.Cmd {
	ctx, engine := a.ctx, a.ports.Engine
	return func() tea.Msg {
		applied, err := engine.CheckForUpdates(ctx)
		if err != nil {
			return messages.SyncCompleted{Applied: applied, Err: err}
		}
		written, err := engine.Flush(ctx)
		return messages.SyncCompleted{Applied: applied, Written: written, Err: err}
	}
}

func (a *App) dispatch(update domain.Update) tea.Cmd {
	ctx, engine := a.ctx, a.ports.Engine
	return func() tea.Msg {
		return messages.NoteDispatched{Err: engine.DispatchUpdate(ctx, update)}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Notes"))
	b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  %d on the board", len(a.notes))))
	b.WriteString("\n\n")

	switch a.mode {
	case messages.ModeHelp:
		b.WriteString(a.renderHelp())
	case messages.ModeInput:
		b.WriteString(a.renderBoard())
		b.WriteString("\n")
		b.WriteString(a.input.View())
	case messages.ModeBoard:
		b.WriteString(a.renderBoard())
	}

	b.WriteString("\n")
	b.WriteString(a.bar.View())
	return b.String()
}

func (a *App) renderBoard() string {
	if len(a.notes) == 0 {
		return a.styles.Muted.Render("No notes yet. Press a to add one.") + "\n"
	}

	var b strings.Builder
	for i, n := range a.notes {
		line := n.Text
		if i == a.selected {
			line = a.styles.Selected.Render("> " + line)
		} else {
			line = a.styles.Normal.Render("  " + line)
		}
		b.WriteString(line)
		if n.Author != "" {
			b.WriteString(" " + a.styles.Author.Render(n.Author))
		}
		b.WriteString(" " + a.styles.Muted.Render(n.Created.Local().Format("Jan 2 15:04")))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderHelp() string {
	var b strings.Builder
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Muted.Render("[any key] back to board"))
	b.WriteString("\n")
	return b.String()
}

// Run starts the watch view and closes it on exit.
func (a *App) Run() error {
	defer a.Close()
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Mode returns the current mode.
func (a *App) Mode() messages.Mode {
	return a.mode
}

// Notes returns the notes on display.
func (a *App) Notes() []notes.Note {
	return a.notes
}

// Selected returns the selected note index.
func (a *App) Selected() int {
	return a.selected
}

// Err returns the error shown in the status bar.
func (a *App) Err() error {
	return a.bar.Err()
}

// Message returns the status bar message.
func (a *App) Message() string {
	return a.bar.Message()
}

// Ready returns whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.bar.SetWidth(width)
	a.input.SetWidth(width)
}
