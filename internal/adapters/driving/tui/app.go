// Package tui provides the interactive review interface, one note at a
// time, following the Elm architecture.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driving/tui/keymap"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driving/tui/styles"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

// App is the review TUI application. It implements tea.Model.
type App struct {
	review driving.ReviewService
	owner  string
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	queue    []domain.TargetSuggestions
	position int
	cursor   int

	approved int
	rejected int
	skipped  int

	started bool
	done    bool
	err     error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a review TUI for the given owner.
func NewApp(review driving.ReviewService, owner string) (*App, error) {
	if review == nil {
		return nil, fmt.Errorf("creating app: review service is required")
	}
	if owner == "" {
		owner = "local"
	}

	return &App{
		review: review,
		owner:  owner,
		ctx:    context.Background(),
		styles: styles.DefaultStyles(),
		keys:   keymap.DefaultKeyMap(),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// sessionStartedMsg carries the opened session or the failure to open it.
type sessionStartedMsg struct {
	session *domain.Session
	err     error
}

// decidedMsg reports the outcome of one approve/reject.
type decidedMsg struct {
	approve bool
	err     error
}

// skippedMsg reports the outcome of a skip.
type skippedMsg struct {
	err error
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("tanatag - Review"),
		a.startSession,
	)
}

func (a *App) startSession() tea.Msg {
	session, err := a.review.StartSession(a.ctx, a.owner)
	return sessionStartedMsg{session: session, err: err}
}

func (a *App) decide(key domain.AssignmentKey, approve bool) tea.Cmd {
	return func() tea.Msg {
		err := a.review.Decide(a.ctx, a.owner, key, approve)
		return decidedMsg{approve: approve, err: err}
	}
}

func (a *App) skip() tea.Msg {
	return skippedMsg{err: a.review.Skip(a.ctx, a.owner)}
}

func (a *App) quit() tea.Cmd {
	return func() tea.Msg {
		// Best effort: an expired session is already gone.
		_ = a.review.CancelSession(a.ctx, a.owner)
		return tea.Quit()
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case sessionStartedMsg:
		if msg.err != nil {
			a.err = msg.err
			a.done = true
			return a, nil
		}
		a.queue = msg.session.Queue
		a.position = msg.session.Position
		a.started = true
		if len(a.queue) == 0 {
			a.done = true
		}
		return a, nil

	case decidedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		if msg.approve {
			a.approved++
		} else {
			a.rejected++
		}
		a.advance()
		return a, nil

	case skippedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.skipped++
		a.advance()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// advance moves to the next target, mirroring the session cursor kept by
// the review service.
func (a *App) advance() {
	a.position++
	a.cursor = 0
	a.err = nil
	if a.position >= len(a.queue) {
		a.done = true
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, a.keys.Quit) {
		return a, a.quit()
	}
	if !a.started || a.done {
		return a, nil
	}

	target := a.current()
	if target == nil {
		return a, nil
	}

	switch {
	case keymap.Matches(keyStr, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case keymap.Matches(keyStr, a.keys.Down):
		if a.cursor < len(target.Suggestions)-1 {
			a.cursor++
		}
	case keymap.Matches(keyStr, a.keys.Approve):
		if len(target.Suggestions) > 0 {
			s := target.Suggestions[a.cursor]
			return a, a.decide(domain.AssignmentKey{NoteID: s.NoteID, LabelID: s.LabelID}, true)
		}
	case keymap.Matches(keyStr, a.keys.Reject):
		if len(target.Suggestions) > 0 {
			s := target.Suggestions[a.cursor]
			return a, a.decide(domain.AssignmentKey{NoteID: s.NoteID, LabelID: s.LabelID}, false)
		}
	case keymap.Matches(keyStr, a.keys.Skip):
		return a, a.skip
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.started && a.err == nil {
		return a.styles.Muted.Render("Loading review queue...")
	}
	if a.done {
		return a.viewSummary()
	}

	target := a.current()
	if target == nil {
		return a.viewSummary()
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render(fmt.Sprintf("Review %d/%d", a.position+1, len(a.queue))))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Normal.Render(target.Note.Title))
	b.WriteString("\n")
	if path := target.Note.Path(); path != "" {
		b.WriteString(a.styles.Subtitle.Render(path))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, s := range target.Suggestions {
		line := fmt.Sprintf("#%s  %.2f %s", s.LabelName, s.Score, s.Confidence())
		if i == a.cursor {
			line = a.styles.Selected.Render("> " + line)
		} else {
			line = "  " + a.styles.Confidence(s.Confidence()).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if a.err != nil {
		b.WriteString("\n")
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[a] approve  [r] reject  [s] skip  [j/k] move  [q] quit"))
	return a.styles.Border.Render(b.String())
}

func (a *App) viewSummary() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Review complete"))
	b.WriteString("\n\n")
	if a.err != nil {
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(a.styles.Success.Render(fmt.Sprintf("  approved %d", a.approved)))
	b.WriteString("\n")
	b.WriteString(a.styles.Error.Render(fmt.Sprintf("  rejected %d", a.rejected)))
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  skipped  %d", a.skipped)))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("Run 'tanatag apply' to push approvals. [q] quit"))
	return b.String()
}

// current returns the target under review.
func (a *App) current() *domain.TargetSuggestions {
	if a.position < 0 || a.position >= len(a.queue) {
		return nil
	}
	return &a.queue[a.position]
}

// Run starts the TUI program.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Position returns the current queue position (for testing).
func (a *App) Position() int { return a.position }

// Done reports whether the review has finished.
func (a *App) Done() bool { return a.done }

// Counts returns the approved, rejected and skipped totals.
func (a *App) Counts() (approved, rejected, skipped int) {
	return a.approved, a.rejected, a.skipped
}

// Err returns the last error.
func (a *App) Err() error { return a.err }
