package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/blackjack"
	"github.com/lox/blackjack/internal/round"
)

// Dealer is the round the terminal client plays. *round.Controller satisfies it.
type Dealer interface {
	Apply(ctx context.Context, action blackjack.Action) error
	Snapshot() round.Snapshot
}

// transitionMsg reports the end of a deal, hit or stand.
type transitionMsg struct {
	action   blackjack.Action
	snapshot round.Snapshot
	err      error
}

// Model is the Bubble Tea model for a blackjack table
type Model struct {
	ctx    context.Context
	dealer Dealer
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	help        help.Model
	keys        keyMap

	// State
	snapshot round.Snapshot
	pending  bool
	rounds   int
	notice   string
	lastErr  string
	gameLog  []string
	quitting bool

	// Dimensions
	width  int
	height int
}

// NewModel creates a model that plays against dealer. Transitions run with ctx.
func NewModel(ctx context.Context, dealer Dealer, logger *log.Logger) *Model {
	vp := viewport.New(40, 5)
	vp.SetContent("")

	return &Model{
		ctx:         ctx,
		dealer:      dealer,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		help:        help.New(),
		keys:        newKeyMap(),
		snapshot:    dealer.Snapshot(),
		gameLog:     []string{},
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeLog()
		return m, nil

	case transitionMsg:
		m.finish(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		for _, a := range blackjack.Actions {
			if key.Matches(msg, m.keys.Action[a]) {
				return m, m.request(a)
			}
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// request starts a transition unless one is running or the action is unavailable.
func (m *Model) request(a blackjack.Action) tea.Cmd {
	if m.pending {
		m.notice = "Waiting for the dealer..."
		return nil
	}
	if !blackjack.Allowed(m.snapshot.Status, a) {
		m.notice = fmt.Sprintf("Can't %s now", a)
		return nil
	}

	m.pending = true
	m.notice = ""
	m.lastErr = ""
	m.logger.Debug("Requesting transition", "action", a)

	ctx, dealer := m.ctx, m.dealer
	return func() tea.Msg {
		err := dealer.Apply(ctx, a)
		return transitionMsg{action: a, snapshot: dealer.Snapshot(), err: err}
	}
}

func (m *Model) finish(msg transitionMsg) {
	m.pending = false
	if msg.err != nil {
		m.lastErr = msg.err.Error()
		m.logger.Error("Transition failed", "action", msg.action, "error", msg.err)
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("%s failed: %v", msg.action, msg.err)))
		return
	}

	m.snapshot = msg.snapshot
	p := m.snapshot.PresentDefault()

	switch msg.action {
	case blackjack.Deal:
		m.rounds++
		m.AddLogEntry(LabelStyle.Render(fmt.Sprintf("Round %d", m.rounds)))
		m.AddLogEntry(fmt.Sprintf("  You: %s (%d)", p.PlayerText, m.snapshot.PlayerTotal))
		m.AddLogEntry(fmt.Sprintf("  Dealer: %s", p.DealerText))
	case blackjack.Hit:
		last := m.snapshot.Player[len(m.snapshot.Player)-1]
		m.AddLogEntry(fmt.Sprintf("  Hit: %s (%d)", last.Text(), m.snapshot.PlayerTotal))
	case blackjack.Stand:
		m.AddLogEntry("  Stand")
	}

	if m.snapshot.Status.Terminal() {
		m.AddLogEntry(fmt.Sprintf("  Dealer: %s (%d)", p.DealerText, m.snapshot.DealerTotal))
		m.AddLogEntry("  " + outcomeStyle(m.snapshot.Status).Render(p.Message))
	}
	m.logger.Info("Round updated", "action", msg.action, "status", m.snapshot.Status,
		"player", m.snapshot.PlayerTotal, "dealer", m.snapshot.DealerTotal)
}

// AddLogEntry appends a line to the round log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the round log
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// Pending reports whether a transition is in flight
func (m *Model) Pending() bool {
	return m.pending
}

func (m *Model) resizeLog() {
	// Header, both hands, outcome, status and help use ten lines with the log border.
	height := m.height - 10
	if height < 1 {
		height = 1
	}
	width := m.width - 2
	if width < 1 {
		width = 1
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
}

// View renders the table
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	p := m.snapshot.PresentDefault()
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Blackjack"))
	b.WriteString("\n\n")
	b.WriteString(renderHand("Dealer", p.DealerCards, p.DealerTotal))
	b.WriteString("\n")
	b.WriteString(renderHand("Player", p.PlayerCards, p.PlayerTotal))
	b.WriteString("\n\n")

	if p.Status.Terminal() {
		b.WriteString(outcomeStyle(p.Status).Render(p.Message))
	} else if p.Status == blackjack.Idle {
		b.WriteString(InfoStyle.Render("Press d to deal"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")

	b.WriteString(LogPaneStyle.Render(m.logViewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func renderHand(label string, cards []round.CardView, total string) string {
	parts := make([]string, 0, len(cards))
	for _, cv := range cards {
		parts = append(parts, renderCard(cv))
	}
	line := LabelStyle.Render(fmt.Sprintf("%-7s", label+":")) + " " + strings.Join(parts, ", ")
	if total != "" {
		line += "  " + TotalStyle.Render(total)
	}
	return line
}

func renderCard(cv round.CardView) string {
	if cv.Hidden {
		return HiddenCardStyle.Render(round.HiddenCard)
	}
	text := cv.Value + " of " + cv.Suit
	if suit, err := blackjack.ParseSuit(cv.Suit); err == nil && suit.Red() {
		return RedCardStyle.Render(text)
	}
	return BlackCardStyle.Render(text)
}

func (m *Model) renderStatusLine() string {
	switch {
	case m.pending:
		return WarningStyle.Render("Waiting for the dealer...")
	case m.lastErr != "":
		return ErrorStyle.Render("Error: " + m.lastErr)
	case m.notice != "":
		return InfoStyle.Render(m.notice)
	}
	return ""
}

// actionEnabled reports whether pressing the key for a would start a transition.
func (m *Model) actionEnabled(a blackjack.Action) bool {
	return !m.pending && blackjack.Allowed(m.snapshot.Status, a)
}

// renderHelp shows every action key, dimming the ones that can't be used now.
func (m *Model) renderHelp() string {
	parts := make([]string, 0, len(blackjack.Actions))
	for _, a := range blackjack.Actions {
		h := m.keys.Action[a].Help()
		text := h.Key + " " + h.Desc
		if m.actionEnabled(a) {
			parts = append(parts, KeyStyle.Render(text))
		} else {
			parts = append(parts, DisabledKeyStyle.Render(text))
		}
	}
	sep := InfoStyle.Render(" • ")
	return strings.Join(parts, sep) + sep + m.help.View(m.keys)
}

func outcomeStyle(s blackjack.Status) lipgloss.Style {
	switch {
	case s.PlayerWon():
		return SuccessStyle
	case s == blackjack.Push:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// Run starts the terminal client and blocks until the player quits or ctx is done.
func Run(ctx context.Context, dealer Dealer, logger *log.Logger, opts ...tea.ProgramOption) error {
	m := NewModel(ctx, dealer, logger)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
