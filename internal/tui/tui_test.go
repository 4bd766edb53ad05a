package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/blackjack"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/shoe"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newStackedModel deals 9/7 to the player and 5/9 to the dealer, then an 8.
func newStackedModel(t *testing.T) *Model {
	t.Helper()
	store := shoe.NewStore(time.Hour, quartz.NewMock(t), quietLogger())
	src := shoe.NewStackedSource(store, blackjack.MustParseCodes("9S", "5H", "7D", "9C", "8C")...)
	ctrl := round.NewController(src, quietLogger())
	m := NewModel(context.Background(), ctrl, quietLogger())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

func press(m *Model, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

func complete(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestModel_PlaysARound(t *testing.T) {
	m := newStackedModel(t)
	assert.Contains(t, m.View(), "Press d to deal")

	complete(t, m, press(m, 'd'))
	view := m.View()
	assert.Contains(t, view, "5 of HEARTS, [Hidden]")
	assert.Contains(t, view, "9 of SPADES, 7 of DIAMONDS  Total: 16")
	assert.NotContains(t, view, "Total: 14", "dealer total stays hidden")

	complete(t, m, press(m, 's'))
	view = m.View()
	assert.Contains(t, view, "Dealer busts! You win!")
	assert.Contains(t, view, "Total: 22")

	logText := strings.Join(m.Log(), "\n")
	assert.Contains(t, logText, "Round 1")
	assert.Contains(t, logText, "Stand")
	assert.Contains(t, logText, "Dealer busts! You win!")
}

func TestModel_RefusesInputWhilePending(t *testing.T) {
	m := newStackedModel(t)

	cmd := press(m, 'd')
	require.NotNil(t, cmd)
	assert.True(t, m.Pending())
	for _, a := range blackjack.Actions {
		assert.False(t, m.actionEnabled(a), "%s while pending", a)
	}

	assert.Nil(t, press(m, 'd'))
	assert.Nil(t, press(m, 'h'))
	assert.Contains(t, m.View(), "Waiting for the dealer...")

	complete(t, m, cmd)
	assert.False(t, m.Pending())
	assert.True(t, m.actionEnabled(blackjack.Hit))
}

func TestModel_DisabledActions(t *testing.T) {
	m := newStackedModel(t)

	assert.True(t, m.actionEnabled(blackjack.Deal))
	assert.False(t, m.actionEnabled(blackjack.Hit))
	assert.False(t, m.actionEnabled(blackjack.Stand))

	assert.Nil(t, press(m, 'h'))
	assert.Contains(t, m.View(), "Can't hit now")
	assert.Nil(t, press(m, 's'))
	assert.Contains(t, m.View(), "Can't stand now")

	help := m.renderHelp()
	assert.Contains(t, help, "d deal")
	assert.Contains(t, help, "h hit")
	assert.Contains(t, help, "q quit")
}

type failingDealer struct{}

func (failingDealer) Apply(ctx context.Context, action blackjack.Action) error {
	return fmt.Errorf("deal: %w: connection refused", blackjack.ErrSourceUnavailable)
}

func (failingDealer) Snapshot() round.Snapshot {
	return round.Snapshot{}
}

func TestModel_ShowsErrors(t *testing.T) {
	m := NewModel(context.Background(), failingDealer{}, quietLogger())
	complete(t, m, press(m, 'd'))

	assert.False(t, m.Pending())
	view := m.View()
	assert.Contains(t, view, "Error: deal: card source unavailable: connection refused")
	assert.Contains(t, view, "Press d to deal", "the round is unchanged")
	require.Len(t, m.Log(), 1)
	assert.Contains(t, m.Log()[0], "deal failed")
}

func TestModel_Quit(t *testing.T) {
	m := newStackedModel(t)
	cmd := press(m, 'q')
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())

	m = newStackedModel(t)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowResize(t *testing.T) {
	m := newStackedModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 98, m.logViewport.Width)
	assert.Equal(t, 30, m.logViewport.Height)

	m.Update(tea.WindowSizeMsg{Width: 1, Height: 1})
	assert.Equal(t, 1, m.logViewport.Width)
	assert.Equal(t, 1, m.logViewport.Height)
}

var _ Dealer = (*round.Controller)(nil)
