package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/blackjack"
	"github.com/lox/blackjack/internal/round"
)

// ErrTableNotFound is returned for an unknown or closed table
var ErrTableNotFound = errors.New("table not found")

// Table is one player's seat against the dealer. It owns a round controller
// and fans out every committed transition to its websocket subscribers.
type Table struct {
	ID string

	ctrl   *round.Controller
	logger *log.Logger

	mu     sync.Mutex
	conns  map[*Connection]struct{}
	closed bool
}

func newTable(id string, ctrl *round.Controller, logger *log.Logger) *Table {
	return &Table{
		ID:     id,
		ctrl:   ctrl,
		logger: logger.With("table", id),
		conns:  make(map[*Connection]struct{}),
	}
}

// Apply runs a transition and broadcasts the result.
func (t *Table) Apply(ctx context.Context, action blackjack.Action) (RoundData, error) {
	if t.Closed() {
		return RoundData{}, fmt.Errorf("%w: %s", ErrTableNotFound, t.ID)
	}
	if err := t.ctrl.Apply(ctx, action); err != nil {
		if errors.Is(err, round.ErrClosed) {
			err = fmt.Errorf("%w: %s", ErrTableNotFound, t.ID)
		}
		t.logger.Debug("Transition failed", "action", action, "error", err)
		return RoundData{}, err
	}

	// The snapshot is taken under the subscriber lock so subscribers never see
	// an older round after a newer one.
	t.mu.Lock()
	defer t.mu.Unlock()
	data := t.roundData()
	t.broadcastLocked(MessageTypeRound, data)
	t.logger.Info("Applied action", "action", action, "status", data.Status)
	return data, nil
}

// Round returns the current round as the player sees it.
func (t *Table) Round() RoundData {
	return t.roundData()
}

// Status returns the round status.
func (t *Table) Status() blackjack.Status {
	return t.ctrl.Status()
}

func (t *Table) roundData() RoundData {
	return RoundData{TableID: t.ID, Presentation: t.ctrl.Snapshot().PresentDefault()}
}

// Closed reports whether the table has been closed.
func (t *Table) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Subscribe registers a connection and sends it the current round. A closed
// table refuses new subscribers.
func (t *Table) Subscribe(c *Connection) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("%w: %s", ErrTableNotFound, t.ID)
	}
	t.conns[c] = struct{}{}
	if msg, err := NewMessage(MessageTypeRound, t.roundData()); err == nil {
		_ = c.SendMessage(msg)
	}
	t.logger.Debug("Subscriber joined", "total", len(t.conns))
	return nil
}

// Unsubscribe forgets a connection.
func (t *Table) Unsubscribe(c *Connection) {
	t.mu.Lock()
	delete(t.conns, c)
	total := len(t.conns)
	t.mu.Unlock()
	t.logger.Debug("Subscriber left", "total", total)
}

// Subscribers returns the number of connected watchers.
func (t *Table) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// Close tells every subscriber the table is gone, disconnects them and
// releases the table's shoe.
func (t *Table) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.broadcastLocked(MessageTypeClosed, TableCreated{ID: t.ID})
	for c := range t.conns {
		_ = c.Close()
	}
	clear(t.conns)
	t.mu.Unlock()

	t.ctrl.Close()
}

func (t *Table) broadcastLocked(typ MessageType, data any) {
	msg, err := NewMessage(typ, data)
	if err != nil {
		t.logger.Error("Failed to encode message", "type", typ, "error", err)
		return
	}

	count := 0
	for c := range t.conns {
		if err := c.SendMessage(msg); err != nil {
			delete(t.conns, c)
			continue
		}
		count++
	}
	t.logger.Debug("Broadcasted message to table", "type", typ, "recipients", count)
}
