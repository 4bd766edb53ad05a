package round

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/blackjack/blackjack"
)

// DefaultDeckCount is the number of decks in a fresh shoe.
const DefaultDeckCount = 6

// initialDraw is the number of cards dealt at the start of a round.
const initialDraw = 4

// ErrTransitionPending is returned when a transition is requested while another
// one is still waiting on the card source.
var ErrTransitionPending = fmt.Errorf("%w: another transition is in flight", blackjack.ErrInvalidTransition)

// ErrClosed is returned for transitions requested after Close.
var ErrClosed = fmt.Errorf("%w: round controller is closed", blackjack.ErrInvalidTransition)

// CardSource provides shuffled shoes and draws from them.
type CardSource interface {
	NewShoe(ctx context.Context, deckCount int) (string, error)
	Draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error)
}

// Releaser is implemented by card sources that can free a shoe once no round
// draws from it. Sources without it rely on the shoe expiring.
type Releaser interface {
	Release(shoeID string)
}

// Controller owns the live round and applies deal, hit and stand to it.
//
// Every transition computes the next state off to the side and commits it only
// once every card source request has succeeded, so a failed transition leaves
// the round exactly as it was.
type Controller struct {
	source    CardSource
	deckCount int
	logger    *log.Logger

	busy   atomic.Bool
	closed atomic.Bool
	mu     sync.RWMutex
	state  State
}

// Option configures a Controller.
type Option func(*Controller)

// WithDeckCount sets the number of decks requested for each new shoe.
func WithDeckCount(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.deckCount = n
		}
	}
}

// NewController creates a controller in the Idle state.
func NewController(source CardSource, logger *log.Logger, opts ...Option) *Controller {
	c := &Controller{
		source:    source,
		deckCount: DefaultDeckCount,
		logger:    logger.WithPrefix("round"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deal starts a new round, discarding whatever round was live.
//
// The four opening cards are dealt alternately starting with the player:
// draw positions 0 and 2 go to the player, 1 and 3 to the dealer.
func (c *Controller) Deal(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("deal: %w", ErrTransitionPending)
	}
	defer c.busy.Store(false)
	if c.closed.Load() {
		return fmt.Errorf("deal: %w", ErrClosed)
	}

	shoeID, err := c.source.NewShoe(ctx, c.deckCount)
	if err != nil {
		return c.sourceFailure("deal", err)
	}

	cards, err := c.draw(ctx, shoeID, initialDraw)
	if err != nil {
		c.release(shoeID)
		return c.sourceFailure("deal", err)
	}

	next := State{
		ID:     uuid.NewString(),
		ShoeID: shoeID,
		Player: blackjack.NewHand(cards[0], cards[2]),
		Dealer: blackjack.NewHand(cards[1], cards[3]),
		Status: blackjack.InProgress,
	}
	if next.Player.Score() == blackjack.Target {
		next.Status = blackjack.PlayerBlackjack
	}

	prev := c.commit(next)
	c.release(prev.ShoeID)
	if c.closed.Load() {
		// Close ran while this deal was drawing.
		c.release(next.ShoeID)
	}
	c.logger.Debug("Dealt round",
		"round", next.ID,
		"shoe", shoeID,
		"player", next.Player,
		"dealer", next.Dealer,
		"status", next.Status)
	return nil
}

// Hit draws one card for the player. A total over 21 ends the round as a bust;
// a total of exactly 21 stands automatically.
func (c *Controller) Hit(ctx context.Context) error {
	current, err := c.begin("hit")
	if err != nil {
		return err
	}
	defer c.busy.Store(false)

	cards, err := c.draw(ctx, current.ShoeID, 1)
	if err != nil {
		return c.sourceFailure("hit", err)
	}

	next := current.clone()
	next.Player = next.Player.With(cards...)

	switch total := next.Player.Score(); {
	case total > blackjack.Target:
		next.Status = blackjack.PlayerBust
	case total == blackjack.Target:
		if next, err = c.playDealer(ctx, next); err != nil {
			return c.sourceFailure("hit", err)
		}
	}

	c.commit(next)
	c.logger.Debug("Player hit", "round", next.ID, "card", cards[0], "total", next.Player.Score(), "status", next.Status)
	return nil
}

// Stand ends the player's turn, plays out the dealer and decides the round.
func (c *Controller) Stand(ctx context.Context) error {
	current, err := c.begin("stand")
	if err != nil {
		return err
	}
	defer c.busy.Store(false)

	next, err := c.playDealer(ctx, current.clone())
	if err != nil {
		return c.sourceFailure("stand", err)
	}

	c.commit(next)
	return nil
}

// Apply dispatches an action to the matching transition.
func (c *Controller) Apply(ctx context.Context, action blackjack.Action) error {
	switch action {
	case blackjack.Deal:
		return c.Deal(ctx)
	case blackjack.Hit:
		return c.Hit(ctx)
	case blackjack.Stand:
		return c.Stand(ctx)
	}
	return fmt.Errorf("%w: unknown action %s", blackjack.ErrInvalidTransition, action)
}

// begin claims the controller for a hit or stand and returns the live state.
func (c *Controller) begin(op string) (State, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return State{}, fmt.Errorf("%s: %w", op, ErrTransitionPending)
	}
	if c.closed.Load() {
		c.busy.Store(false)
		return State{}, fmt.Errorf("%s: %w", op, ErrClosed)
	}

	c.mu.RLock()
	current := c.state
	c.mu.RUnlock()

	if current.Status != blackjack.InProgress {
		c.busy.Store(false)
		return State{}, fmt.Errorf("%s: %w: round is %s", op, blackjack.ErrInvalidTransition, current.Status)
	}
	return current, nil
}

// playDealer draws for the dealer until the policy says stop and scores the round.
func (c *Controller) playDealer(ctx context.Context, next State) (State, error) {
	for blackjack.DealerShouldDraw(next.Dealer.Score()) {
		cards, err := c.draw(ctx, next.ShoeID, 1)
		if err != nil {
			return State{}, err
		}
		next.Dealer = next.Dealer.With(cards...)
	}

	next.Status = Decide(next.Player.Score(), next.Dealer.Score())
	c.logger.Debug("Dealer finished",
		"round", next.ID,
		"dealer", next.Dealer,
		"dealerTotal", next.Dealer.Score(),
		"playerTotal", next.Player.Score(),
		"status", next.Status)
	return next, nil
}

// Decide compares final totals once the dealer has finished drawing.
func Decide(playerTotal, dealerTotal int) blackjack.Status {
	switch {
	case dealerTotal > blackjack.Target:
		return blackjack.DealerBust
	case playerTotal > dealerTotal:
		return blackjack.PlayerWin
	case dealerTotal > playerTotal:
		return blackjack.DealerWin
	default:
		return blackjack.Push
	}
}

func (c *Controller) draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error) {
	cards, err := c.source.Draw(ctx, shoeID, count)
	if err != nil {
		return nil, err
	}
	if len(cards) != count {
		return nil, fmt.Errorf("%w: asked for %d cards, got %d", blackjack.ErrSourceUnavailable, count, len(cards))
	}
	for _, card := range cards {
		if !card.Valid() {
			return nil, fmt.Errorf("%w: invalid card %v", blackjack.ErrSourceUnavailable, card)
		}
	}
	return cards, nil
}

// sourceFailure classifies a card source error. Anything that is not already
// part of the taxonomy is reported as the source being unavailable.
func (c *Controller) sourceFailure(op string, err error) error {
	if !errors.Is(err, blackjack.ErrInvalidShoe) && !errors.Is(err, blackjack.ErrSourceUnavailable) {
		err = fmt.Errorf("%w: %w", blackjack.ErrSourceUnavailable, err)
	}
	c.logger.Warn("Transition aborted", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

// commit installs next as the live state and returns the one it replaced.
func (c *Controller) commit(next State) State {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	return prev
}

func (c *Controller) release(shoeID string) {
	r, ok := c.source.(Releaser)
	if !ok || shoeID == "" {
		return
	}
	r.Release(shoeID)
	c.logger.Debug("Released shoe", "shoe", shoeID)
}

// Close refuses further transitions and releases the live round's shoe.
// The last round stays readable.
func (c *Controller) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.mu.RLock()
	shoeID := c.state.ShoeID
	c.mu.RUnlock()
	c.release(shoeID)
}

// Busy reports whether a transition is waiting on the card source.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Snapshot returns a copy of the live round.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return newSnapshot(c.state)
}

// Status returns the live round status.
func (c *Controller) Status() blackjack.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Status
}

// PlayerHand returns a copy of the player's cards.
func (c *Controller) PlayerHand() blackjack.Hand {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Player.Clone()
}

// DealerHand returns a copy of the dealer's cards.
func (c *Controller) DealerHand() blackjack.Hand {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Dealer.Clone()
}

// PlayerTotal returns the player's current total.
func (c *Controller) PlayerTotal() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Player.Score()
}

// DealerTotal returns the dealer's current total including the hole card.
func (c *Controller) DealerTotal() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Dealer.Score()
}
