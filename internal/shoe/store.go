package shoe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/blackjack/blackjack"
)

// ErrUnknownShoe means no live shoe has the requested id.
var ErrUnknownShoe = fmt.Errorf("%w: deck id does not exist", blackjack.ErrInvalidShoe)

// DefaultTTL is how long an untouched shoe lives, matching the public deck service.
const DefaultTTL = 14 * 24 * time.Hour

type entry struct {
	shoe     *Shoe
	lastUsed time.Time
}

// Store keeps shoes by id. Shoes that are not used for longer than the TTL
// are treated as unknown and removed by Sweep.
type Store struct {
	mu     sync.Mutex
	shoes  map[string]*entry
	ttl    time.Duration
	clock  quartz.Clock
	logger *log.Logger
}

// NewStore creates an empty store.
func NewStore(ttl time.Duration, clock quartz.Clock, logger *log.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Store{
		shoes:  make(map[string]*entry),
		ttl:    ttl,
		clock:  clock,
		logger: logger.WithPrefix("shoe"),
	}
}

// Add registers a shoe and returns its new id.
func (st *Store) Add(s *Shoe) string {
	id := uuid.NewString()

	st.mu.Lock()
	st.shoes[id] = &entry{shoe: s, lastUsed: st.clock.Now()}
	st.mu.Unlock()

	st.logger.Debug("Added shoe", "shoe", id, "cards", s.Size())
	return id
}

// Draw deals n cards from the shoe with the given id.
func (st *Store) Draw(id string, n int) ([]blackjack.Card, int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, err := st.lookup(id)
	if err != nil {
		return nil, 0, err
	}
	cards, err := e.shoe.Draw(n)
	if err != nil {
		return nil, e.shoe.Remaining(), err
	}
	e.lastUsed = st.clock.Now()
	return cards, e.shoe.Remaining(), nil
}

// Shuffle returns every card to the shoe and reshuffles it.
func (st *Store) Shuffle(id string) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, err := st.lookup(id)
	if err != nil {
		return 0, err
	}
	e.shoe.Shuffle()
	e.lastUsed = st.clock.Now()
	return e.shoe.Remaining(), nil
}

// Remaining returns the number of cards left in a shoe.
func (st *Store) Remaining(id string) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, err := st.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.shoe.Remaining(), nil
}

// lookup must be called with st.mu held.
func (st *Store) lookup(id string) (*entry, error) {
	e, ok := st.shoes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShoe, id)
	}
	if st.expired(e) {
		delete(st.shoes, id)
		return nil, fmt.Errorf("%w: %s expired", ErrUnknownShoe, id)
	}
	return e, nil
}

func (st *Store) expired(e *entry) bool {
	return st.clock.Since(e.lastUsed) > st.ttl
}

// Remove forgets a shoe.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	delete(st.shoes, id)
	st.mu.Unlock()
}

// Len returns the number of shoes held, expired or not.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.shoes)
}

// Sweep removes expired shoes and returns how many were dropped.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.shoes {
		if st.expired(e) {
			delete(st.shoes, id)
			removed++
		}
	}
	if removed > 0 {
		st.logger.Debug("Swept expired shoes", "removed", removed, "remaining", len(st.shoes))
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (st *Store) RunSweeper(ctx context.Context, every time.Duration) error {
	w := st.clock.TickerFunc(ctx, every, func() error {
		st.Sweep()
		return nil
	}, "shoe", "sweep")
	err := w.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
