package shoe

import (
	"context"
	rand "math/rand/v2"
	"sync"

	"github.com/lox/blackjack/blackjack"
	"github.com/lox/blackjack/internal/randutil"
)

// LocalSource is a card source backed by a Store in the same process.
type LocalSource struct {
	store *Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalSource creates a source whose shoes are shuffled from a generator seeded with seed.
func NewLocalSource(store *Store, seed int64) *LocalSource {
	return &LocalSource{
		store: store,
		rng:   randutil.New(seed),
	}
}

// Store returns the backing store.
func (ls *LocalSource) Store() *Store {
	return ls.store
}

// NewShoe shuffles a new shoe and registers it.
func (ls *LocalSource) NewShoe(ctx context.Context, deckCount int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Each shoe gets its own generator so concurrent draws never share one.
	ls.mu.Lock()
	rng := randutil.Fork(ls.rng)
	ls.mu.Unlock()

	s, err := New(deckCount, rng)
	if err != nil {
		return "", err
	}
	return ls.store.Add(s), nil
}

// Draw deals count cards from a registered shoe.
func (ls *LocalSource) Draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cards, _, err := ls.store.Draw(shoeID, count)
	return cards, err
}

// Release drops a shoe from the store.
func (ls *LocalSource) Release(shoeID string) {
	ls.store.Remove(shoeID)
}

// StackedSource hands out shoes that deal a fixed card order. Every new shoe
// starts again from the first card.
type StackedSource struct {
	store *Store
	cards []blackjack.Card
}

// NewStackedSource creates a source whose shoes deal cards in order.
func NewStackedSource(store *Store, cards ...blackjack.Card) *StackedSource {
	return &StackedSource{store: store, cards: append([]blackjack.Card(nil), cards...)}
}

// NewShoe registers a new stacked shoe. The deck count is ignored.
func (ss *StackedSource) NewShoe(ctx context.Context, deckCount int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ss.store.Add(NewStacked(ss.cards...)), nil
}

// Draw deals count cards from a registered shoe.
func (ss *StackedSource) Draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cards, _, err := ss.store.Draw(shoeID, count)
	return cards, err
}

// Release drops a shoe from the store.
func (ss *StackedSource) Release(shoeID string) {
	ss.store.Remove(shoeID)
}
