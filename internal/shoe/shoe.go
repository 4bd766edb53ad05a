// Package shoe provides an in-process card source: multi-deck shoes shuffled
// from an explicit random source, kept in an expiring store.
package shoe

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/blackjack/blackjack"
)

// DeckSize is the number of cards in one deck.
const DeckSize = 52

// MaxDecks bounds the size of a shoe.
const MaxDecks = 20

// Shoe is an ordered stack of cards drawn from the top.
type Shoe struct {
	cards []blackjack.Card
	next  int
	rng   *rand.Rand // nil for stacked shoes
}

// New creates a shoe of decks standard decks shuffled with rng.
func New(decks int, rng *rand.Rand) (*Shoe, error) {
	if decks < 1 || decks > MaxDecks {
		return nil, fmt.Errorf("deck count must be between 1 and %d, got %d", MaxDecks, decks)
	}

	s := &Shoe{
		cards: make([]blackjack.Card, 0, decks*DeckSize),
		rng:   rng,
	}
	for range decks {
		for _, suit := range blackjack.Suits {
			for rank := blackjack.Ace; rank <= blackjack.King; rank++ {
				s.cards = append(s.cards, blackjack.NewCard(rank, suit))
			}
		}
	}

	s.Shuffle()
	return s, nil
}

// NewStacked creates a shoe that deals cards in exactly the given order.
func NewStacked(cards ...blackjack.Card) *Shoe {
	return &Shoe{cards: append([]blackjack.Card(nil), cards...)}
}

// Shuffle puts every card back and shuffles using Fisher-Yates.
// Stacked shoes keep their order.
func (s *Shoe) Shuffle() {
	s.next = 0
	if s.rng == nil {
		return
	}
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw deals n cards. It deals nothing unless all n are available.
func (s *Shoe) Draw(n int) ([]blackjack.Card, error) {
	if n < 1 {
		return nil, fmt.Errorf("draw count must be positive, got %d", n)
	}
	if s.next+n > len(s.cards) {
		return nil, fmt.Errorf("%w: %d cards requested, %d remaining", blackjack.ErrInvalidShoe, n, s.Remaining())
	}
	cards := make([]blackjack.Card, n)
	copy(cards, s.cards[s.next:s.next+n])
	s.next += n
	return cards, nil
}

// Remaining returns the number of cards left in the shoe.
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

// Size returns the number of cards in a full shoe.
func (s *Shoe) Size() int {
	return len(s.cards)
}
