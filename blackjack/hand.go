package blackjack

import "strings"

const (
	// Target is the best possible hand total.
	Target = 21

	// DealerStandsOn is the total at which the dealer stops drawing, soft or hard.
	DealerStandsOn = 17
)

// Hand is an ordered, append-only sequence of cards held by one side.
type Hand []Card

// NewHand copies cards into a new hand.
func NewHand(cards ...Card) Hand {
	h := make(Hand, len(cards))
	copy(h, cards)
	return h
}

// With returns a new hand with cards appended, leaving h untouched.
func (h Hand) With(cards ...Card) Hand {
	out := make(Hand, 0, len(h)+len(cards))
	out = append(out, h...)
	return append(out, cards...)
}

// Clone returns an independent copy of the hand.
func (h Hand) Clone() Hand {
	if h == nil {
		return nil
	}
	return NewHand(h...)
}

// Score returns the hand total.
func (h Hand) Score() int {
	return Score(h)
}

// Soft reports whether an ace is still counted as 11.
func (h Hand) Soft() bool {
	_, soft := evaluate(h)
	return soft
}

// Busted reports whether the total is over 21.
func (h Hand) Busted() bool {
	return Score(h) > Target
}

// Blackjack reports whether the hand is a two card 21.
func (h Hand) Blackjack() bool {
	return len(h) == 2 && Score(h) == Target
}

// Text joins the long form of every card, e.g. "ACE of SPADES, 9 of HEARTS".
func (h Hand) Text() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.Text()
	}
	return strings.Join(parts, ", ")
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Score returns the best total for cards: the highest total not over 21 if one
// exists, otherwise the lowest total. Aces start at 11 and are demoted to 1 one
// at a time while the total is over 21.
func Score(cards []Card) int {
	total, _ := evaluate(cards)
	return total
}

func evaluate(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		if c.Rank == Ace {
			aces++
		}
		total += c.Rank.Points()
	}
	for total > Target && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// DealerShouldDraw is the dealer's fixed drawing rule.
func DealerShouldDraw(dealerTotal int) bool {
	return dealerTotal < DealerStandsOn
}
