package blackjack

import (
	"fmt"
	"strings"
)

// Rank is a card rank. Ace is 1, number cards carry their pip value, Jack..King are 11..13.
type Rank uint8

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Suit is a card suit.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck order.
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// Valid reports whether r is one of the thirteen ranks.
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Points is the blackjack value of the rank with aces counted high.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Name returns the rank as the deck API spells it ("ACE", "7", "KING").
func (r Rank) Name() string {
	switch r {
	case Ace:
		return "ACE"
	case Jack:
		return "JACK"
	case Queen:
		return "QUEEN"
	case King:
		return "KING"
	}
	if r.Valid() {
		return fmt.Sprintf("%d", r)
	}
	return "?"
}

// Short returns the one or two character rank ("A", "10", "K").
func (r Rank) Short() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return r.Name()
}

func (r Rank) String() string {
	return r.Short()
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s <= Clubs
}

// Name returns the suit as the deck API spells it ("HEARTS").
func (s Suit) Name() string {
	switch s {
	case Spades:
		return "SPADES"
	case Hearts:
		return "HEARTS"
	case Diamonds:
		return "DIAMONDS"
	case Clubs:
		return "CLUBS"
	}
	return "?"
}

// Letter returns the suit initial used in card codes.
func (s Suit) Letter() string {
	if !s.Valid() {
		return "?"
	}
	return s.Name()[:1]
}

// Red reports whether the suit is hearts or diamonds.
func (s Suit) Red() bool {
	return s == Hearts || s == Diamonds
}

func (s Suit) String() string {
	return s.Name()
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a card from rank and suit
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Valid reports whether both rank and suit are in range.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// Code returns the two character deck API code, e.g. "KH", "0S" for the ten of spades.
func (c Card) Code() string {
	rank := c.Rank.Short()
	if c.Rank == Ten {
		rank = "0"
	}
	return rank + c.Suit.Letter()
}

// Text returns the long form shown to players, e.g. "KING of HEARTS".
func (c Card) Text() string {
	return c.Rank.Name() + " of " + c.Suit.Name()
}

func (c Card) String() string {
	return c.Rank.Short() + c.Suit.Letter()
}

// ParseRank parses a rank in deck API form ("ACE", "10", "KING") or short form ("A", "T", "0", "K").
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "ACE", "1":
		return Ace, nil
	case "2":
		return Two, nil
	case "3":
		return Three, nil
	case "4":
		return Four, nil
	case "5":
		return Five, nil
	case "6":
		return Six, nil
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "9":
		return Nine, nil
	case "10", "T", "0":
		return Ten, nil
	case "J", "JACK":
		return Jack, nil
	case "Q", "QUEEN":
		return Queen, nil
	case "K", "KING":
		return King, nil
	}
	return 0, fmt.Errorf("invalid rank: %q", s)
}

// ParseSuit parses a suit name or initial.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "SPADES":
		return Spades, nil
	case "H", "HEARTS":
		return Hearts, nil
	case "D", "DIAMONDS":
		return Diamonds, nil
	case "C", "CLUBS":
		return Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit: %q", s)
}

// ParseCard parses a deck API (value, suit) pair.
func ParseCard(value, suit string) (Card, error) {
	r, err := ParseRank(value)
	if err != nil {
		return Card{}, err
	}
	s, err := ParseSuit(suit)
	if err != nil {
		return Card{}, err
	}
	return NewCard(r, s), nil
}

// ParseCode parses a compact card code such as "AS", "10h", "0D" or "Kc".
func ParseCode(code string) (Card, error) {
	code = strings.TrimSpace(code)
	if len(code) < 2 || len(code) > 3 {
		return Card{}, fmt.Errorf("invalid card code: %q", code)
	}
	return ParseCard(code[:len(code)-1], code[len(code)-1:])
}

// MustParseCodes parses a list of card codes, panicking on error. Intended for tests and fixtures.
func MustParseCodes(codes ...string) []Card {
	cards := make([]Card, len(codes))
	for i, code := range codes {
		c, err := ParseCode(code)
		if err != nil {
			panic(err)
		}
		cards[i] = c
	}
	return cards
}
