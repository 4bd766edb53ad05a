// Package deckapi speaks the deckofcardsapi.com protocol: a client used as the
// round controller's card source, and the wire types the local server reuses
// to offer the same endpoints.
package deckapi

import (
	"fmt"

	"github.com/lox/blackjack/blackjack"
)

// DefaultBaseURL is the public deck service.
const DefaultBaseURL = "https://deckofcardsapi.com"

// Error messages used by the public service.
const (
	MsgDeckNotFound  = "Deck ID does not exist."
	MsgNotEnoughLeft = "Not enough cards remaining to draw %d additional"
)

// Card is a card on the wire.
type Card struct {
	Code  string `json:"code"`
	Value string `json:"value"`
	Suit  string `json:"suit"`
	Image string `json:"image,omitempty"`
}

// Response is the body of every deck endpoint.
type Response struct {
	Success   bool   `json:"success"`
	DeckID    string `json:"deck_id,omitempty"`
	Shuffled  bool   `json:"shuffled,omitempty"`
	Remaining int    `json:"remaining"`
	Cards     []Card `json:"cards,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FromCard converts a domain card to its wire form.
func FromCard(c blackjack.Card) Card {
	return Card{
		Code:  c.Code(),
		Value: c.Rank.Name(),
		Suit:  c.Suit.Name(),
	}
}

// FromCards converts domain cards to their wire form.
func FromCards(cards []blackjack.Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = FromCard(c)
	}
	return out
}

// ToCard converts a wire card to a domain card.
func (c Card) ToCard() (blackjack.Card, error) {
	card, err := blackjack.ParseCard(c.Value, c.Suit)
	if err != nil {
		return blackjack.Card{}, fmt.Errorf("card %q: %w", c.Code, err)
	}
	return card, nil
}
