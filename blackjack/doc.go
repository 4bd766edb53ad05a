// Package blackjack holds the pure rules of the game: cards, hand scoring with
// soft aces, the dealer's drawing rule, round outcomes and which player actions
// each outcome allows. Nothing in this package performs I/O.
package blackjack
