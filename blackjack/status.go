package blackjack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the state of a round. The zero value means no round has been dealt.
type Status uint8

const (
	Idle Status = iota
	InProgress
	PlayerBust
	PlayerBlackjack
	DealerBust
	PlayerWin
	DealerWin
	Push
)

var statusNames = map[Status]string{
	Idle:            "idle",
	InProgress:      "in_progress",
	PlayerBust:      "player_bust",
	PlayerBlackjack: "player_blackjack",
	DealerBust:      "dealer_bust",
	PlayerWin:       "player_win",
	DealerWin:       "dealer_win",
	Push:            "push",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether the round has been decided.
func (s Status) Terminal() bool {
	return s >= PlayerBust && s <= Push
}

// PlayerWon reports whether the outcome pays the player.
func (s Status) PlayerWon() bool {
	return s == PlayerBlackjack || s == DealerBust || s == PlayerWin
}

// Message is the outcome line shown to the player.
func (s Status) Message() string {
	switch s {
	case PlayerBlackjack:
		return "Blackjack! You win!"
	case PlayerBust:
		return "Bust! You lose."
	case DealerBust:
		return "Dealer busts! You win!"
	case DealerWin:
		return "Dealer wins!"
	case PlayerWin:
		return "You win!"
	case Push:
		return "Push! It's a tie."
	}
	return ""
}

// Payout is the player's net result in units of the stake.
func (s Status) Payout() float64 {
	switch s {
	case PlayerBlackjack:
		return 1.5
	case DealerBust, PlayerWin:
		return 1
	case PlayerBust, DealerWin:
		return -1
	}
	return 0
}

// ParseStatus parses the String form of a status.
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return Idle, fmt.Errorf("unknown status: %q", name)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
