package round

import (
	"github.com/lox/blackjack/blackjack"
)

// State is the live round. The zero value is the Idle state before any deal.
type State struct {
	ID     string
	ShoeID string
	Player blackjack.Hand
	Dealer blackjack.Hand
	Status blackjack.Status
}

func (s State) clone() State {
	s.Player = s.Player.Clone()
	s.Dealer = s.Dealer.Clone()
	return s
}

// Snapshot is an immutable copy of a round with its totals computed.
type Snapshot struct {
	ID          string           `json:"id,omitempty"`
	ShoeID      string           `json:"shoe_id,omitempty"`
	Player      blackjack.Hand   `json:"-"`
	Dealer      blackjack.Hand   `json:"-"`
	PlayerTotal int              `json:"player_total"`
	DealerTotal int              `json:"dealer_total"`
	Status      blackjack.Status `json:"status"`
}

func newSnapshot(s State) Snapshot {
	s = s.clone()
	return Snapshot{
		ID:          s.ID,
		ShoeID:      s.ShoeID,
		Player:      s.Player,
		Dealer:      s.Dealer,
		PlayerTotal: s.Player.Score(),
		DealerTotal: s.Dealer.Score(),
		Status:      s.Status,
	}
}

// Disabled returns the actions unavailable for this snapshot.
func (s Snapshot) Disabled() blackjack.ActionSet {
	return blackjack.DisabledActions(s.Status)
}
