package round

import (
	"fmt"
	"strings"

	"github.com/lox/blackjack/blackjack"
)

// HiddenCard stands in for the dealer's face-down card.
const HiddenCard = "[Hidden]"

// CardView is a single card as shown to a player.
type CardView struct {
	Code   string `json:"code"`
	Value  string `json:"value"`
	Suit   string `json:"suit"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Presentation is the text a front end shows for a round.
type Presentation struct {
	RoundID     string           `json:"round_id,omitempty"`
	Status      blackjack.Status `json:"status"`
	Message     string           `json:"message,omitempty"`
	PlayerCards []CardView       `json:"player_cards"`
	PlayerText  string           `json:"player_text"`
	PlayerTotal string           `json:"player_total"`
	DealerCards []CardView       `json:"dealer_cards"`
	DealerText  string           `json:"dealer_text"`
	DealerTotal string           `json:"dealer_total"`
	Disabled    []string         `json:"disabled"`
}

// Present renders a snapshot. With hideDealerHole set only the dealer's first
// card is shown and the dealer total is left blank.
func (s Snapshot) Present(hideDealerHole bool) Presentation {
	p := Presentation{
		RoundID:     s.ID,
		Status:      s.Status,
		Message:     s.Status.Message(),
		PlayerCards: cardViews(s.Player),
		PlayerText:  s.Player.Text(),
		DealerCards: cardViews(s.Dealer),
		Disabled:    s.Disabled().Strings(),
	}
	if p.Disabled == nil {
		p.Disabled = []string{}
	}
	if s.Status == blackjack.Idle {
		return p
	}

	p.PlayerTotal = formatTotal(s.PlayerTotal)

	if hideDealerHole && len(s.Dealer) > 1 {
		shown := []string{s.Dealer[0].Text()}
		for i := range p.DealerCards[1:] {
			p.DealerCards[i+1] = CardView{Hidden: true}
			shown = append(shown, HiddenCard)
		}
		p.DealerText = strings.Join(shown, ", ")
		return p
	}

	p.DealerText = s.Dealer.Text()
	p.DealerTotal = formatTotal(s.DealerTotal)
	return p
}

// PresentDefault hides the dealer's hole card only while the player is still acting.
func (s Snapshot) PresentDefault() Presentation {
	return s.Present(s.Status == blackjack.InProgress)
}

func formatTotal(total int) string {
	return fmt.Sprintf("Total: %d", total)
}

func cardViews(h blackjack.Hand) []CardView {
	views := make([]CardView, len(h))
	for i, c := range h {
		views[i] = CardView{Code: c.Code(), Value: c.Rank.Name(), Suit: c.Suit.Name()}
	}
	return views
}
