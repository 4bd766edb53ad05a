package blackjack

import (
	"fmt"
	"strings"
)

// Action is a move the player can request.
type Action uint8

const (
	Deal Action = iota
	Hit
	Stand
)

// Actions lists every action in display order.
var Actions = [3]Action{Deal, Hit, Stand}

func (a Action) String() string {
	switch a {
	case Deal:
		return "deal"
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction parses "deal", "hit" or "stand".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deal":
		return Deal, nil
	case "hit":
		return Hit, nil
	case "stand":
		return Stand, nil
	}
	return 0, fmt.Errorf("unknown action: %q", s)
}

// ActionSet is a bitset of actions.
type ActionSet uint8

// NewActionSet builds a set from actions.
func NewActionSet(actions ...Action) ActionSet {
	var set ActionSet
	for _, a := range actions {
		set |= 1 << a
	}
	return set
}

// AllActions is the set containing every action.
var AllActions = NewActionSet(Actions[:]...)

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	return s&(1<<a) != 0
}

// List returns the members in display order.
func (s ActionSet) List() []Action {
	var out []Action
	for _, a := range Actions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Strings returns the member names in display order.
func (s ActionSet) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.String()
	}
	return out
}

func (s ActionSet) String() string {
	return "{" + strings.Join(s.Strings(), ",") + "}"
}

// DisabledActions derives which buttons are unavailable for a round status.
// Deal is always available because dealing discards the current round.
func DisabledActions(status Status) ActionSet {
	if status == InProgress {
		return 0
	}
	return NewActionSet(Hit, Stand)
}

// Allowed reports whether a can be requested in status.
func Allowed(status Status, a Action) bool {
	return !DisabledActions(status).Has(a)
}
