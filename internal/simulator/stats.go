package simulator

import (
	"fmt"
	"math"
	"strings"

	"github.com/lox/blackjack/blackjack"
)

// Stats accumulates round outcomes in betting units, one unit staked per round.
type Stats struct {
	Rounds int
	Net    float64
	SumSq  float64 // Sum of squares for variance calculation

	outcomes map[blackjack.Status]int
}

// NewStats returns empty statistics
func NewStats() *Stats {
	return &Stats{outcomes: make(map[blackjack.Status]int)}
}

// Add records a finished round
func (s *Stats) Add(status blackjack.Status) {
	payout := status.Payout()
	s.Rounds++
	s.Net += payout
	s.SumSq += payout * payout
	s.outcomes[status]++
}

// Merge folds other into s
func (s *Stats) Merge(other *Stats) {
	s.Rounds += other.Rounds
	s.Net += other.Net
	s.SumSq += other.SumSq
	for status, n := range other.outcomes {
		s.outcomes[status] += n
	}
}

// Count returns how many rounds ended with status
func (s *Stats) Count(status blackjack.Status) int {
	return s.outcomes[status]
}

// Wins returns the rounds the player won
func (s *Stats) Wins() int {
	n := 0
	for status, count := range s.outcomes {
		if status.PlayerWon() {
			n += count
		}
	}
	return n
}

// Mean returns the average units won per round
func (s *Stats) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.Net / float64(s.Rounds)
}

// Variance returns the sample variance of per-round results
func (s *Stats) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of per-round results
func (s *Stats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Stats) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Stats) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Validate checks that the outcome counts add up
func (s *Stats) Validate() error {
	total := 0
	for status, n := range s.outcomes {
		if !status.Terminal() {
			return fmt.Errorf("non-terminal outcome recorded: %s", status)
		}
		total += n
	}
	if total != s.Rounds {
		return fmt.Errorf("outcome counts sum to %d, expected %d rounds", total, s.Rounds)
	}
	return nil
}

// Report is the serialisable summary of a run
type Report struct {
	Rounds   int            `json:"rounds"`
	Net      float64        `json:"net_units"`
	Mean     float64        `json:"mean_per_round"`
	StdDev   float64        `json:"std_dev"`
	CI95Low  float64        `json:"ci95_low"`
	CI95High float64        `json:"ci95_high"`
	Outcomes map[string]int `json:"outcomes"`
}

// Report summarises the statistics
func (s *Stats) Report() Report {
	low, high := s.ConfidenceInterval95()
	outcomes := make(map[string]int, len(s.outcomes))
	for status, n := range s.outcomes {
		outcomes[status.String()] = n
	}
	return Report{
		Rounds:   s.Rounds,
		Net:      s.Net,
		Mean:     s.Mean(),
		StdDev:   s.StdDev(),
		CI95Low:  low,
		CI95High: high,
		Outcomes: outcomes,
	}
}

// Summary renders the statistics as a table for the terminal
func (s *Stats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rounds: %d\n", s.Rounds)
	for _, status := range terminalStatuses {
		n := s.outcomes[status]
		pct := 0.0
		if s.Rounds > 0 {
			pct = 100 * float64(n) / float64(s.Rounds)
		}
		fmt.Fprintf(&b, "  %-17s %8d  %5.1f%%\n", status, n, pct)
	}
	low, high := s.ConfidenceInterval95()
	fmt.Fprintf(&b, "Net: %+.1f units (%+.4f per round, 95%% CI [%+.4f, %+.4f])\n", s.Net, s.Mean(), low, high)
	return b.String()
}

var terminalStatuses = []blackjack.Status{
	blackjack.PlayerBlackjack,
	blackjack.PlayerWin,
	blackjack.DealerBust,
	blackjack.Push,
	blackjack.DealerWin,
	blackjack.PlayerBust,
}
