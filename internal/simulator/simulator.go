package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/blackjack"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/shoe"
)

const (
	defaultTimeout = 5 * time.Second
	// Keeps per-worker shoes around long enough for a round and no longer.
	shoeTTL = time.Minute
)

// Config holds configuration for running simulations
type Config struct {
	Rounds    int
	Workers   int
	StandOn   int // the player hits while below this total
	DeckCount int
	Seed      int64
	Timeout   time.Duration // per round
	Logger    *log.Logger
}

// Simulator plays automatic rounds against in-process shoes
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Rounds > 0 && config.Workers > config.Rounds {
		config.Workers = config.Rounds
	}
	if config.StandOn < 1 {
		config.StandOn = blackjack.DealerStandsOn
	}
	if config.DeckCount < 1 {
		config.DeckCount = round.DefaultDeckCount
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config, logger: config.Logger.WithPrefix("simulator")}
}

// Run plays every round and returns the combined statistics. Worker i shuffles
// from seed+i, so a run is reproducible for a given seed and worker count.
func (s *Simulator) Run(ctx context.Context) (*Stats, error) {
	if s.config.Rounds < 1 {
		return nil, fmt.Errorf("rounds must be positive, got %d", s.config.Rounds)
	}

	workers := s.config.Workers
	results := make([]*Stats, workers)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		rounds := s.config.Rounds / workers
		if i < s.config.Rounds%workers {
			rounds++
		}
		g.Go(func() error {
			stats, err := s.runWorker(gctx, i, rounds)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			results[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := NewStats()
	for _, r := range results {
		total.Merge(r)
	}
	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	s.logger.Info("Simulation complete",
		"rounds", total.Rounds,
		"workers", workers,
		"net", total.Net,
		"duration", time.Since(start))
	return total, nil
}

func (s *Simulator) runWorker(ctx context.Context, id, rounds int) (*Stats, error) {
	logger := s.logger.With("worker", id)
	store := shoe.NewStore(shoeTTL, nil, logger)
	src := shoe.NewLocalSource(store, s.config.Seed+int64(id))
	ctrl := round.NewController(src, logger, round.WithDeckCount(s.config.DeckCount))
	defer ctrl.Close()

	stats := NewStats()
	for n := range rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := s.playRound(ctx, ctrl)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", n+1, err)
		}
		stats.Add(status)
	}

	logger.Debug("Worker finished", "rounds", rounds, "net", stats.Net)
	return stats, nil
}

// playRound deals and then hits until the player reaches StandOn.
func (s *Simulator) playRound(ctx context.Context, ctrl *round.Controller) (blackjack.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := ctrl.Deal(ctx); err != nil {
		return 0, err
	}
	for ctrl.Status() == blackjack.InProgress {
		var err error
		if ctrl.PlayerTotal() < s.config.StandOn {
			err = ctrl.Hit(ctx)
		} else {
			err = ctrl.Stand(ctx)
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return 0, fmt.Errorf("round timed out after %v: %w", s.config.Timeout, err)
			}
			return 0, err
		}
	}
	return ctrl.Status(), nil
}
