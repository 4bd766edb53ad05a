package round

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lox/blackjack/blackjack"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedSource deals a fixed sequence of cards and can be told to fail.
type scriptedSource struct {
	mu      sync.Mutex
	cards   []blackjack.Card
	next    int
	shoes   int
	failOn  int // fail the Nth Draw call (1-based), 0 never
	draws   int
	failErr error
	gate    chan struct{} // when set, Draw blocks until closed
	entered chan struct{}
}

func newScriptedSource(codes ...string) *scriptedSource {
	return &scriptedSource{cards: blackjack.MustParseCodes(codes...)}
}

func (s *scriptedSource) NewShoe(ctx context.Context, deckCount int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shoes++
	return fmt.Sprintf("shoe-%d", s.shoes), nil
}

func (s *scriptedSource) Draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws++
	if s.failOn != 0 && s.draws == s.failOn {
		if s.failErr != nil {
			return nil, s.failErr
		}
		return nil, blackjack.ErrSourceUnavailable
	}
	if s.next+count > len(s.cards) {
		return nil, blackjack.ErrInvalidShoe
	}
	cards := append([]blackjack.Card(nil), s.cards[s.next:s.next+count]...)
	s.next += count
	return cards, nil
}

func newTestController(src CardSource) *Controller {
	return NewController(src, log.New(io.Discard))
}

func codes(h blackjack.Hand) []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}
	return out
}

func TestController_StartsIdle(t *testing.T) {
	c := newTestController(newScriptedSource())
	snap := c.Snapshot()
	assert.Equal(t, blackjack.Idle, snap.Status)
	assert.Empty(t, snap.Player)
	assert.Empty(t, snap.Dealer)
	assert.Equal(t, 0, snap.PlayerTotal)

	assert.ErrorIs(t, c.Hit(context.Background()), blackjack.ErrInvalidTransition)
	assert.ErrorIs(t, c.Stand(context.Background()), blackjack.ErrInvalidTransition)
}

func TestController_DealAlternatesCards(t *testing.T) {
	src := newScriptedSource("10S", "6H", "7D", "QC")
	c := newTestController(src)

	require.NoError(t, c.Deal(context.Background()))

	assert.Equal(t, []string{"10S", "7D"}, codes(c.PlayerHand()))
	assert.Equal(t, []string{"6H", "QC"}, codes(c.DealerHand()))
	assert.Equal(t, 17, c.PlayerTotal())
	assert.Equal(t, 16, c.DealerTotal())
	assert.Equal(t, blackjack.InProgress, c.Status())
	assert.Equal(t, "shoe-1", c.Snapshot().ShoeID)
	assert.NotEmpty(t, c.Snapshot().ID)
}

func TestController_DealBlackjack(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		want  blackjack.Status
	}{
		{"king ace", []string{"KS", "5H", "AD", "9C"}, blackjack.PlayerBlackjack},
		{"ace ten", []string{"AS", "KH", "10D", "AC"}, blackjack.PlayerBlackjack},
		{"twenty", []string{"KS", "5H", "QD", "9C"}, blackjack.InProgress},
		{"pair of aces", []string{"AS", "5H", "AD", "9C"}, blackjack.InProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newScriptedSource(tt.cards...)
			c := newTestController(src)
			require.NoError(t, c.Deal(context.Background()))
			assert.Equal(t, tt.want, c.Status())
			// Blackjack resolves without any dealer action.
			assert.Len(t, c.DealerHand(), 2)
			assert.Equal(t, 1, src.draws)
		})
	}
}

func TestController_StandDealerDrawsToTwenty(t *testing.T) {
	// Player 10+7, dealer 6+Q, dealer then draws a 4.
	src := newScriptedSource("10S", "6H", "7D", "QC", "4S", "9H")
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	require.NoError(t, c.Stand(ctx))

	assert.Equal(t, 20, c.DealerTotal())
	assert.Len(t, c.DealerHand(), 3, "dealer must stop drawing at 20")
	assert.Equal(t, blackjack.DealerWin, c.Status())
}

func TestController_StandOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		want  blackjack.Status
		total int
	}{
		{"dealer stands on seventeen", []string{"10S", "10H", "9D", "7C"}, blackjack.PlayerWin, 17},
		{"dealer stands on soft seventeen", []string{"10S", "AH", "9D", "6C"}, blackjack.PlayerWin, 17},
		{"dealer busts", []string{"10S", "10H", "7D", "6C", "KS"}, blackjack.DealerBust, 26},
		{"push", []string{"10S", "10H", "8D", "8C"}, blackjack.Push, 18},
		{"dealer draws several", []string{"10S", "2H", "8D", "3C", "2S", "AH", "4D"}, blackjack.Push, 18},
		{"soft hand hardens and keeps drawing", []string{"10S", "AH", "8D", "5C", "10S", "3D"}, blackjack.DealerWin, 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(newScriptedSource(tt.cards...))
			ctx := context.Background()
			require.NoError(t, c.Deal(ctx))
			require.NoError(t, c.Stand(ctx))
			assert.Equal(t, tt.want, c.Status())
			assert.Equal(t, tt.total, c.DealerTotal())
		})
	}
}

func TestController_HitBust(t *testing.T) {
	src := newScriptedSource("10S", "6H", "6D", "QC", "KH")
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	require.NoError(t, c.Hit(ctx))

	assert.Equal(t, blackjack.PlayerBust, c.Status())
	assert.Equal(t, 26, c.PlayerTotal())
	assert.Len(t, c.DealerHand(), 2, "dealer does not play after a player bust")

	err := c.Hit(ctx)
	assert.ErrorIs(t, err, blackjack.ErrInvalidTransition)
	assert.Len(t, c.PlayerHand(), 3)
	assert.ErrorIs(t, c.Stand(ctx), blackjack.ErrInvalidTransition)
}

func TestController_HitToTwentyOneStandsAutomatically(t *testing.T) {
	// Player 5+6 hits a ten; dealer 10+6 draws a 2.
	src := newScriptedSource("5S", "10H", "6D", "6C", "10D", "2S")
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	require.NoError(t, c.Hit(ctx))

	assert.Equal(t, 21, c.PlayerTotal())
	assert.Equal(t, 18, c.DealerTotal())
	assert.Equal(t, blackjack.PlayerWin, c.Status())
	assert.ErrorIs(t, c.Hit(ctx), blackjack.ErrInvalidTransition)
}

func TestController_HitKeepsPlaying(t *testing.T) {
	src := newScriptedSource("2S", "10H", "3D", "7C", "4H", "AC")
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	require.NoError(t, c.Hit(ctx))
	assert.Equal(t, blackjack.InProgress, c.Status())
	assert.Equal(t, 9, c.PlayerTotal())

	require.NoError(t, c.Hit(ctx))
	assert.Equal(t, 20, c.PlayerTotal())
	assert.Equal(t, blackjack.InProgress, c.Status())
}

func TestController_FailedHitLeavesStateUnchanged(t *testing.T) {
	src := newScriptedSource("10S", "6H", "2D", "QC", "5H")
	src.failOn = 2
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	before := c.Snapshot()

	err := c.Hit(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, blackjack.ErrSourceUnavailable)
	assert.Equal(t, before, c.Snapshot())
	assert.Len(t, c.PlayerHand(), 2)
	assert.Equal(t, blackjack.InProgress, c.Status())

	// The same transition can be retried.
	require.NoError(t, c.Hit(ctx))
	assert.Len(t, c.PlayerHand(), 3)
}

func TestController_FailedDealerDrawRollsBackStand(t *testing.T) {
	src := newScriptedSource("10S", "2H", "8D", "3C", "2S", "AH", "4D")
	src.failOn = 3 // second dealer card
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	before := c.Snapshot()

	err := c.Stand(ctx)
	assert.ErrorIs(t, err, blackjack.ErrSourceUnavailable)
	assert.Equal(t, before, c.Snapshot())
}

func TestController_FailedAutoStandRollsBackHit(t *testing.T) {
	src := newScriptedSource("5S", "10H", "6D", "6C", "10D", "2S")
	src.failOn = 3 // dealer's draw during the automatic stand
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	before := c.Snapshot()

	assert.ErrorIs(t, c.Hit(ctx), blackjack.ErrSourceUnavailable)
	assert.Equal(t, before, c.Snapshot())
}

func TestController_FailedDealKeepsPreviousRound(t *testing.T) {
	src := newScriptedSource("10S", "6H", "7D", "QC")
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	before := c.Snapshot()

	err := c.Deal(ctx) // script is exhausted
	assert.ErrorIs(t, err, blackjack.ErrInvalidShoe)
	assert.Equal(t, before, c.Snapshot())
}

func TestController_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown error is unavailable", errors.New("connection reset"), blackjack.ErrSourceUnavailable},
		{"cancellation is unavailable", context.Canceled, blackjack.ErrSourceUnavailable},
		{"invalid shoe passes through", blackjack.ErrInvalidShoe, blackjack.ErrInvalidShoe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newScriptedSource("10S", "6H", "7D", "QC", "2S")
			src.failOn = 2
			src.failErr = tt.err
			c := newTestController(src)
			require.NoError(t, c.Deal(context.Background()))

			err := c.Hit(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, blackjack.ErrInvalidTransition)
		})
	}
}

// shortSource returns fewer cards than asked for.
type shortSource struct{ scriptedSource }

func (s *shortSource) Draw(ctx context.Context, shoeID string, count int) ([]blackjack.Card, error) {
	return blackjack.MustParseCodes("2S"), nil
}

func TestController_ShortDrawIsUnavailable(t *testing.T) {
	c := newTestController(&shortSource{})
	err := c.Deal(context.Background())
	assert.ErrorIs(t, err, blackjack.ErrSourceUnavailable)
	assert.Equal(t, blackjack.Idle, c.Status())
}

func TestController_DealDiscardsPreviousRound(t *testing.T) {
	src := newScriptedSource("10S", "6H", "6D", "QC", "KH", "2S", "3H", "4D", "5C")
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	require.NoError(t, c.Hit(ctx))
	first := c.Snapshot()
	require.Equal(t, blackjack.PlayerBust, first.Status)

	require.NoError(t, c.Deal(ctx))
	second := c.Snapshot()
	assert.Equal(t, blackjack.InProgress, second.Status)
	assert.Equal(t, []string{"2S", "4D"}, codes(second.Player))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, src.shoes)
}

func TestController_RejectsConcurrentTransitions(t *testing.T) {
	src := newScriptedSource("10S", "6H", "7D", "QC", "2S")
	c := newTestController(src)
	ctx := context.Background()
	require.NoError(t, c.Deal(ctx))

	src.gate = make(chan struct{})
	src.entered = make(chan struct{}, 1)

	var wg sync.WaitGroup
	var hitErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		hitErr = c.Hit(ctx)
	}()

	<-src.entered
	assert.True(t, c.Busy())
	assert.ErrorIs(t, c.Stand(ctx), ErrTransitionPending)
	assert.ErrorIs(t, c.Deal(ctx), ErrTransitionPending)
	assert.ErrorIs(t, c.Hit(ctx), blackjack.ErrInvalidTransition)

	close(src.gate)
	wg.Wait()

	require.NoError(t, hitErr)
	assert.False(t, c.Busy())
	assert.Len(t, c.PlayerHand(), 3)
}

func TestController_ReadOnlyAccessorsReturnCopies(t *testing.T) {
	c := newTestController(newScriptedSource("10S", "6H", "7D", "QC"))
	require.NoError(t, c.Deal(context.Background()))

	hand := c.PlayerHand()
	hand[0] = blackjack.NewCard(blackjack.Ace, blackjack.Spades)
	assert.Equal(t, 17, c.PlayerTotal())
}

func TestController_Apply(t *testing.T) {
	c := newTestController(newScriptedSource("10S", "6H", "7D", "QC", "4S"))
	ctx := context.Background()
	require.NoError(t, c.Apply(ctx, blackjack.Deal))
	require.NoError(t, c.Apply(ctx, blackjack.Stand))
	assert.Equal(t, blackjack.DealerWin, c.Status())
	assert.ErrorIs(t, c.Apply(ctx, blackjack.Action(9)), blackjack.ErrInvalidTransition)
}

func TestDecide(t *testing.T) {
	assert.Equal(t, blackjack.DealerBust, Decide(12, 22))
	assert.Equal(t, blackjack.PlayerWin, Decide(20, 19))
	assert.Equal(t, blackjack.DealerWin, Decide(17, 20))
	assert.Equal(t, blackjack.Push, Decide(18, 18))
}

// releasingSource records the shoes the controller gives back.
type releasingSource struct {
	*scriptedSource
	released []string
}

func (r *releasingSource) Release(shoeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, shoeID)
}

func TestController_ReleasesReplacedShoes(t *testing.T) {
	src := &releasingSource{scriptedSource: newScriptedSource(
		"10S", "6H", "6D", "QC", "2S", "3H", "4D", "5C")}
	c := newTestController(src)
	ctx := context.Background()

	require.NoError(t, c.Deal(ctx))
	assert.Empty(t, src.released)

	require.NoError(t, c.Deal(ctx))
	assert.Equal(t, []string{"shoe-1"}, src.released)

	// The third shoe has no cards left, so the failed deal hands it back and
	// the live round keeps its shoe.
	assert.Error(t, c.Deal(ctx))
	assert.Equal(t, []string{"shoe-1", "shoe-3"}, src.released)
	assert.Equal(t, "shoe-2", c.Snapshot().ShoeID)

	c.Close()
	assert.Equal(t, []string{"shoe-1", "shoe-3", "shoe-2"}, src.released)
	c.Close()
	assert.Len(t, src.released, 3)
}

func TestController_ClosedRefusesTransitions(t *testing.T) {
	c := newTestController(newScriptedSource("10S", "6H", "7D", "QC", "2S"))
	ctx := context.Background()
	require.NoError(t, c.Deal(ctx))
	before := c.Snapshot()

	c.Close()
	for _, a := range blackjack.Actions {
		err := c.Apply(ctx, a)
		assert.ErrorIs(t, err, ErrClosed, "%s", a)
		assert.ErrorIs(t, err, blackjack.ErrInvalidTransition, "%s", a)
	}
	assert.Equal(t, before, c.Snapshot())
	assert.False(t, c.Busy())
}

func TestController_CloseDuringDealReleasesNewShoe(t *testing.T) {
	src := &releasingSource{scriptedSource: newScriptedSource("10S", "6H", "7D", "QC")}
	src.gate = make(chan struct{})
	src.entered = make(chan struct{}, 1)
	c := newTestController(src)

	done := make(chan error, 1)
	go func() { done <- c.Deal(context.Background()) }()
	<-src.entered
	c.Close()
	close(src.gate)

	require.NoError(t, <-done)
	assert.Equal(t, []string{"shoe-1"}, src.released)
}
