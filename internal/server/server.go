package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/shoe"
)

const (
	defaultSweepInterval = time.Hour
	shutdownTimeout      = 5 * time.Second
)

// Server hosts blackjack tables over HTTP and WebSocket, and serves shoes
// through the same endpoints as the public deck service.
type Server struct {
	store     *shoe.Store
	shoes     *shoe.LocalSource
	source    round.CardSource
	deckCount int
	sweep     time.Duration

	upgrader websocket.Upgrader
	logger   *log.Logger
	router   chi.Router

	mu         sync.RWMutex
	tables     map[string]*Table
	httpServer *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithCardSource sets where tables draw their cards. By default tables use
// the server's own shoes.
func WithCardSource(src round.CardSource) Option {
	return func(s *Server) {
		s.source = src
	}
}

// WithDeckCount sets the number of decks in each table's shoe.
func WithDeckCount(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.deckCount = n
		}
	}
}

// WithSeed makes shuffles deterministic.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.shoes = shoe.NewLocalSource(s.store, seed)
	}
}

// WithSweepInterval sets how often expired shoes are dropped.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sweep = d
		}
	}
}

// NewServer creates a server backed by store.
func NewServer(store *shoe.Store, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		store:     store,
		shoes:     shoe.NewLocalSource(store, time.Now().UnixNano()),
		deckCount: round.DefaultDeckCount,
		sweep:     defaultSweepInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("server"),
		tables: make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = s.shoes
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/deck", func(r chi.Router) {
		r.Get("/new/shuffle/", s.handleNewShoe)
		r.Get("/new/shuffle", s.handleNewShoe)
		r.Get("/{deckID}/draw/", s.handleDraw)
		r.Get("/{deckID}/draw", s.handleDraw)
		r.Get("/{deckID}/shuffle/", s.handleReshuffle)
		r.Get("/{deckID}/shuffle", s.handleReshuffle)
	})

	r.Route("/api/tables", func(r chi.Router) {
		r.Get("/", s.handleListTables)
		r.Post("/", s.handleCreateTable)
		r.Route("/{tableID}", func(r chi.Router) {
			r.Get("/", s.handleGetTable)
			r.Delete("/", s.handleDeleteTable)
			r.Post("/{action}", s.handleAction)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Expired shoes are swept in the background while serving.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = hs
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting blackjack server", "addr", ln.Addr().String())
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return s.store.RunSweeper(gctx, s.sweep)
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown closes every table's subscribers and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	hs := s.httpServer
	for _, t := range s.tables {
		t.Close()
	}
	s.mu.Unlock()

	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}

// CreateTable opens a new table in the Idle state.
func (s *Server) CreateTable() *Table {
	id := uuid.NewString()
	ctrl := round.NewController(s.source, s.logger, round.WithDeckCount(s.deckCount))
	t := newTable(id, ctrl, s.logger)

	s.mu.Lock()
	s.tables[id] = t
	total := len(s.tables)
	s.mu.Unlock()

	s.logger.Info("Opened table", "table", id, "tables", total)
	return t
}

// Table looks up a table by id.
func (s *Server) Table(id string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return t, nil
}

// CloseTable removes a table and disconnects its subscribers.
func (s *Server) CloseTable(id string) error {
	s.mu.Lock()
	t, ok := s.tables[id]
	delete(s.tables, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	t.Close()
	s.logger.Info("Closed table", "table", id)
	return nil
}

// Tables lists open tables ordered by id.
func (s *Server) Tables() []TableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]TableInfo, 0, len(s.tables))
	for id, t := range s.tables {
		infos = append(infos, TableInfo{
			ID:          id,
			Status:      t.Status().String(),
			Subscribers: t.Subscribers(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// requestLogger logs each request once it completes
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
