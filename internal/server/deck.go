package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lox/blackjack/internal/deckapi"
	"github.com/lox/blackjack/internal/shoe"
)

// queryInt reads a positive integer query parameter, defaulting when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func writeDeckError(w http.ResponseWriter, status int, msg string, remaining int) {
	writeJSON(w, status, deckapi.Response{Success: false, Remaining: remaining, Error: msg})
}

// handleNewShoe serves GET /api/deck/new/shuffle/?deck_count=N
func (s *Server) handleNewShoe(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "deck_count", 1)
	if err != nil {
		writeDeckError(w, http.StatusBadRequest, err.Error(), 0)
		return
	}

	id, err := s.shoes.NewShoe(r.Context(), count)
	if err != nil {
		writeDeckError(w, http.StatusBadRequest, err.Error(), 0)
		return
	}
	remaining, err := s.store.Remaining(id)
	if err != nil {
		writeDeckError(w, http.StatusInternalServerError, err.Error(), 0)
		return
	}

	writeJSON(w, http.StatusOK, deckapi.Response{
		Success:   true,
		DeckID:    id,
		Shuffled:  true,
		Remaining: remaining,
	})
}

// handleDraw serves GET /api/deck/{id}/draw/?count=N. An exhausted shoe
// answers 200 with success false, as the public service does.
func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deckID")
	count, err := queryInt(r, "count", 1)
	if err != nil {
		writeDeckError(w, http.StatusBadRequest, err.Error(), 0)
		return
	}

	cards, remaining, err := s.store.Draw(id, count)
	switch {
	case errors.Is(err, shoe.ErrUnknownShoe):
		writeDeckError(w, http.StatusNotFound, deckapi.MsgDeckNotFound, 0)
		return
	case err != nil:
		writeDeckError(w, http.StatusOK, fmt.Sprintf(deckapi.MsgNotEnoughLeft, count), remaining)
		return
	}

	writeJSON(w, http.StatusOK, deckapi.Response{
		Success:   true,
		DeckID:    id,
		Remaining: remaining,
		Cards:     deckapi.FromCards(cards),
	})
}

// handleReshuffle serves GET /api/deck/{id}/shuffle/
func (s *Server) handleReshuffle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deckID")
	remaining, err := s.store.Shuffle(id)
	if err != nil {
		writeDeckError(w, http.StatusNotFound, deckapi.MsgDeckNotFound, 0)
		return
	}
	writeJSON(w, http.StatusOK, deckapi.Response{
		Success:   true,
		DeckID:    id,
		Shuffled:  true,
		Remaining: remaining,
	})
}
