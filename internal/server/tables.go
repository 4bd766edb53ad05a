package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lox/blackjack/blackjack"
)

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TableListData{Tables: s.Tables()})
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	t := s.CreateTable()
	w.Header().Set("Location", "/api/tables/"+t.ID)
	writeJSON(w, http.StatusCreated, TableCreated{ID: t.ID})
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.Table(chi.URLParam(r, "tableID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Round())
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.CloseTable(chi.URLParam(r, "tableID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAction serves POST /api/tables/{id}/deal, /hit and /stand
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	t, err := s.Table(chi.URLParam(r, "tableID"))
	if err != nil {
		writeError(w, err)
		return
	}

	action, err := blackjack.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	data, err := t.Apply(r.Context(), action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handleWebSocket streams a table's rounds to the client
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	t, err := s.Table(chi.URLParam(r, "tableID"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.streamTable(w, r, t)
}

// streamTable upgrades the request and subscribes it to t.
func (s *Server) streamTable(w http.ResponseWriter, r *http.Request, t *Table) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, t, s.logger)
	if err := t.Subscribe(client); err != nil {
		// The table closed between the lookup and the upgrade.
		if msg, mErr := NewMessage(MessageTypeClosed, TableCreated{ID: t.ID}); mErr == nil {
			_ = client.SendMessage(msg)
		}
		client.Start()
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.Done()
		t.Unsubscribe(client)
	}()
}
