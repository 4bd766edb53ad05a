package server

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjack/internal/round"
)

// MessageType identifies a websocket message
type MessageType string

const (
	// Server → client
	MessageTypeRound  MessageType = "round"
	MessageTypeError  MessageType = "error"
	MessageTypeClosed MessageType = "closed"

	// Client → server
	MessageTypeAction MessageType = "action"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// ActionData asks the table to apply deal, hit or stand
type ActionData struct {
	Action string `json:"action"`
}

// ErrorData reports a failed request
type ErrorData struct {
	Error string `json:"error"`
}

// RoundData is a table's round as the player sees it
type RoundData struct {
	TableID string `json:"table_id"`
	round.Presentation
}

// TableCreated is returned when a table is opened
type TableCreated struct {
	ID string `json:"id"`
}

// TableInfo summarises a table for listings
type TableInfo struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`
}

// TableListData lists open tables
type TableListData struct {
	Tables []TableInfo `json:"tables"`
}
