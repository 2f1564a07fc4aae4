// Package stream pushes accuracy index refresh notifications to websocket clients.
package stream

import (
	"time"

	"github.com/yourusername/edgeboard/internal/models"
)

// Message types
const (
	MessageTypeRefresh     = "index_refresh"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// RefreshEvent announces that a sport's accuracy index was rebuilt
type RefreshEvent struct {
	Sport      models.Sport `json:"sport"`
	SnapshotID string       `json:"snapshot_id"`
	Origin     string       `json:"origin"`
	Buckets    int          `json:"buckets"`
	BuiltAt    time.Time    `json:"built_at"`
}

// ServerMessage is sent from the server to clients
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is sent from clients to the server
type ClientMessage struct {
	Type   string   `json:"type"`
	Sports []string `json:"sports,omitempty"`
}

// ErrorMessage is the payload of an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionStats describes one client connection
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	Sports           []string  `json:"sports"`
}
