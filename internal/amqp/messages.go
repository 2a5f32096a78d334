package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ChangeMessage is the wire form of one store change. It names the affected
// key and record; consumers read the full state from the store.
type ChangeMessage struct {
	Key       string    `json:"key"`
	Op        string    `json:"op"`
	ID        core.ID   `json:"id,omitempty"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage converts a store change.
func NewChangeMessage(c store.Change) ChangeMessage {
	return ChangeMessage(c)
}

// ToJSON converts the message to JSON bytes.
func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message, rejecting ones without a key or op.
func ChangeMessageFromJSON(data []byte) (ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChangeMessage{}, fmt.Errorf("decode change message: %w", err)
	}
	if msg.Key == "" || msg.Op == "" {
		return ChangeMessage{}, fmt.Errorf("decode change message: missing key or op")
	}
	return msg, nil
}
