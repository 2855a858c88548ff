package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransactionEventMessage notifies downstream consumers (budget
// automation, backups) that a transaction was mutated. It carries only
// the id and the action; consumers fetch the record themselves.
type TransactionEventMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

var validActions = map[string]bool{
	"created": true,
	"updated": true,
	"deleted": true,
}

func NewTransactionEventMessage(action, id string) (*TransactionEventMessage, error) {
	if !validActions[action] {
		return nil, fmt.Errorf("unknown event action %q", action)
	}
	if id == "" {
		return nil, fmt.Errorf("empty transaction id")
	}
	return &TransactionEventMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
