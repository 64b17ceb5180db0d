package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried on the mirror queue.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// TransactionEvent asks the mirror worker to reconcile one ledger row with
// the sheet. Sync events carry only the id; the worker re-reads the row
// from SQLite so the queue never holds stale amounts. Delete events carry
// the full row because it no longer exists locally.
type TransactionEvent struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	User      string    `json:"user,omitempty"`
	Category  string    `json:"category,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncEvent(id string) *TransactionEvent {
	return &TransactionEvent{Op: OpSync, ID: id, Timestamp: time.Now()}
}

func NewDeleteEvent(id, user, category string, amount int64) *TransactionEvent {
	return &TransactionEvent{
		Op:        OpDelete,
		ID:        id,
		User:      user,
		Category:  category,
		Amount:    amount,
		Timestamp: time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
