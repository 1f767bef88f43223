package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecorded announces that an income or expense entry was
// written. Consumers fetch the full entry from the database; the message
// carries only what is needed to find it and to scope budget checks.
type TransactionRecorded struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionRecorded creates a message stamped with the current time.
func NewTransactionRecorded(kind string, id, userID int64, month string) *TransactionRecorded {
	return &TransactionRecorded{
		Kind:      kind,
		ID:        id,
		UserID:    userID,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON creates a message from JSON bytes
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
