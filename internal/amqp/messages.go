package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage tells the export worker a transaction was
// committed. It carries only the id plus a little routing context; the
// worker reads the full row back from storage.
type TransactionRecordedMessage struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	OccurredAt string    `json:"occurred_at"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id int64, kind, occurredAt string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:         id,
		Kind:       kind,
		OccurredAt: occurredAt,
		Timestamp:  time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
