package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"roommates/internal/core"
)

// ExpenseCreatedMessage carries everything the notify worker needs to send
// the new-expense email without reading the store.
type ExpenseCreatedMessage struct {
	Expense    core.Expense `json:"gasto"`
	Recipients []string     `json:"recipients"`
	Timestamp  time.Time    `json:"timestamp"`
}

func NewExpenseCreatedMessage(recipients []string, e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		Expense:    e,
		Recipients: recipients,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON decodes a message and rejects one without an
// expense id.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Expense.ID == "" {
		return nil, fmt.Errorf("message has no gasto id")
	}
	return &msg, nil
}
