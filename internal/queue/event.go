// Package queue defines the activity events exchanged over the message
// broker together with their publisher and consumer.
package queue

import "time"

// ActivityQueueName is the durable queue carrying ActivityEvent messages.
const ActivityQueueName = "ledger.activity"

// Event types.
const (
	EventHouseholdCreated    = "household.created"
	EventMemberJoined        = "household.member_joined"
	EventTransactionRecorded = "transaction.recorded"
)

// ActivityEvent is published after a write has been committed. It carries
// enough information for downstream consumers to log or notify without
// querying the primary database.
type ActivityEvent struct {
	Type          string    `json:"type"`
	UserID        uint64    `json:"user_id"`
	Username      string    `json:"username,omitempty"`
	HouseholdID   *uint64   `json:"household_id,omitempty"`
	HouseholdName string    `json:"household_name,omitempty"`
	TransactionID uint64    `json:"transaction_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Category      string    `json:"category,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
