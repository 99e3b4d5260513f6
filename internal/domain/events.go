/**
 * @description
 * This file defines the event payloads published to the message broker after
 * successful state changes. Downstream consumers (notifications, analytics)
 * subscribe to these on the `bank_events` topic exchange.
 */

package domain

import "time"

// Routing keys for the bank_events exchange.
const (
	EventCustomerRegistered  = "customer.registered"
	EventAccountCreated      = "account.created"
	EventAccountDeleted      = "account.deleted"
	EventTransactionRecorded = "transaction.recorded"
)

// CustomerRegisteredEvent is published after a new customer row is committed.
type CustomerRegisteredEvent struct {
	CustomerID int64  `json:"customer_id"`
	Email      string `json:"email"`
}

// AccountCreatedEvent is published after a new account is opened.
type AccountCreatedEvent struct {
	AccountID     int64  `json:"account_id"`
	AccountNumber string `json:"account_number"`
	CustomerID    int64  `json:"customer_id"`
}

// AccountDeletedEvent is published after an account and its transactions are removed.
type AccountDeletedEvent struct {
	AccountID  int64 `json:"account_id"`
	CustomerID int64 `json:"customer_id"`
}

// TransactionRecordedEvent is published after a deposit or withdrawal commits.
type TransactionRecordedEvent struct {
	TransactionID int64     `json:"transaction_id"`
	AccountID     int64     `json:"account_id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"` // in cents
	RecordedAt    time.Time `json:"recorded_at"`
}
