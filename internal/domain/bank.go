/**
 * @description
 * This file defines the core domain models for the banking-service. These structs
 * represent the persisted entities (customers, accounts, transactions) and the
 * request DTOs used by the API and application layers.
 *
 * @notes
 * - Amounts are stored as `int64` to represent the value in the smallest currency
 *   unit (cents), which avoids floating-point inaccuracies with financial data.
 * - Using distinct types for API requests and database models keeps the layers
 *   decoupled and makes validation explicit.
 */

package domain

import "time"

// Transaction type enumeration. Transactions are immutable once written.
const (
	TransactionTypeDeposit    = "Deposit"
	TransactionTypeWithdrawal = "Withdrawal"
)

// Customer represents a registered user who owns accounts.
// Maps directly to the `customers` table.
type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account is a named balance-holding entity owned by exactly one customer.
// Maps directly to the `accounts` table.
type Account struct {
	ID            int64     `json:"id"`
	AccountNumber string    `json:"account_number"`
	Balance       int64     `json:"balance"` // in cents
	CustomerID    int64     `json:"customer_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transaction is an immutable record of a balance-changing event.
// Maps directly to the `transactions` table.
type Transaction struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"` // 'Deposit' or 'Withdrawal'
	Amount    int64     `json:"amount"` // in cents, always positive
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// RegisterRequest is the DTO for incoming registration submissions.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the DTO for incoming login submissions.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateAccountRequest is the DTO for opening a new account.
type CreateAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required,max=20,alphanumdash"`
}

// AccountView is an account together with its transaction history, as
// rendered on the dashboard.
type AccountView struct {
	Account
	Transactions []Transaction `json:"transactions"`
}

// DashboardView aggregates everything the dashboard shows for one customer.
type DashboardView struct {
	Customer Customer      `json:"customer"`
	Accounts []AccountView `json:"accounts"`
}
