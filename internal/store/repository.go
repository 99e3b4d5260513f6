/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the banking-service. Defining an interface
 * decouples the application's business logic from the PostgreSQL implementation
 * and allows handlers and services to be tested against in-memory stubs.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/minibank/banking-service/internal/domain"
)

var (
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrDuplicateAccountNumber = errors.New("account number already in use")
	ErrInsufficientFunds      = errors.New("insufficient funds")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Customer methods
	CreateCustomer(ctx context.Context, customer *domain.Customer) (int64, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindCustomerByID(ctx context.Context, customerID int64) (*domain.Customer, error)

	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) (int64, error)
	FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error)
	FindAccountsByCustomerID(ctx context.Context, customerID int64) ([]domain.Account, error)
	// DeleteAccountCascade removes an account and all of its transactions in
	// one database transaction, children first.
	DeleteAccountCascade(ctx context.Context, accountID int64) error

	// Ledger methods. Both run in a single database transaction holding a row
	// lock on the account, so the balance update and the transaction insert
	// commit or roll back together.
	Deposit(ctx context.Context, accountID int64, amount int64) (*domain.Transaction, error)
	Withdraw(ctx context.Context, accountID int64, amount int64) (*domain.Transaction, error)

	// Transaction history
	FindTransactionsByAccountID(ctx context.Context, accountID int64) ([]domain.Transaction, error)
}
