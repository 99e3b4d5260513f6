/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL for customers, accounts, and the transaction ledger.
 *
 * Deposit and Withdraw take a `SELECT ... FOR UPDATE` row lock on the account
 * inside a single database transaction so the balance update and the ledger
 * insert commit atomically, and concurrent requests against the same account
 * serialize instead of racing.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minibank/banking-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateCustomer inserts a new customer record and returns its id.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) (int64, error) {
	query := `
        INSERT INTO customers (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
	).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		log.Printf("Error inserting customer into database: %v", err)
		return 0, err
	}
	return customer.ID, nil
}

// FindCustomerByEmail retrieves a customer by their unique email.
func (r *PostgresRepository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var customer domain.Customer
	query := `SELECT id, name, email, password_hash, created_at FROM customers WHERE lower(email) = lower($1)`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.PasswordHash, &customer.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindCustomerByID retrieves a customer by their id.
func (r *PostgresRepository) FindCustomerByID(ctx context.Context, customerID int64) (*domain.Customer, error) {
	var customer domain.Customer
	query := `SELECT id, name, email, password_hash, created_at FROM customers WHERE id = $1`
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.PasswordHash, &customer.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// CreateAccount inserts a new account with a zero balance and returns its id.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) (int64, error) {
	query := `
        INSERT INTO accounts (account_number, balance, customer_id)
        VALUES ($1, 0, $2)
        RETURNING id, balance, created_at
    `
	err := r.db.QueryRow(ctx, query,
		account.AccountNumber,
		account.CustomerID,
	).Scan(&account.ID, &account.Balance, &account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateAccountNumber
		}
		log.Printf("Error inserting account into database: %v", err)
		return 0, err
	}
	return account.ID, nil
}

// FindAccountByID retrieves an account by its id.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT id, account_number, balance, customer_id, created_at FROM accounts WHERE id = $1`
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&account.ID, &account.AccountNumber, &account.Balance, &account.CustomerID, &account.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAccountsByCustomerID lists all accounts owned by a customer, oldest first.
func (r *PostgresRepository) FindAccountsByCustomerID(ctx context.Context, customerID int64) ([]domain.Account, error) {
	query := `SELECT id, account_number, balance, customer_id, created_at FROM accounts WHERE customer_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID, &account.AccountNumber, &account.Balance, &account.CustomerID, &account.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// DeleteAccountCascade removes an account's transactions and then the account
// itself inside one database transaction, so no orphan ledger rows survive.
func (r *PostgresRepository) DeleteAccountCascade(ctx context.Context, accountID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_id = $1`, accountID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return tx.Commit(ctx)
}

// Deposit atomically credits the account and appends a Deposit ledger row.
func (r *PostgresRepository) Deposit(ctx context.Context, accountID int64, amount int64) (*domain.Transaction, error) {
	return r.applyLedgerEntry(ctx, accountID, amount, domain.TransactionTypeDeposit)
}

// Withdraw atomically debits the account and appends a Withdrawal ledger row.
// A withdrawal that would drive the balance negative is rejected with
// ErrInsufficientFunds and writes nothing.
func (r *PostgresRepository) Withdraw(ctx context.Context, accountID int64, amount int64) (*domain.Transaction, error) {
	return r.applyLedgerEntry(ctx, accountID, amount, domain.TransactionTypeWithdrawal)
}

func (r *PostgresRepository) applyLedgerEntry(ctx context.Context, accountID int64, amount int64, entryType string) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var balance int64
	// Use FOR UPDATE to lock the row, preventing race conditions.
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	delta := amount
	if entryType == domain.TransactionTypeWithdrawal {
		if balance < amount {
			return nil, ErrInsufficientFunds
		}
		delta = -amount
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, delta, accountID); err != nil {
		return nil, err
	}

	entry := &domain.Transaction{
		Type:      entryType,
		Amount:    amount,
		AccountID: accountID,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (type, amount, account_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		entry.Type, entry.Amount, entry.AccountID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// FindTransactionsByAccountID lists an account's ledger entries, oldest first.
func (r *PostgresRepository) FindTransactionsByAccountID(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	query := `SELECT id, type, amount, account_id, created_at FROM transactions WHERE account_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.Transaction{}
	for rows.Next() {
		var entry domain.Transaction
		if err := rows.Scan(
			&entry.ID, &entry.Type, &entry.Amount, &entry.AccountID, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
