/**
 * @description
 * This file contains the core business logic for the banking-service. The `Service`
 * struct orchestrates registration, login, account lifecycle, and the deposit/
 * withdrawal ledger, coordinating between the database repository and the
 * message broker.
 *
 * Key features:
 * - Salted password hashing with bcrypt; login failures are indistinguishable
 *   whether the email exists or the password is wrong.
 * - Ownership checks on every account-scoped operation, so a logged-in
 *   customer can only touch their own accounts.
 * - Publishes events to RabbitMQ after successful commits; publish failures
 *   are logged and never fail the operation.
 *
 * @dependencies
 * - github.com/go-playground/validator/v10: Request DTO validation.
 * - golang.org/x/crypto/bcrypt: Password hashing.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/minibank/banking-service/internal/domain"
	"github.com/minibank/banking-service/internal/store"
	"github.com/minibank/banking-service/pkg/rabbitmq"
)

var (
	// ErrInvalidCredentials is returned on any login failure. It deliberately
	// does not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotAccountOwner is returned when a customer targets an account owned
	// by someone else.
	ErrNotAccountOwner = errors.New("account not owned by customer")
)

// Service provides the core business logic for the bank.
type Service struct {
	repo     store.Repository
	events   rabbitmq.Publisher
	validate *validator.Validate
}

// NewService creates a new banking service instance. A nil producer disables
// event publishing.
func NewService(repo store.Repository, producer rabbitmq.Publisher) *Service {
	v := validator.New()
	// Account numbers: letters, digits, and dashes only.
	_ = v.RegisterValidation("alphanumdash", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, r := range value {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return false
			}
		}
		return value != ""
	})

	return &Service{
		repo:     repo,
		events:   producer,
		validate: v,
	}
}

// Register creates a new customer with a bcrypt-hashed password. A duplicate
// email is rejected with store.ErrDuplicateEmail and writes nothing.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	customer := &domain.Customer{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if _, err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventCustomerRegistered, domain.CustomerRegisteredEvent{
		CustomerID: customer.ID,
		Email:      customer.Email,
	})
	return customer, nil
}

// Authenticate verifies a customer's email and password. Every failure mode
// collapses into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.Customer, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, ErrInvalidCredentials
	}

	customer, err := s.repo.FindCustomerByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrCustomerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return customer, nil
}

// Dashboard loads a customer together with their accounts and each account's
// transaction history.
func (s *Service) Dashboard(ctx context.Context, customerID int64) (*domain.DashboardView, error) {
	customer, err := s.repo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.FindAccountsByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	view := &domain.DashboardView{
		Customer: *customer,
		Accounts: make([]domain.AccountView, 0, len(accounts)),
	}
	for _, account := range accounts {
		entries, err := s.repo.FindTransactionsByAccountID(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		view.Accounts = append(view.Accounts, domain.AccountView{Account: account, Transactions: entries})
	}
	return view, nil
}

// CreateAccount opens a zero-balance account owned by the session customer.
// A duplicate account number is rejected with store.ErrDuplicateAccountNumber.
func (s *Service) CreateAccount(ctx context.Context, customerID int64, req domain.CreateAccountRequest) (*domain.Account, error) {
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	account := &domain.Account{
		AccountNumber: req.AccountNumber,
		CustomerID:    customerID,
	}
	if _, err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventAccountCreated, domain.AccountCreatedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		CustomerID:    customerID,
	})
	return account, nil
}

// Deposit credits an owned account and appends a Deposit transaction atomically.
func (s *Service) Deposit(ctx context.Context, customerID, accountID, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if _, err := s.ownedAccount(ctx, customerID, accountID); err != nil {
		return nil, err
	}

	entry, err := s.repo.Deposit(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	s.publishLedgerEvent(ctx, entry)
	return entry, nil
}

// Withdraw debits an owned account and appends a Withdrawal transaction
// atomically. A withdrawal exceeding the balance is rejected with
// store.ErrInsufficientFunds and leaves balance and history unchanged.
func (s *Service) Withdraw(ctx context.Context, customerID, accountID, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if _, err := s.ownedAccount(ctx, customerID, accountID); err != nil {
		return nil, err
	}

	entry, err := s.repo.Withdraw(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	s.publishLedgerEvent(ctx, entry)
	return entry, nil
}

// DeleteAccount removes an owned account and all of its transactions.
func (s *Service) DeleteAccount(ctx context.Context, customerID, accountID int64) error {
	if _, err := s.ownedAccount(ctx, customerID, accountID); err != nil {
		return err
	}
	if err := s.repo.DeleteAccountCascade(ctx, accountID); err != nil {
		return err
	}

	s.publish(ctx, domain.EventAccountDeleted, domain.AccountDeletedEvent{
		AccountID:  accountID,
		CustomerID: customerID,
	})
	return nil
}

// ownedAccount loads an account and enforces that it belongs to the session
// customer. Callers surface both failure modes as a 404 so account ids owned
// by other customers are indistinguishable from ids that do not exist.
func (s *Service) ownedAccount(ctx context.Context, customerID, accountID int64) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.CustomerID != customerID {
		return nil, ErrNotAccountOwner
	}
	return account, nil
}

func (s *Service) publishLedgerEvent(ctx context.Context, entry *domain.Transaction) {
	s.publish(ctx, domain.EventTransactionRecorded, domain.TransactionRecordedEvent{
		TransactionID: entry.ID,
		AccountID:     entry.AccountID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		RecordedAt:    entry.CreatedAt,
	})
}

func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, body); err != nil {
		log.Printf("WARN: Failed to publish '%s' event: %v", routingKey, err)
	}
}
