package app

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/minibank/banking-service/internal/domain"
	"github.com/minibank/banking-service/internal/store"
)

type publisherStub struct {
	routingKeys []string
}

func (p *publisherStub) Publish(ctx context.Context, routingKey string, body interface{}) error {
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

func (p *publisherStub) Close() {}

func (p *publisherStub) published(routingKey string) bool {
	for _, key := range p.routingKeys {
		if key == routingKey {
			return true
		}
	}
	return false
}

type serviceRepoStub struct {
	store.Repository

	customerByEmail   *domain.Customer
	customerByID      *domain.Customer
	account           *domain.Account
	accounts          []domain.Account
	transactions      []domain.Transaction
	createCustomerErr error
	createAccountErr  error
	withdrawErr       error

	createdCustomer  *domain.Customer
	createdAccount   *domain.Account
	depositCalled    bool
	withdrawCalled   bool
	deleteCalled     bool
	deletedAccountID int64
}

func (s *serviceRepoStub) CreateCustomer(ctx context.Context, customer *domain.Customer) (int64, error) {
	if s.createCustomerErr != nil {
		return 0, s.createCustomerErr
	}
	customer.ID = 1
	s.createdCustomer = customer
	return customer.ID, nil
}

func (s *serviceRepoStub) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if s.customerByEmail == nil {
		return nil, store.ErrCustomerNotFound
	}
	return s.customerByEmail, nil
}

func (s *serviceRepoStub) FindCustomerByID(ctx context.Context, customerID int64) (*domain.Customer, error) {
	if s.customerByID == nil {
		return nil, store.ErrCustomerNotFound
	}
	return s.customerByID, nil
}

func (s *serviceRepoStub) CreateAccount(ctx context.Context, account *domain.Account) (int64, error) {
	if s.createAccountErr != nil {
		return 0, s.createAccountErr
	}
	account.ID = 10
	s.createdAccount = account
	return account.ID, nil
}

func (s *serviceRepoStub) FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	if s.account == nil || s.account.ID != accountID {
		return nil, store.ErrAccountNotFound
	}
	return s.account, nil
}

func (s *serviceRepoStub) FindAccountsByCustomerID(ctx context.Context, customerID int64) ([]domain.Account, error) {
	return s.accounts, nil
}

func (s *serviceRepoStub) FindTransactionsByAccountID(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return s.transactions, nil
}

func (s *serviceRepoStub) Deposit(ctx context.Context, accountID, amount int64) (*domain.Transaction, error) {
	s.depositCalled = true
	s.account.Balance += amount
	return &domain.Transaction{ID: 100, Type: domain.TransactionTypeDeposit, Amount: amount, AccountID: accountID}, nil
}

func (s *serviceRepoStub) Withdraw(ctx context.Context, accountID, amount int64) (*domain.Transaction, error) {
	if s.withdrawErr != nil {
		return nil, s.withdrawErr
	}
	s.withdrawCalled = true
	s.account.Balance -= amount
	return &domain.Transaction{ID: 101, Type: domain.TransactionTypeWithdrawal, Amount: amount, AccountID: accountID}, nil
}

func (s *serviceRepoStub) DeleteAccountCascade(ctx context.Context, accountID int64) error {
	s.deleteCalled = true
	s.deletedAccountID = accountID
	return nil
}

func TestRegisterHashesPasswordAndPublishes(t *testing.T) {
	repo := &serviceRepoStub{}
	events := &publisherStub{}
	service := NewService(repo, events)

	customer, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Alice",
		Email:    "a@x.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if customer.PasswordHash == "password123" {
		t.Fatal("password was stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not verify against the password: %v", err)
	}
	if !events.published(domain.EventCustomerRegistered) {
		t.Fatal("expected customer.registered event")
	}
}

func TestRegisterDuplicateEmailCreatesNothing(t *testing.T) {
	repo := &serviceRepoStub{createCustomerErr: store.ErrDuplicateEmail}
	events := &publisherStub{}
	service := NewService(repo, events)

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Alice",
		Email:    "a@x.com",
		Password: "password123",
	})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(events.routingKeys) != 0 {
		t.Fatal("no event may be published for a rejected registration")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{name: "missing name", req: domain.RegisterRequest{Email: "a@x.com", Password: "password123"}},
		{name: "malformed email", req: domain.RegisterRequest{Name: "Alice", Email: "not-an-email", Password: "password123"}},
		{name: "short password", req: domain.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &serviceRepoStub{}
			service := NewService(repo, nil)
			if _, err := service.Register(context.Background(), tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if repo.createdCustomer != nil {
				t.Fatal("invalid registration must not reach the repository")
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash fixture password: %v", err)
	}
	alice := &domain.Customer{ID: 1, Name: "Alice", Email: "a@x.com", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		service := NewService(&serviceRepoStub{customerByEmail: alice}, nil)
		customer, err := service.Authenticate(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if customer.ID != 1 {
			t.Fatalf("expected customer 1, got %d", customer.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		service := NewService(&serviceRepoStub{customerByEmail: alice}, nil)
		_, err := service.Authenticate(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email reports the same error", func(t *testing.T) {
		service := NewService(&serviceRepoStub{}, nil)
		_, err := service.Authenticate(context.Background(), domain.LoginRequest{Email: "nobody@x.com", Password: "password123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestDepositRequiresOwnership(t *testing.T) {
	repo := &serviceRepoStub{account: &domain.Account{ID: 5, CustomerID: 2, Balance: 0}}
	service := NewService(repo, nil)

	_, err := service.Deposit(context.Background(), 1, 5, 1000)
	if !errors.Is(err, ErrNotAccountOwner) {
		t.Fatalf("expected ErrNotAccountOwner, got %v", err)
	}
	if repo.depositCalled {
		t.Fatal("deposit must not reach the ledger for a foreign account")
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	repo := &serviceRepoStub{account: &domain.Account{ID: 5, CustomerID: 1}}
	service := NewService(repo, nil)

	for _, amount := range []int64{0, -100} {
		if _, err := service.Deposit(context.Background(), 1, 5, amount); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %d, got %v", amount, err)
		}
	}
	if repo.depositCalled {
		t.Fatal("non-positive amounts must not reach the ledger")
	}
}

func TestWithdrawInsufficientFundsSurfaces(t *testing.T) {
	repo := &serviceRepoStub{
		account:     &domain.Account{ID: 5, CustomerID: 1, Balance: 10000},
		withdrawErr: store.ErrInsufficientFunds,
	}
	events := &publisherStub{}
	service := NewService(repo, events)

	_, err := service.Withdraw(context.Background(), 1, 5, 15000)
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(events.routingKeys) != 0 {
		t.Fatal("a rejected withdrawal must not publish an event")
	}
}

func TestLedgerBalanceAccumulates(t *testing.T) {
	account := &domain.Account{ID: 5, CustomerID: 1, Balance: 0}
	repo := &serviceRepoStub{account: account}
	events := &publisherStub{}
	service := NewService(repo, events)

	deposits := []int64{10000, 2500}
	withdrawals := []int64{4000}
	for _, amount := range deposits {
		if _, err := service.Deposit(context.Background(), 1, 5, amount); err != nil {
			t.Fatalf("Deposit returned error: %v", err)
		}
	}
	for _, amount := range withdrawals {
		if _, err := service.Withdraw(context.Background(), 1, 5, amount); err != nil {
			t.Fatalf("Withdraw returned error: %v", err)
		}
	}

	if account.Balance != 8500 {
		t.Fatalf("expected balance 8500, got %d", account.Balance)
	}
	if len(events.routingKeys) != 3 {
		t.Fatalf("expected 3 ledger events, got %d", len(events.routingKeys))
	}
}

func TestDeleteAccountChecksOwnershipAndCascades(t *testing.T) {
	repo := &serviceRepoStub{account: &domain.Account{ID: 5, CustomerID: 1}}
	events := &publisherStub{}
	service := NewService(repo, events)

	if err := service.DeleteAccount(context.Background(), 1, 5); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}
	if !repo.deleteCalled || repo.deletedAccountID != 5 {
		t.Fatal("expected cascade delete of account 5")
	}
	if !events.published(domain.EventAccountDeleted) {
		t.Fatal("expected account.deleted event")
	}

	repo = &serviceRepoStub{account: &domain.Account{ID: 5, CustomerID: 2}}
	service = NewService(repo, nil)
	if err := service.DeleteAccount(context.Background(), 1, 5); !errors.Is(err, ErrNotAccountOwner) {
		t.Fatalf("expected ErrNotAccountOwner, got %v", err)
	}
	if repo.deleteCalled {
		t.Fatal("foreign account must not be deleted")
	}
}

func TestCreateAccountValidatesNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		wantErr bool
	}{
		{name: "plain", number: "ACC1"},
		{name: "with dashes", number: "ACC-22-X"},
		{name: "empty", number: "", wantErr: true},
		{name: "too long", number: "A23456789012345678901", wantErr: true},
		{name: "punctuation", number: "ACC_1!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &serviceRepoStub{}
			service := NewService(repo, nil)
			_, err := service.CreateAccount(context.Background(), 1, domain.CreateAccountRequest{AccountNumber: tt.number})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateAccount returned error: %v", err)
			}
			if repo.createdAccount == nil || repo.createdAccount.CustomerID != 1 {
				t.Fatal("account was not created for the session customer")
			}
		})
	}
}

func TestDashboardAggregatesAccounts(t *testing.T) {
	repo := &serviceRepoStub{
		customerByID: &domain.Customer{ID: 1, Name: "Alice", Email: "a@x.com"},
		accounts: []domain.Account{
			{ID: 5, AccountNumber: "ACC1", Balance: 6000, CustomerID: 1},
		},
		transactions: []domain.Transaction{
			{ID: 100, Type: domain.TransactionTypeDeposit, Amount: 10000, AccountID: 5},
			{ID: 101, Type: domain.TransactionTypeWithdrawal, Amount: 4000, AccountID: 5},
		},
	}
	service := NewService(repo, nil)

	view, err := service.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if view.Customer.Name != "Alice" {
		t.Fatalf("expected customer Alice, got %q", view.Customer.Name)
	}
	if len(view.Accounts) != 1 || len(view.Accounts[0].Transactions) != 2 {
		t.Fatalf("expected 1 account with 2 transactions, got %+v", view.Accounts)
	}
}
