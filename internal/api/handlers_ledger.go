/**
 * @description
 * This file defines the HTTP handlers for the session-guarded dashboard and
 * ledger routes: account creation, deposit, withdrawal, and account deletion.
 * Amount fields arrive as decimal strings and go through an explicit
 * parse-and-validate step before any business logic runs.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: URL parameter handling.
 * - internal/app, internal/domain: Business logic and models.
 * - pkg/middleware: Session customer id extraction.
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/minibank/banking-service/internal/app"
	"github.com/minibank/banking-service/internal/domain"
	"github.com/minibank/banking-service/pkg/middleware"
)

// LedgerHandler holds the dependencies for the dashboard and ledger handlers.
type LedgerHandler struct {
	service *app.Service
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(service *app.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// accountIDParam parses the {accountID} URL parameter. Non-numeric ids get the
// same 404 as unknown ones.
func accountIDParam(r *http.Request) (int64, bool) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil || accountID <= 0 {
		return 0, false
	}
	return accountID, true
}

// amountField extracts the "amount" field from a form or JSON body and parses
// it into cents.
func amountField(r *http.Request) (int64, error) {
	raw := ""
	if isJSONRequest(r) {
		var body struct {
			Amount string `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return 0, domain.ErrInvalidAmount
		}
		raw = body.Amount
	} else {
		if err := r.ParseForm(); err != nil {
			return 0, domain.ErrInvalidAmount
		}
		raw = r.FormValue("amount")
	}
	return domain.ParseAmount(raw)
}

// Dashboard shows the session customer with their accounts and transactions.
func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.CustomerIDFromContext(r.Context())
	view, err := h.service.Dashboard(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateAccount opens a new zero-balance account for the session customer.
func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.CustomerIDFromContext(r.Context())

	var req domain.CreateAccountRequest
	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		req = domain.CreateAccountRequest{AccountNumber: r.FormValue("account_number")}
	}

	if _, err := h.service.CreateAccount(r.Context(), customerID, req); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Deposit applies a deposit to one of the session customer's accounts.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyLedgerOp(w, r, h.service.Deposit)
}

// Withdraw applies a withdrawal to one of the session customer's accounts.
// Insufficient funds are rejected with an explicit 422, never silently.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyLedgerOp(w, r, h.service.Withdraw)
}

func (h *LedgerHandler) applyLedgerOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, customerID, accountID, amount int64) (*domain.Transaction, error)) {
	customerID := middleware.CustomerIDFromContext(r.Context())
	accountID, ok := accountIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	amount, err := amountField(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if _, err := op(r.Context(), customerID, accountID, amount); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// DeleteAccount removes one of the session customer's accounts along with its
// transactions.
func (h *LedgerHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.CustomerIDFromContext(r.Context())
	accountID, ok := accountIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), customerID, accountID); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// DeleteAccountLegacyGet rejects the retired destructive GET route.
func (h *LedgerHandler) DeleteAccountLegacyGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST")
	writeError(w, http.StatusMethodNotAllowed, "account deletion requires POST /delete_account/{id}")
}
