package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/minibank/banking-service/internal/app"
	"github.com/minibank/banking-service/internal/domain"
	"github.com/minibank/banking-service/internal/store"
)

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError renders a user-facing error message as JSON.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service and store errors onto the HTTP taxonomy:
// validation 400, conflicts 409, bad credentials 401, unknown/not-owned 404,
// insufficient funds 422, everything else a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateEmail), errors.Is(err, store.ErrDuplicateAccountNumber):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrCustomerNotFound),
		errors.Is(err, app.ErrNotAccountOwner):
		// Accounts owned by others are reported exactly like unknown ids.
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, store.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient funds")
	default:
		log.Printf("Unhandled service error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
