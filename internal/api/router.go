/**
 * @description
 * This file sets up the HTTP router for the banking-service using the `chi`
 * routing library. It defines the public auth routes, the session-guarded
 * dashboard and ledger routes, and applies the standard middleware stack.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/minibank/banking-service/internal/app"
	"github.com/minibank/banking-service/pkg/middleware"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(service *app.Service, sessions *middleware.SessionManager, loginLimiter *app.LoginRateLimiter, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	authHandler := NewAuthHandler(service, sessions, loginLimiter)
	ledgerHandler := NewLedgerHandler(service)

	// Public routes.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	r.Get("/register", authHandler.ShowRegisterForm)
	r.Post("/register", authHandler.Register)
	r.Get("/login", authHandler.ShowLoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	// Session-guarded routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions))

		r.Get("/dashboard", ledgerHandler.Dashboard)
		r.Post("/create_account", ledgerHandler.CreateAccount)
		r.Post("/deposit/{accountID}", ledgerHandler.Deposit)
		r.Post("/withdraw/{accountID}", ledgerHandler.Withdraw)
		r.Post("/delete_account/{accountID}", ledgerHandler.DeleteAccount)
		// The legacy GET delete route is destructive and intentionally retired.
		r.Get("/delete_account/{accountID}", ledgerHandler.DeleteAccountLegacyGet)
	})

	return r
}
