/**
 * @description
 * This file defines the HTTP handlers for registration, login, and logout.
 * POST bodies are accepted either as classic form submissions (the field names
 * match the original HTML forms: name, email, password) or as JSON, and
 * successful flows answer with the redirects the browser expects.
 *
 * @dependencies
 * - internal/app: The business logic layer.
 * - pkg/middleware: Session issuance.
 */

package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/minibank/banking-service/internal/app"
	"github.com/minibank/banking-service/internal/domain"
	"github.com/minibank/banking-service/pkg/middleware"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	service      *app.Service
	sessions     *middleware.SessionManager
	loginLimiter *app.LoginRateLimiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *app.Service, sessions *middleware.SessionManager, loginLimiter *app.LoginRateLimiter) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions, loginLimiter: loginLimiter}
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// The register and login pages are deliberately plain: no template engine,
// just enough markup for a browser to drive the flows.
const registerFormHTML = `<!DOCTYPE html>
<html><body>
<h1>Register</h1>
<form method="POST" action="/register">
<input name="name" placeholder="Name" required>
<input name="email" type="email" placeholder="Email" required>
<input name="password" type="password" placeholder="Password" required>
<button type="submit">Register</button>
</form>
<a href="/login">Log in</a>
</body></html>`

const loginFormHTML = `<!DOCTYPE html>
<html><body>
<h1>Login</h1>
<form method="POST" action="/login">
<input name="email" type="email" placeholder="Email" required>
<input name="password" type="password" placeholder="Password" required>
<button type="submit">Log in</button>
</form>
<a href="/register">Register</a>
</body></html>`

// ShowRegisterForm serves the registration form.
func (h *AuthHandler) ShowRegisterForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, registerFormHTML)
}

// ShowLoginForm serves the login form.
func (h *AuthHandler) ShowLoginForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, loginFormHTML)
}

// Register creates a new customer and redirects to the login page.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
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
		req = domain.RegisterRequest{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
	}

	if _, err := h.service.Register(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Login authenticates a customer, sets the session cookie, and redirects to
// the dashboard.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
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
		req = domain.LoginRequest{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
	}

	allowed, retryAfter, err := h.loginLimiter.Allow(r.Context(), req.Email, r.RemoteAddr)
	if err != nil {
		log.Printf("WARN: login rate limiter unavailable: %v", err)
	}
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	customer, err := h.service.Authenticate(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.sessions.Issue(customer.ID)
	if err != nil {
		log.Printf("Failed to issue session token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.sessions.SetSessionCookie(w, token)

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout clears the session unconditionally and redirects to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
