/**
 * @description
 * This package provides the session layer for the HTTP server. A successful
 * login issues a signed JWT (HS256) carried in an HttpOnly cookie; the
 * middleware verifies it on guarded routes and injects the customer id into
 * the request context. A missing or invalid session redirects the browser to
 * /login rather than erroring.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: Token signing and verification.
 * - github.com/google/uuid: Unique token ids (jti claim).
 */

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "bank_session"

// SessionContextKey is a custom type for the context key to avoid collisions.
type SessionContextKey string

// CustomerIDKey is the key used to store the customer's id in the request context.
const CustomerIDKey SessionContextKey = "customerID"

// ErrInvalidSession is returned when a session token fails verification.
var ErrInvalidSession = errors.New("invalid session token")

// SessionManager issues and verifies session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a SessionManager with the given signing secret and
// token lifetime.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a new session token scoped to one customer id.
func (m *SessionManager) Issue(customerID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(customerID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a session token and returns the customer id it is scoped to.
func (m *SessionManager) Verify(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidSession
	}
	customerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || customerID <= 0 {
		return 0, ErrInvalidSession
	}
	return customerID, nil
}

// SetSessionCookie attaches a freshly issued session token to the response.
func (m *SessionManager) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie unconditionally.
func (m *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireSession guards a route: requests without a valid session cookie are
// redirected to /login with 303 See Other.
func RequireSession(m *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			customerID, err := m.Verify(cookie.Value)
			if err != nil {
				// Stale or tampered cookie: drop it before bouncing to login.
				m.ClearSessionCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), CustomerIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CustomerIDFromContext retrieves the customer id from the request context.
// It returns zero if no session was attached.
func CustomerIDFromContext(ctx context.Context) int64 {
	customerID, ok := ctx.Value(CustomerIDKey).(int64)
	if !ok {
		return 0
	}
	return customerID
}
