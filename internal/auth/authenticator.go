package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/serroba/shortlink/internal/clock"
)

const (
	// DefaultMaxAge is how long a session token is honoured after issue.
	DefaultMaxAge = 24 * time.Hour
	// CookieName is the cookie carrying the session token.
	CookieName = "token"
)

var (
	// ErrInvalidCredentials is returned by Login for a wrong username or
	// password, and always when no admin password is configured.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrExpiredToken is returned for a well-signed token past its max age.
	ErrExpiredToken = errors.New("session token expired")
)

// Credentials is the single admin account.
type Credentials struct {
	Username string
	Password string
}

// Authenticator checks admin logins, session tokens and the API key.
type Authenticator struct {
	signer *Signer
	admin  Credentials
	apiKey string
	maxAge time.Duration
	clock  clock.Clock
}

// NewAuthenticator creates an Authenticator. An empty apiKey disables API
// key access; an empty admin password disables login.
func NewAuthenticator(signer *Signer, admin Credentials, apiKey string, maxAge time.Duration, clk clock.Clock) *Authenticator {
	return &Authenticator{
		signer: signer,
		admin:  admin,
		apiKey: apiKey,
		maxAge: maxAge,
		clock:  clk,
	}
}

// MaxAge is the session lifetime, also used as the cookie Max-Age.
func (a *Authenticator) MaxAge() time.Duration {
	return a.maxAge
}

// Login returns a fresh session token for valid admin credentials.
func (a *Authenticator) Login(username, password string) (string, error) {
	if a.admin.Password == "" {
		return "", ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.admin.Password)) == 1

	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	return a.signer.Issue(username)
}

// SessionFromToken verifies token and enforces the max age.
func (a *Authenticator) SessionFromToken(token string) (*Session, error) {
	session, err := a.signer.Verify(token)
	if err != nil {
		return nil, err
	}

	if session.Expired(a.clock.Now(), a.maxAge) {
		return nil, ErrExpiredToken
	}

	return session, nil
}

// ValidAPIKey reports whether key matches the configured API key.
func (a *Authenticator) ValidAPIKey(key string) bool {
	if a.apiKey == "" || key == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1
}

// APIKeyFromHeaders picks the presented API key: X-API-Key wins over an
// Authorization bearer value.
func APIKeyFromHeaders(apiKeyHeader, authorization string) string {
	if apiKeyHeader != "" {
		return apiKeyHeader
	}

	return strings.TrimPrefix(authorization, "Bearer ")
}
