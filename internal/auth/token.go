package auth

import (
	"crypto/hmac"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/serroba/shortlink/internal/clock"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the token payload: who logged in and when.
type Claims struct {
	Username string `json:"username"`
	IssuedAt int64  `json:"iat"`
}

// Valid satisfies jwt.Claims. Age is enforced by Session.Expired.
func (Claims) Valid() error {
	return nil
}

// Session is a verified token.
type Session struct {
	Username string
	IssuedAt time.Time
}

// Expired reports whether the session is older than maxAge. A non-positive
// maxAge never expires.
func (s *Session) Expired(now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && now.Sub(s.IssuedAt) > maxAge
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	clock  clock.Clock
	parser *jwt.Parser
}

// NewSigner creates a Signer for secret.
func NewSigner(secret []byte, clk clock.Clock) *Signer {
	return &Signer{
		secret: secret,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Issue signs a token for username stamped with the current time.
func (s *Signer) Issue(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: username,
		IssuedAt: s.clock.Now().Unix(),
	})

	return token.SignedString(s.secret)
}

// Verify checks the token's shape, algorithm and signature. It does not
// check age.
func (s *Signer) Verify(token string) (*Session, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}

	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	// The decoder tolerates non-canonical trailing bits, so the signature
	// must also match the canonical encoding exactly.
	expected, err := jwt.SigningMethodHS256.Sign(parts[0]+"."+parts[1], s.secret)
	if err != nil || !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrInvalidToken
	}

	if claims.Username == "" {
		return nil, ErrInvalidToken
	}

	return &Session{
		Username: claims.Username,
		IssuedAt: time.Unix(claims.IssuedAt, 0),
	}, nil
}
