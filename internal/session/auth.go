package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"qahwa/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Header names used to identify the caller.
const (
	HeaderAuthorization = "Authorization"
	HeaderGuestID       = "X-Guest-ID"
)

var (
	// ErrNoCredentials means the request carried neither a token nor a guest id.
	ErrNoCredentials = errors.New("no session credentials")
	// ErrInvalidToken means the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidGuestID means the guest id header is malformed.
	ErrInvalidGuestID = errors.New("invalid guest id")
)

// Authenticator verifies HS256 bearer tokens issued by the identity provider.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an authenticator from the auth configuration.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

// Verify parses token and returns the user id held in its subject.
func (a *Authenticator) Verify(token string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return userID, nil
}

// Issue signs a token for userID valid for ttl.
func (a *Authenticator) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// FromRequest resolves the session of r. A bearer token takes precedence over
// the guest id header.
func (a *Authenticator) FromRequest(r *http.Request) (Session, error) {
	if header := r.Header.Get(HeaderAuthorization); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return Session{}, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
		}
		userID, err := a.Verify(token)
		if err != nil {
			return Session{}, err
		}
		return ForUser(userID), nil
	}

	guestID := r.Header.Get(HeaderGuestID)
	if guestID == "" {
		return Session{}, ErrNoCredentials
	}
	if !ValidGuestID(guestID) {
		return Session{}, ErrInvalidGuestID
	}
	return ForGuest(guestID), nil
}
