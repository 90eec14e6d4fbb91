// Package session identifies who a request acts for: an authenticated user or
// an anonymous guest browser.
package session

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// Session is the caller of a request. Exactly one of UserID and GuestID is set.
type Session struct {
	UserID  *uuid.UUID
	GuestID string
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.UserID != nil
}

// Subject returns a stable key for the cart owner.
func (s Session) Subject() string {
	if s.UserID != nil {
		return "user:" + s.UserID.String()
	}
	return "guest:" + s.GuestID
}

// ForUser returns an authenticated session.
func ForUser(id uuid.UUID) Session {
	return Session{UserID: &id}
}

// ForGuest returns a guest session.
func ForGuest(guestID string) Session {
	return Session{GuestID: guestID}
}

var guestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidGuestID reports whether id is usable as a guest identifier.
func ValidGuestID(id string) bool {
	return guestIDPattern.MatchString(id)
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
