package model

import (
	"strings"
	"time"

	"course-access-platform/internal/domain"

	"github.com/google/uuid"
)

// User is the locally stored identity for someone who signed in through the
// external identity provider.
type User struct {
	ID                string
	ProviderID        string
	Email             string
	Name              string
	IsAdmin           bool
	IsProfileComplete bool
	CreatedAt         time.Time
	LastLoginAt       time.Time
}

// Identity is what the identity provider vouches for after its handshake.
type Identity struct {
	ProviderID string
	Email      string
	Name       string
}

func NewUser(id string, ident Identity, now time.Time) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email := NormalizeEmail(ident.Email)
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:          id,
		ProviderID:  ident.ProviderID,
		Email:       email,
		Name:        strings.TrimSpace(ident.Name),
		CreatedAt:   now,
		LastLoginAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
