// Package profile is the credential, profile and karma backend.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("too many sign-in attempts")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrInvalidInput       = errors.New("invalid profile input")
)

// User is a profile record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Pronouns     string    `json:"pronouns,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	ImagePath    string    `json:"image_path,omitempty"`
	Karma        int       `json:"karma"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SignUpRequest carries the fields needed to register.
type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Pronouns  string
}

// Update holds the editable profile fields. Nil fields are left unchanged.
type Update struct {
	FirstName *string
	LastName  *string
	Pronouns  *string
	Phone     *string
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	IncrementKarma(ctx context.Context, id string, amount int) (int, error)
}

// Backend is the collaborator the claim pipeline and the API talk to.
// Errors are returned as is; callers do not retry.
type Backend interface {
	SignUp(ctx context.Context, req SignUpRequest) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	GetProfile(ctx context.Context, userID string) (User, error)
	UpdateProfile(ctx context.Context, userID string, upd Update, image []byte) (User, error)
	GetKarmaScore(ctx context.Context, userID string) (int, error)
	IncrementKarma(ctx context.Context, userID string, amount int) (int, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
