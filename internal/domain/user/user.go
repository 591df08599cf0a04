// Package user contains the account entity and its search filter.
package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/avetra/sales-api/internal/query"
)

// ErrNotFound is returned when a user id resolves to nothing.
var ErrNotFound = errors.New("user not found")

// ErrVersionConflict is returned when a replace loses a race against a
// concurrent writer.
var ErrVersionConflict = errors.New("user was modified concurrently")

// InvalidArgumentError indicates malformed or out-of-range account input.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// Status enumerates account states.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Role enumerates account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusActive, StatusInactive, StatusSuspended} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{RoleCustomer, RoleManager, RoleAdmin} {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

// Name is a person's given and family name.
type Name struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins the name parts.
func (n Name) FullName() string {
	return strings.TrimSpace(n.FirstName + " " + n.LastName)
}

// Address is a user's postal address.
type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Number  int    `json:"number"`
	ZipCode string `json:"zipCode"`
}

// User is an account document.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         Name      `json:"name"`
	Address      *Address  `json:"address,omitempty"`
	Phone        string    `json:"phone"`
	Status       Status    `json:"status"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Version int64 `json:"-"`
}

// New creates an active customer account.
func New(email, username, passwordHash string, name Name) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Name:         name,
		Status:       StatusActive,
		Role:         RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HashPassword returns the stored form of a password: the hex-encoded SHA-256
// digest.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CanLogin reports whether the account may authenticate.
func (u *User) CanLogin() bool {
	return u.Status == StatusActive
}

// Suspend moves the account to the suspended state.
func (u *User) Suspend() {
	u.Status = StatusSuspended
	u.UpdatedAt = time.Now().UTC()
}

// Repository defines the persistence contract for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Replace(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountFiltered(ctx context.Context, f query.Filter) (int64, error)
	GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[User], error)
}
