package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/avetra/sales-api/internal/query"
)

// CreateInput holds everything needed to register an account. An empty Role
// defaults to customer.
type CreateInput struct {
	Email    string
	Username string
	Password string
	Name     Name
	Address  *Address
	Phone    string
	Role     string
}

// UpdateInput replaces an account's mutable fields. An empty Password keeps
// the current hash; empty Status and Role keep the current values.
type UpdateInput struct {
	Email    string
	Username string
	Password string
	Name     Name
	Address  *Address
	Phone    string
	Status   string
	Role     string
}

// Service implements the account use cases: each write is a synchronous
// load-mutate-replace unit of work against the repository.
type Service struct {
	users Repository
}

// NewService creates a user Service.
func NewService(users Repository) *Service {
	return &Service{users: users}
}

func validateIdentity(email, username string) error {
	if email == "" || !strings.Contains(email, "@") {
		return &InvalidArgumentError{Reason: "a valid email is required"}
	}
	if username == "" {
		return &InvalidArgumentError{Reason: "username is required"}
	}
	return nil
}

func parseOptionalRole(raw string) (Role, error) {
	if raw == "" {
		return "", nil
	}
	role, ok := ParseRole(raw)
	if !ok {
		return "", &InvalidArgumentError{Reason: "unknown role " + raw}
	}
	return role, nil
}

// Create validates the input and persists a new active account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := validateIdentity(in.Email, in.Username); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, &InvalidArgumentError{Reason: "password is required"}
	}
	role, err := parseOptionalRole(in.Role)
	if err != nil {
		return nil, err
	}

	u := New(in.Email, in.Username, HashPassword(in.Password), in.Name)
	u.Address = in.Address
	u.Phone = in.Phone
	if role != "" {
		u.Role = role
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Get loads one account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// List compiles the filter parameters and returns one page of accounts.
func (s *Service) List(ctx context.Context, params FilterParams, req query.PageRequest) (query.PageResult[User], error) {
	return s.users.GetPage(ctx, params.Filter(), req)
}

// Update replaces an account's mutable fields, keeping its identity and
// creation time. The input is validated before the account is touched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	if err := validateIdentity(in.Email, in.Username); err != nil {
		return nil, err
	}
	role, err := parseOptionalRole(in.Role)
	if err != nil {
		return nil, err
	}
	status := Status("")
	if in.Status != "" {
		parsed, ok := ParseStatus(in.Status)
		if !ok {
			return nil, &InvalidArgumentError{Reason: "unknown status " + in.Status}
		}
		status = parsed
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Email = in.Email
	u.Username = in.Username
	u.Name = in.Name
	u.Address = in.Address
	u.Phone = in.Phone
	if in.Password != "" {
		u.PasswordHash = HashPassword(in.Password)
	}
	if status != "" {
		u.Status = status
	}
	if role != "" {
		u.Role = role
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.users.Replace(ctx, u); err != nil {
		return nil, errors.Wrap(err, "replace user")
	}
	return u, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
