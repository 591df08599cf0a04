package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avetra/sales-api/internal/domain/user"
	"github.com/avetra/sales-api/internal/query"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by the users document
// table.
type UserRepository struct {
	col *Collection[user.User]
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		col: NewCollection[user.User](pool, CollectionConfig{
			Table: "users",
			Fields: map[string]FieldKind{
				"email":          KindText,
				"username":       KindText,
				"status":         KindText,
				"role":           KindText,
				"name.firstName": KindText,
				"name.lastName":  KindText,
				"address.city":   KindText,
				"createdAt":      KindTimestamp,
			},
			Sortable:    user.SortableField,
			DefaultSort: user.DefaultSort,
		}),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if err := r.col.Create(ctx, u.ID, u); err != nil {
		return errors.Wrapf(err, "creating user %q", u.ID)
	}
	u.Version = 1
	return nil
}

// Upsert inserts or overwrites a user. Used by the seed tool.
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	if err := r.col.Upsert(ctx, u.ID, u); err != nil {
		return errors.Wrapf(err, "upserting user %q", u.ID)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, version, err := r.col.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting user %q", id)
	}
	u.Version = version
	return u, nil
}

func (r *UserRepository) Replace(ctx context.Context, u *user.User) error {
	version, err := r.col.Replace(ctx, u.ID, u.Version, u)
	if err != nil {
		switch {
		case errors.Is(err, errNoDocument):
			return user.ErrNotFound
		case errors.Is(err, errConflict):
			return user.ErrVersionConflict
		}
		return errors.Wrapf(err, "replacing user %q", u.ID)
	}
	u.Version = version
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.col.Delete(ctx, id)
}

func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	return r.col.CountAll(ctx)
}

func (r *UserRepository) CountFiltered(ctx context.Context, f query.Filter) (int64, error) {
	return r.col.Count(ctx, f)
}

func (r *UserRepository) GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[user.User], error) {
	req = req.Normalize()
	items, total, err := r.col.GetPage(ctx, f, req)
	if err != nil {
		return query.PageResult[user.User]{}, errors.Wrap(err, "getting users page")
	}
	return query.NewPageResult(items, total, req.Page, req.Size), nil
}
