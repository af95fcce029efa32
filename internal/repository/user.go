package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/normrepo/nrs-go/internal/model"
)

var userColumns = []string{"id", "login", "full_name", "email", "password", "created_at", "updated_at"}

// UserRepository handles user persistence operations.
type UserRepository struct {
	db DBTX
	d  Dialect
}

// Create inserts a new user and sets the generated ID and timestamps on it.
// A taken login or email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ts := now()
	q := r.d.builder.Insert("users").
		Columns("login", "full_name", "email", "password", "created_at", "updated_at").
		Values(user.Login, user.FullName, user.Email, user.Password, ts, ts)

	id, err := r.d.insert(ctx, r.db, q)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, sq.Eq{"email": email})
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) get(ctx context.Context, where sq.Sqlizer) (*model.User, error) {
	query, args, err := r.d.builder.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	user := &model.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the user's full name.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fullName string) error {
	return r.update(ctx, id, sq.Eq{"full_name": fullName})
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, sq.Eq{"password": passwordHash})
}

func (r *UserRepository) update(ctx context.Context, id int64, set sq.Eq) error {
	set["updated_at"] = now()
	query, args, err := r.d.builder.Update("users").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	return rowsAffected(r.db.ExecContext(ctx, query, args...))
}

// Delete removes the user; projects and modules go with it through
// ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.d.builder.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	return rowsAffected(r.db.ExecContext(ctx, query, args...))
}
