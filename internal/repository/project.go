package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/normrepo/nrs-go/internal/model"
)

var projectColumns = []string{"id", "user_id", "name", "target", "description", "created_at", "updated_at"}

// ProjectRepository handles project persistence. Apart from Create, every
// method is scoped to the owning user.
type ProjectRepository struct {
	db DBTX
	d  Dialect
}

// Create inserts p for p.UserID and sets its ID and timestamps.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	ts := now()
	q := r.d.builder.Insert("projects").
		Columns("user_id", "name", "target", "description", "created_at", "updated_at").
		Values(p.UserID, p.Name, p.Target, p.Description, ts, ts)

	id, err := r.d.insert(ctx, r.db, q)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	p.ID = id
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

// GetOwned returns the project with the given id if userID owns it.
func (r *ProjectRepository) GetOwned(ctx context.Context, userID, id int64) (*model.Project, error) {
	query, args, err := r.d.builder.Select(projectColumns...).From("projects").
		Where(sq.Eq{"id": id}).
		Where(ownedProject(userID)).
		ToSql()
	if err != nil {
		return nil, err
	}

	p := &model.Project{}
	if err := r.db.GetContext(ctx, p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting project: %w", err)
	}
	return p, nil
}

// ListOwned returns the user's projects, most recently updated first.
func (r *ProjectRepository) ListOwned(ctx context.Context, userID int64) ([]model.Project, error) {
	query, args, err := r.d.builder.Select(projectColumns...).From("projects").
		Where(ownedProject(userID)).
		OrderBy("updated_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	projects := []model.Project{}
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("selecting projects: %w", err)
	}
	return projects, nil
}

// UpdateOwned writes p's name and description. The owner is part of the
// filter only; it is never written.
func (r *ProjectRepository) UpdateOwned(ctx context.Context, p *model.Project) error {
	ts := now()
	query, args, err := r.d.builder.Update("projects").
		Set("name", p.Name).
		Set("description", p.Description).
		Set("updated_at", ts).
		Where(sq.Eq{"id": p.ID}).
		Where(ownedProject(p.UserID)).
		ToSql()
	if err != nil {
		return err
	}

	if err := rowsAffected(r.db.ExecContext(ctx, query, args...)); err != nil {
		return err
	}
	p.UpdatedAt = ts
	return nil
}

// DeleteOwned removes the project and, by cascade, its modules.
func (r *ProjectRepository) DeleteOwned(ctx context.Context, userID, id int64) error {
	query, args, err := r.d.builder.Delete("projects").
		Where(sq.Eq{"id": id}).
		Where(ownedProject(userID)).
		ToSql()
	if err != nil {
		return err
	}
	return rowsAffected(r.db.ExecContext(ctx, query, args...))
}
