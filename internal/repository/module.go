package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/normrepo/nrs-go/internal/model"
)

var moduleColumns = []string{"id", "project_id", "module_id", "name", "visibility", "updated_at"}

// ModuleRepository handles module persistence. Reads and writes are scoped
// to modules of projects owned by the calling user.
type ModuleRepository struct {
	db DBTX
	d  Dialect
}

// Create inserts m and sets its ID and timestamp. A name already used in
// the sibling scope yields ErrDuplicate. The caller checks ownership of
// m.ProjectID and of the parent module first.
func (r *ModuleRepository) Create(ctx context.Context, m *model.Module) error {
	ts := now()
	q := r.d.builder.Insert("modules").
		Columns("project_id", "module_id", "parent_key", "name", "visibility", "updated_at").
		Values(m.ProjectID, m.ParentID, m.ParentKey(), m.Name, m.Visibility, ts)

	id, err := r.d.insert(ctx, r.db, q)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting module: %w", err)
	}

	m.ID = id
	m.UpdatedAt = ts
	return nil
}

// SiblingNames returns the names of the modules sharing projectID and
// parentKey (0 for top level modules), ordered by name.
func (r *ModuleRepository) SiblingNames(ctx context.Context, projectID, parentKey int64) ([]string, error) {
	query, args, err := r.d.builder.Select("name").From("modules").
		Where(sq.Eq{"project_id": projectID, "parent_key": parentKey}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("selecting sibling names: %w", err)
	}
	return names, nil
}

// GetOwned returns module id of projectID when userID owns the project.
func (r *ModuleRepository) GetOwned(ctx context.Context, userID, projectID, id int64) (*model.Module, error) {
	query, args, err := r.d.builder.Select(moduleColumns...).From("modules").
		Where(sq.Eq{"id": id}).
		Where(ownedModule(userID, projectID)).
		ToSql()
	if err != nil {
		return nil, err
	}

	m := &model.Module{}
	if err := r.db.GetContext(ctx, m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting module: %w", err)
	}
	return m, nil
}

// ListOwned returns the modules of projectID, most recently updated first.
// The list is empty when userID does not own the project.
func (r *ModuleRepository) ListOwned(ctx context.Context, userID, projectID int64) ([]model.Module, error) {
	query, args, err := r.d.builder.Select(moduleColumns...).From("modules").
		Where(ownedModule(userID, projectID)).
		OrderBy("updated_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	modules := []model.Module{}
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, fmt.Errorf("selecting modules: %w", err)
	}
	return modules, nil
}

// UpdateOwned writes m's name and visibility.
func (r *ModuleRepository) UpdateOwned(ctx context.Context, userID int64, m *model.Module) error {
	ts := now()
	query, args, err := r.d.builder.Update("modules").
		Set("name", m.Name).
		Set("visibility", m.Visibility).
		Set("updated_at", ts).
		Where(sq.Eq{"id": m.ID}).
		Where(ownedModule(userID, m.ProjectID)).
		ToSql()
	if err != nil {
		return err
	}

	err = rowsAffected(r.db.ExecContext(ctx, query, args...))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	m.UpdatedAt = ts
	return nil
}

// DeleteOwned removes the module together with its descendants.
func (r *ModuleRepository) DeleteOwned(ctx context.Context, userID, projectID, id int64) error {
	query, args, err := r.d.builder.Delete("modules").
		Where(sq.Eq{"id": id}).
		Where(ownedModule(userID, projectID)).
		ToSql()
	if err != nil {
		return err
	}
	return rowsAffected(r.db.ExecContext(ctx, query, args...))
}
