package repository_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/repository"
)

func newMockStore(t *testing.T, driver string) (*repository.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := repository.NewStore(sqlx.NewDb(db, driver))
	require.NoError(t, err)
	return store, mock
}

func TestProjectGetOwned_FiltersOnOwner(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_id, name, target, description, created_at, updated_at FROM projects WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(5), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "target", "description", "created_at", "updated_at"}))

	_, err := store.Repos().Projects.GetOwned(context.Background(), 9, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectUpdateOwned_NoMatchIsNotFound(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE projects SET name = $1, description = $2, updated_at = $3 WHERE id = $4 AND user_id = $5")).
		WithArgs("renamed", "", sqlmock.AnyArg(), int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Repos().Projects.UpdateOwned(context.Background(), &model.Project{ID: 5, UserID: 9, Name: "renamed"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleDeleteOwned_ScopesToOwnedProject(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM modules WHERE id = $1 AND (project_id = $2 AND project_id IN (SELECT id FROM projects WHERE user_id = $3))")).
		WithArgs(int64(11), int64(4), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Repos().Modules.DeleteOwned(context.Background(), 9, 4, 11)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleListOwned_ScopesToOwnedProject(t *testing.T) {
	store, mock := newMockStore(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, project_id, module_id, name, visibility, updated_at FROM modules "+
			"WHERE (project_id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)) "+
			"ORDER BY updated_at DESC, id DESC")).
		WithArgs(int64(4), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "module_id", "name", "visibility", "updated_at"}))

	modules, err := store.Repos().Modules.ListOwned(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.Empty(t, modules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_PostgresUsesReturning(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO users (login,full_name,email,password,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id")).
		WithArgs("ann", "Ann Lee", "ann@example.com", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	user := &model.User{Login: "ann", FullName: "Ann Lee", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, store.Repos().Users.Create(context.Background(), user))
	assert.Equal(t, int64(17), user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_PostgresDuplicate(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.Repos().Users.Create(context.Background(), &model.User{Login: "ann"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestModuleCreate_MySQLUsesLastInsertID(t *testing.T) {
	store, mock := newMockStore(t, "mysql")

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO modules (project_id,module_id,parent_key,name,visibility,updated_at) VALUES (?,?,?,?,?,?)")).
		WithArgs(int64(4), nil, int64(0), "Module.001", int16(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(23, 1))

	m := &model.Module{ProjectID: 4, Name: "Module.001", Visibility: 1}
	require.NoError(t, store.Repos().Modules.Create(context.Background(), m))
	assert.Equal(t, int64(23), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleCreate_MySQLDuplicate(t *testing.T) {
	store, mock := newMockStore(t, "mysql")

	mock.ExpectExec("INSERT INTO modules").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.Repos().Modules.Create(context.Background(), &model.Module{ProjectID: 4, Name: "Module.001"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(ctx context.Context, r repository.Repos) error {
		return r.Users.Delete(ctx, 1)
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_Commits(t *testing.T) {
	store, mock := newMockStore(t, "pgx")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context, r repository.Repos) error {
		return r.Users.Delete(ctx, 1)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
