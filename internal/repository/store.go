package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

//go:embed migrations
var migrations embed.FS

// DBTX is the subset of sqlx used by the repositories.
// Both *sqlx.DB and *sqlx.Tx satisfy this interface.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Repos groups the repositories bound to one DBTX.
type Repos struct {
	Users    *UserRepository
	Projects *ProjectRepository
	Modules  *ModuleRepository
}

// Store owns the connection pool.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewStore wraps db; the dialect is picked from the driver db was opened with.
func NewStore(db *sqlx.DB) (*Store, error) {
	d, err := DialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Repos returns repositories running directly on the pool.
func (s *Store) Repos() Repos {
	return s.bind(s.db)
}

func (s *Store) bind(db DBTX) Repos {
	return Repos{
		Users:    &UserRepository{db: db, d: s.dialect},
		Projects: &ProjectRepository{db: db, d: s.dialect},
		Modules:  &ModuleRepository{db: db, d: s.dialect},
	}
}

// WithTx runs fn with repositories bound to a new transaction, committing
// when fn returns nil and rolling back otherwise. Panics roll back and are
// rethrown. fn must not use repositories obtained from s.Repos: with SQLite
// the pool has a single connection.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, s.bind(tx))
	return err
}

// Migrate applies every pending migration of the store's dialect.
func (s *Store) Migrate(ctx context.Context) ([]*goose.MigrationResult, error) {
	fsys, err := fs.Sub(migrations, "migrations/"+s.dialect.Name)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(s.dialect.goose, s.db.DB, fsys)
	if err != nil {
		return nil, fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("applying migrations: %w", err)
	}
	return results, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// now is the timestamp written into created_at / updated_at columns.
// Microseconds are the finest precision every dialect stores.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// rowsAffected turns an UPDATE/DELETE that matched nothing into ErrNotFound.
func rowsAffected(result sql.Result, err error) error {
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
