package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// Name selects the migration directory.
	Name      string
	goose     goose.Dialect
	builder   sq.StatementBuilderType
	returning bool
}

var dialects = map[string]Dialect{
	"pgx": {
		Driver:    "pgx",
		Name:      "postgres",
		goose:     goose.DialectPostgres,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		returning: true,
	},
	"mysql": {
		Driver:  "mysql",
		Name:    "mysql",
		goose:   goose.DialectMySQL,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	},
	"sqlite": {
		Driver:  "sqlite",
		Name:    "sqlite",
		goose:   goose.DialectSQLite3,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	},
}

// DialectFor returns the dialect of a registered driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// insert runs q and returns the generated id of the new row.
func (d Dialect) insert(ctx context.Context, db DBTX, q sq.InsertBuilder) (int64, error) {
	if d.returning {
		query, args, err := q.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// isUniqueViolation reports whether err is a unique constraint violation
// raised by any of the supported drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}
