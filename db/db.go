package db

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	// goqu dialects for each supported driver
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	// database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
	MySQL    = "mysql"
)

// ErrUnknownDriver is returned for any driver that is not
// postgres, sqlite3 or mysql.
var ErrUnknownDriver = errors.New("unknown database driver")

// Open will connect to the database and make sure it
// is reachable before returning.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if !Supported(driver) {
		return nil, errors.Wrap(ErrUnknownDriver, driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", driver)
	}
	if driver == SQLite {
		// sqlite only allows one writer, the api never writes
		// but the loader does.
		db.SetMaxOpenConns(4)
	}
	return db, nil
}

// Supported returns true if the driver is one that
// the api knows how to query.
func Supported(driver string) bool {
	switch driver {
	case Postgres, SQLite, MySQL:
		return true
	}
	return false
}

// Dialect returns the goqu sql dialect for a driver name.
func Dialect(driver string) goqu.DialectWrapper {
	return goqu.Dialect(driver)
}
