package store

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/models"
)

// Repository is read-only access to banks and branches.
type Repository interface {
	// Banks returns a page of banks ordered by id.
	Banks(ctx context.Context, p PageParams) ([]*models.Bank, error)
	// Branches returns a page of branches ordered by ifsc.
	Branches(ctx context.Context, p PageParams) ([]*models.Branch, error)
	// BranchByIFSC returns nil and no error when there is
	// no branch with that code.
	BranchByIFSC(ctx context.Context, ifsc string) (*models.Branch, error)
	// BranchesByBankName returns the branches of the bank with the
	// lowest id having exactly that name. If no bank has the name
	// the result is empty.
	BranchesByBankName(ctx context.Context, name string) ([]*models.Branch, error)
	BranchesByBank(ctx context.Context, bankID int64, p PageParams) ([]*models.Branch, error)
	BankByID(ctx context.Context, id int64) (*models.Bank, error)
	BanksByIDs(ctx context.Context, ids []int64) (map[int64]*models.Bank, error)

	CountBanks(ctx context.Context) (int64, error)
	CountBranches(ctx context.Context) (int64, error)
	CountBranchesByBank(ctx context.Context, bankID int64) (int64, error)
}

// Store owns the database connection pool.
type Store struct {
	reader
	db     *sqlx.DB
	driver string
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*Tx)(nil)
)

// New creates a new Store from a connection using
// the sql dialect for driver.
func New(db *sqlx.DB, driver string) *Store {
	return &Store{
		reader: reader{q: db, dialect: apidb.Dialect(driver)},
		db:     db,
		driver: driver,
	}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sqlx.DB { return s.db }

// Driver returns the database driver name.
func (s *Store) Driver() string { return s.driver }

// Dialect returns the goqu dialect of the store.
func (s *Store) Dialect() goqu.DialectWrapper { return s.dialect }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin acquires a request scoped handle. Every query made with the
// returned Tx sees the same snapshot of the data. The handle must
// always be released with Close.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	var opts *sql.TxOptions
	switch s.driver {
	case apidb.Postgres, apidb.MySQL:
		opts = &sql.TxOptions{ReadOnly: true}
	}
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "could not acquire database handle")
	}
	return &Tx{
		reader: reader{q: tx, dialect: s.dialect},
		tx:     tx,
	}, nil
}

// Tx is a read-only Repository bound to one transaction.
type Tx struct {
	reader
	tx *sqlx.Tx
}

// Close releases the handle. It is safe to call more than once.
func (t *Tx) Close() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}
