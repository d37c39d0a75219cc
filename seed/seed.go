// Package seed provisions the banks and branches tables from
// a bulk dataset.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"reflect"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/models"
)

// DefaultBatchSize is the number of rows per insert statement.
const DefaultBatchSize = 500

// Options control how a dataset is loaded.
type Options struct {
	BatchSize int
	// Force loading into tables that already have data.
	Force bool
	// Out receives progress output, nil is quiet.
	Out io.Writer
}

// Stats is a summary of a load.
type Stats struct {
	Banks    int
	Branches int
	Skipped  bool
}

func (s *Stats) String() string {
	if s.Skipped {
		return "database already populated, nothing loaded"
	}
	return fmt.Sprintf("%d banks, %d branches loaded", s.Banks, s.Branches)
}

// Load creates the tables and populates them from a csv seed. Loading
// is skipped if the banks table is not empty unless opts.Force is set.
func Load(ctx context.Context, db *sqlx.DB, driver string, r io.Reader, opts Options) (*Stats, error) {
	if err := apidb.CreateTables(ctx, db, driver); err != nil {
		return nil, err
	}
	empty, err := Empty(ctx, db, driver)
	if err != nil {
		return nil, err
	}
	if !empty && !opts.Force {
		return &Stats{Skipped: true}, nil
	}
	data, err := ReadCSV(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse seed")
	}
	if err = Insert(ctx, db, driver, data, opts); err != nil {
		return nil, err
	}
	return &Stats{Banks: len(data.Banks), Branches: len(data.Branches)}, nil
}

// Empty returns true when there are no banks stored.
func Empty(ctx context.Context, db *sqlx.DB, driver string) (bool, error) {
	var n int64
	query, args, err := apidb.Dialect(driver).
		From(models.BankTable).
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return false, err
	}
	if err = db.GetContext(ctx, &n, query, args...); err != nil {
		return false, errors.Wrap(err, "could not count banks")
	}
	return n == 0, nil
}

// Insert writes the dataset in one transaction. Banks go first
// because branches reference them by foreign key, readers never
// see a branch without its bank.
func Insert(ctx context.Context, db *sqlx.DB, driver string, data *Dataset, opts Options) (err error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if err = orphans(data); err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var (
		d = apidb.Dialect(driver)
		t = time.Now()
	)
	progress(opts.Out, "[%s] ", t.Format(time.Stamp))
	progress(opts.Out, "banks:")
	if err = insertRows(ctx, tx, d, models.BankTable, interfaceSlice(data.Banks), opts.BatchSize); err != nil {
		return errors.Wrap(err, "insert banks failed")
	}
	progress(opts.Out, "%v ok|branches:", time.Since(t))
	t = time.Now()
	if err = insertRows(ctx, tx, d, models.BranchTable, interfaceSlice(data.Branches), opts.BatchSize); err != nil {
		return errors.Wrap(err, "insert branches failed")
	}
	progress(opts.Out, "%v ok|\n", time.Since(t))
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit")
	}
	return nil
}

func insertRows(ctx context.Context, tx *sqlx.Tx, d goqu.DialectWrapper, table string, rows []interface{}, batch int) error {
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}
		query, args, err := d.Insert(table).Prepared(true).Rows(rows[start:end]...).ToSQL()
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return describe(err)
		}
	}
	return nil
}

func orphans(data *Dataset) error {
	ids := make(map[int64]struct{}, len(data.Banks))
	for _, b := range data.Banks {
		ids[b.ID] = struct{}{}
	}
	for _, br := range data.Branches {
		if _, ok := ids[br.BankID]; !ok {
			return fmt.Errorf("branch %s references unknown bank %d", br.IFSC, br.BankID)
		}
	}
	return nil
}

func describe(err error) error {
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		switch pqerr.Code.Name() {
		case "unique_violation":
			return errors.Wrap(err, "dataset overlaps with stored rows (use force on an empty database)")
		case "foreign_key_violation":
			return errors.Wrap(err, "dataset breaks referential integrity")
		}
	}
	if err == sql.ErrTxDone {
		return errors.Wrap(err, "load was cancelled")
	}
	return err
}

func progress(w io.Writer, format string, v ...interface{}) {
	if w == nil {
		return
	}
	if _, err := fmt.Fprintf(w, format, v...); err != nil {
		log.Println(err)
	}
}

func interfaceSlice(slice interface{}) []interface{} {
	s := reflect.ValueOf(slice)
	if s.Kind() != reflect.Slice {
		panic("InterfaceSlice() given a non-slice type")
	}
	ret := make([]interface{}, s.Len())
	for i := 0; i < s.Len(); i++ {
		// goqu builds insert rows from struct values
		ret[i] = reflect.Indirect(s.Index(i)).Interface()
	}
	return ret
}
