package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/bankbranches/api/models"
	"github.com/bankbranches/api/store"
)

const pageSize = 1000

func csvfile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

// export writes both tables to csv files in dir by walking
// the store one page at a time.
func export(ctx context.Context, s *store.Store, dir string) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Close()

	err = writeTable(dir, models.BankTable, &models.Bank{}, func(w *csv.Writer) error {
		var p = store.PageParams{Limit: pageSize}
		for {
			banks, err := tx.Banks(ctx, p)
			if err != nil {
				return err
			}
			for _, b := range banks {
				if err = writeRow(w, b); err != nil {
					return err
				}
			}
			if len(banks) < pageSize {
				return nil
			}
			p.After = banks[len(banks)-1].ID
		}
	})
	if err != nil {
		return err
	}
	return writeTable(dir, models.BranchTable, &models.Branch{}, func(w *csv.Writer) error {
		var p = store.PageParams{Limit: pageSize}
		for {
			branches, err := tx.Branches(ctx, p)
			if err != nil {
				return err
			}
			for _, b := range branches {
				if err = writeRow(w, b); err != nil {
					return err
				}
			}
			if len(branches) < pageSize {
				return nil
			}
			p.After = branches[len(branches)-1].IFSC
		}
	})
}

func writeTable(dir, table string, model interface{}, rows func(*csv.Writer) error) error {
	f, err := csvfile(dir, table+".csv")
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err = w.Write(models.GetSchema(model)); err != nil {
		return errors.Wrap(err, "could not write to csv file")
	}
	if err = rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeRow(w *csv.Writer, v interface{}) error {
	row, err := models.ToCSVRow(v)
	if err != nil {
		return err
	}
	if err = w.Write(row); err != nil {
		return errors.Wrap(err, "could not write to csv file")
	}
	return nil
}
