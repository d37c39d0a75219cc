package store

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bankbranches/api/models"
)

var (
	bankColumns   = models.Columns(models.BankTable, models.Bank{})
	branchColumns = models.Columns(models.BranchTable, models.Branch{})
)

const (
	bankKey   = models.BankTable + ".id"
	branchKey = models.BranchTable + ".ifsc"
)

type reader struct {
	q       sqlx.QueryerContext
	dialect goqu.DialectWrapper
}

func (r *reader) from(table string) *goqu.SelectDataset {
	return r.dialect.From(table).Prepared(true)
}

func (r *reader) selectBanks() *goqu.SelectDataset {
	return r.from(models.BankTable).Select(bankColumns...)
}

func (r *reader) selectBranches() *goqu.SelectDataset {
	return r.from(models.BranchTable).Select(branchColumns...)
}

func (r *reader) list(ctx context.Context, dest interface{}, stmt *goqu.SelectDataset) error {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return errors.Wrap(err, "could not build query")
	}
	if err = sqlx.SelectContext(ctx, r.q, dest, query, args...); err != nil {
		return errors.Wrap(err, "query failed")
	}
	return nil
}

// get returns false when there are no rows.
func (r *reader) get(ctx context.Context, dest interface{}, stmt *goqu.SelectDataset) (bool, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return false, errors.Wrap(err, "could not build query")
	}
	err = sqlx.GetContext(ctx, r.q, dest, query, args...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "query failed")
	}
	return true, nil
}

func (r *reader) count(ctx context.Context, stmt *goqu.SelectDataset) (int64, error) {
	var n int64
	_, err := r.get(ctx, &n, stmt.Select(goqu.COUNT(goqu.Star())))
	return n, err
}

func (r *reader) Banks(ctx context.Context, p PageParams) ([]*models.Bank, error) {
	banks := make([]*models.Bank, 0, p.Limit)
	err := r.list(ctx, &banks, p.AppendSelect(r.selectBanks(), bankKey))
	if err != nil {
		return nil, err
	}
	return banks, nil
}

func (r *reader) Branches(ctx context.Context, p PageParams) ([]*models.Branch, error) {
	branches := make([]*models.Branch, 0, p.Limit)
	err := r.list(ctx, &branches, p.AppendSelect(r.selectBranches(), branchKey))
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *reader) BranchByIFSC(ctx context.Context, ifsc string) (*models.Branch, error) {
	var b models.Branch
	ok, err := r.get(ctx, &b, r.selectBranches().Where(goqu.I(branchKey).Eq(ifsc)))
	if err != nil || !ok {
		return nil, err
	}
	return &b, nil
}

func (r *reader) BranchesByBankName(ctx context.Context, name string) ([]*models.Branch, error) {
	var bank models.Bank
	ok, err := r.get(ctx, &bank, r.selectBanks().
		Where(goqu.I(models.BankTable+".name").Eq(name)).
		Order(goqu.I(bankKey).Asc()).
		Limit(1),
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.Branch{}, nil
	}
	return r.BranchesByBank(ctx, bank.ID, PageParams{})
}

func (r *reader) BranchesByBank(ctx context.Context, bankID int64, p PageParams) ([]*models.Branch, error) {
	branches := make([]*models.Branch, 0, p.Limit)
	stmt := r.selectBranches().Where(goqu.I(models.BranchTable + ".bank_id").Eq(bankID))
	if err := r.list(ctx, &branches, p.AppendSelect(stmt, branchKey)); err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *reader) BankByID(ctx context.Context, id int64) (*models.Bank, error) {
	var b models.Bank
	ok, err := r.get(ctx, &b, r.selectBanks().Where(goqu.I(bankKey).Eq(id)))
	if err != nil || !ok {
		return nil, err
	}
	return &b, nil
}

func (r *reader) BanksByIDs(ctx context.Context, ids []int64) (map[int64]*models.Bank, error) {
	res := make(map[int64]*models.Bank, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	banks := make([]*models.Bank, 0, len(ids))
	if err := r.list(ctx, &banks, r.selectBanks().Where(goqu.I(bankKey).In(ids))); err != nil {
		return nil, err
	}
	for _, b := range banks {
		res[b.ID] = b
	}
	return res, nil
}

func (r *reader) CountBanks(ctx context.Context) (int64, error) {
	return r.count(ctx, r.from(models.BankTable))
}

func (r *reader) CountBranches(ctx context.Context) (int64, error) {
	return r.count(ctx, r.from(models.BranchTable))
}

func (r *reader) CountBranchesByBank(ctx context.Context, bankID int64) (int64, error) {
	return r.count(ctx, r.from(models.BranchTable).
		Where(goqu.I(models.BranchTable+".bank_id").Eq(bankID)))
}
