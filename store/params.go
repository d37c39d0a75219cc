package store

import (
	"github.com/doug-martin/goqu/v9"
)

// PageParams are keyset pagination parameters. Pages are always
// ordered by the primary key of the table being paged so that a
// key taken from one page is a valid starting point for the next.
type PageParams struct {
	// Limit is the max number of rows, zero means no limit.
	Limit uint
	// After is the primary key of the last row already seen.
	After interface{}
}

// AppendSelect appends the parameters to a generated sql query
// statement keyed on the column key.
func (pp *PageParams) AppendSelect(stmt *goqu.SelectDataset, key string) *goqu.SelectDataset {
	col := goqu.I(key)
	if pp.After != nil {
		stmt = stmt.Where(col.Gt(pp.After))
	}
	stmt = stmt.Order(col.Asc())
	if pp.Limit != 0 {
		stmt = stmt.Limit(pp.Limit)
	}
	return stmt
}
