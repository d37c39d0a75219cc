package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bankbranches/api/models"
)

var (
	banksTable = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id   BIGINT PRIMARY KEY,
	name VARCHAR(%d) NOT NULL%%s
)`, models.BankTable, models.BankNameLen)

	branchesTable = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	ifsc     VARCHAR(%[3]d) PRIMARY KEY,
	bank_id  BIGINT NOT NULL,
	branch   VARCHAR(%[4]d) NOT NULL,
	address  VARCHAR(%[5]d),
	city     VARCHAR(%[6]d),
	district VARCHAR(%[6]d),
	state    VARCHAR(%[6]d),
	FOREIGN KEY (bank_id) REFERENCES %[2]s (id)%%s
)`, models.BranchTable, models.BankTable,
		models.IFSCLen, models.BranchNameLen, models.AddressLen, models.LocationLen)
)

func schema(driver string) []string {
	switch driver {
	case MySQL:
		// mysql has no "CREATE INDEX IF NOT EXISTS"
		return []string{
			fmt.Sprintf(banksTable, ",\n\tINDEX banks_name_idx (name)"),
			fmt.Sprintf(branchesTable, ",\n\tINDEX branches_bank_id_idx (bank_id)"),
		}
	default:
		return []string{
			fmt.Sprintf(banksTable, ""),
			fmt.Sprintf(branchesTable, ""),
			"CREATE INDEX IF NOT EXISTS banks_name_idx ON banks (name)",
			"CREATE INDEX IF NOT EXISTS branches_bank_id_idx ON branches (bank_id)",
		}
	}
}

// CreateTables will create the banks and branches tables
// if they do not exist.
func CreateTables(ctx context.Context, db *sqlx.DB, driver string) error {
	if !Supported(driver) {
		return errors.Wrap(ErrUnknownDriver, driver)
	}
	for _, stmt := range schema(driver) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "could not create tables")
		}
	}
	return nil
}
