package models

import "database/sql"

// Table names
const (
	BankTable   = "banks"
	BranchTable = "branches"
)

// Max column lengths found in the source dataset.
const (
	BankNameLen   = 49
	IFSCLen       = 11
	BranchNameLen = 74
	AddressLen    = 195
	LocationLen   = 50
)

// Bank is a banking institution. A bank owns zero or more branches.
type Bank struct {
	ID   int64  `db:"id" json:"id" csv:"id"`
	Name string `db:"name" json:"name" csv:"name"`
}

// Branch is a single bank branch identified by its IFSC code.
type Branch struct {
	IFSC     string         `db:"ifsc" json:"ifsc" csv:"ifsc"`
	BankID   int64          `db:"bank_id" json:"bank_id" csv:"bank_id"`
	Branch   string         `db:"branch" json:"branch" csv:"branch"`
	Address  sql.NullString `db:"address" json:"address" csv:"address"`
	City     sql.NullString `db:"city" json:"city" csv:"city"`
	District sql.NullString `db:"district" json:"district" csv:"district"`
	State    sql.NullString `db:"state" json:"state" csv:"state"`
}

// NullString returns a valid sql.NullString for any
// non-empty string.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// OptionalString returns nil when the string is null.
func OptionalString(s sql.NullString) interface{} {
	if !s.Valid {
		return nil
	}
	return s.String
}
