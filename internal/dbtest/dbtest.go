// Package dbtest creates small seeded databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/seed"
)

// Fixture counts
const (
	Banks    = 4
	Branches = 10
)

// CSV is the seed used by Open. Banks 1 and 3 share a name.
const CSV = `ifsc,bank_id,branch,address,city,district,state,bank_name
TEST0001234,1,MAIN BRANCH,"1, MG ROAD",MUMBAI,MUMBAI,MAHARASHTRA,TEST BANK
TEST0001235,1,FORT,2 FORT STREET,MUMBAI,MUMBAI,MAHARASHTRA,TEST BANK
TEST0001236,1,ANDHERI,3 LINK ROAD,MUMBAI,MUMBAI SUBURBAN,MAHARASHTRA,TEST BANK
TEST0001237,1,PUNE CAMP,4 MAIN STREET,PUNE,PUNE,MAHARASHTRA,TEST BANK
SBIN0000001,2,KOLKATA MAIN,"SAMRIDDHI BHAWAN, 1 STRAND ROAD",KOLKATA,KOLKATA,WEST BENGAL,STATE BANK OF INDIA
SBIN0000002,2,CHENNAI MAIN,RAJAJI SALAI,CHENNAI,CHENNAI,TAMIL NADU,STATE BANK OF INDIA
SBIN0000003,2,HEAD OFFICE,,,,,STATE BANK OF INDIA
TSTB0000001,3,DELHI,5 CONNAUGHT PLACE,NEW DELHI,NEW DELHI,DELHI,TEST BANK
UTIB0000001,4,AHMEDABAD,TRISHUL,AHMEDABAD,AHMEDABAD,GUJARAT,AXIS BANK
UTIB0000002,4,WORLI,AXIS HOUSE,MUMBAI,MUMBAI,MAHARASHTRA,AXIS BANK
`

// Open creates a sqlite database in a temporary directory and loads
// the fixture into it. The database is closed when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "banks.db")
	db, err := apidb.Open(ctx, apidb.SQLite, fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err = apidb.CreateTables(ctx, db, apidb.SQLite); err != nil {
		t.Fatal(err)
	}
	data, err := seed.ReadCSV(strings.NewReader(CSV))
	if err != nil {
		t.Fatal(err)
	}
	if err = seed.Insert(ctx, db, apidb.SQLite, data, seed.Options{BatchSize: 3}); err != nil {
		t.Fatal(err)
	}
	return db
}
