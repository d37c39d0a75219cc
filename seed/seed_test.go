package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	apidb "github.com/bankbranches/api/db"
)

const testSeed = header +
	"TEST0001234,1,MAIN BRANCH,1 MG ROAD,MUMBAI,MUMBAI,MAHARASHTRA,TEST BANK\n" +
	"TEST0001235,1,FORT,,MUMBAI,MUMBAI,MAHARASHTRA,TEST BANK\n" +
	"UTIB0000001,4,AHMEDABAD,TRISHUL,AHMEDABAD,AHMEDABAD,GUJARAT,AXIS BANK\n"

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.db")
	db, err := apidb.Open(context.Background(), apidb.SQLite, fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestLoad(t *testing.T) {
	var (
		ctx = context.Background()
		db  = testDB(t)
		out bytes.Buffer
	)
	stats, err := Load(ctx, db, apidb.SQLite, strings.NewReader(testSeed), Options{BatchSize: 2, Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Banks != 2 || stats.Branches != 3 || stats.Skipped {
		t.Errorf("wrong stats: %+v", stats)
	}
	if out.Len() == 0 {
		t.Error("expected progress output")
	}
	if n := count(t, db, "banks"); n != 2 {
		t.Errorf("got %d banks, want 2", n)
	}
	if n := count(t, db, "branches"); n != 3 {
		t.Errorf("got %d branches, want 3", n)
	}
	var address *string
	if err = db.Get(&address, "SELECT address FROM branches WHERE ifsc = 'TEST0001235'"); err != nil {
		t.Fatal(err)
	}
	if address != nil {
		t.Errorf("empty address should be stored as null, got %q", *address)
	}

	// a populated database is left alone
	stats, err = Load(ctx, db, apidb.SQLite, strings.NewReader(testSeed), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !stats.Skipped {
		t.Error("expected the load to be skipped")
	}

	// forcing the same rows in breaks the primary keys and the
	// whole load is rolled back
	_, err = Load(ctx, db, apidb.SQLite, strings.NewReader(
		header+"ZZZZ0000001,9,NEW,,,,,NEW BANK\n"+strings.TrimPrefix(testSeed, header),
	), Options{Force: true})
	if err == nil {
		t.Fatal("expected a constraint error")
	}
	if n := count(t, db, "banks"); n != 2 {
		t.Errorf("got %d banks after a failed load, want 2", n)
	}
}

func TestInsertOrphans(t *testing.T) {
	var (
		ctx = context.Background()
		db  = testDB(t)
	)
	if err := apidb.CreateTables(ctx, db, apidb.SQLite); err != nil {
		t.Fatal(err)
	}
	data, err := ReadCSV(strings.NewReader(testSeed))
	if err != nil {
		t.Fatal(err)
	}
	data.Banks = data.Banks[:1]
	if err = Insert(ctx, db, apidb.SQLite, data, Options{}); err == nil {
		t.Fatal("expected an error for a branch without a bank")
	}
	empty, err := Empty(ctx, db, apidb.SQLite)
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("nothing should have been inserted")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bank_branches.csv" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, testSeed)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "bank_branches.csv")
	if err := os.WriteFile(file, []byte(testSeed), 0644); err != nil {
		t.Fatal(err)
	}

	for _, src := range []string{srv.URL + "/bank_branches.csv", file} {
		r, err := Open(ctx, src)
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != testSeed {
			t.Errorf("%s: wrong contents", src)
		}
	}
	if _, err := Open(ctx, srv.URL+"/missing.csv"); err == nil {
		t.Error("expected an error for a 404")
	}
	if _, err := Open(ctx, filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
