package gql

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/graphql-go/graphql/gqlerrors"

	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/internal/dbtest"
	"github.com/bankbranches/api/store"
)

func testExecutor(t *testing.T) *Executor {
	t.Helper()
	e, err := NewExecutor(&Resolver{Store: store.New(dbtest.Open(t), apidb.SQLite)})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// run executes the query and decodes the result data into v.
func run(t *testing.T, e *Executor, query string, vars map[string]interface{}, v interface{}) []gqlerrors.FormattedError {
	t.Helper()
	res := e.Do(context.Background(), &Request{Query: query, Variables: vars})
	if v != nil && res.Data != nil {
		b, err := json.Marshal(res.Data)
		if err != nil {
			t.Fatal(err)
		}
		if err = json.Unmarshal(b, v); err != nil {
			t.Fatal(err)
		}
	}
	return res.Errors
}

type branch struct {
	IFSC     string  `json:"ifsc"`
	BankID   int64   `json:"bankId"`
	Branch   string  `json:"branch"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	District *string `json:"district"`
	State    *string `json:"state"`
	Bank     *struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"bank"`
}

type page struct {
	TotalCount int `json:"totalCount"`
	PageInfo   struct {
		HasNextPage     bool    `json:"hasNextPage"`
		HasPreviousPage bool    `json:"hasPreviousPage"`
		StartCursor     *string `json:"startCursor"`
		EndCursor       *string `json:"endCursor"`
	} `json:"pageInfo"`
	Edges []struct {
		Cursor string  `json:"cursor"`
		Node   *branch `json:"node"`
	} `json:"edges"`
}

func TestBranchByIFSC(t *testing.T) {
	e := testExecutor(t)
	var resp struct {
		Branch *branch `json:"branchByIfsc"`
	}
	errs := run(t, e, `{
		branchByIfsc(ifsc: "TEST0001234") {
			ifsc bankId branch address city district state
			bank { id name }
		}
	}`, nil, &resp)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	b := resp.Branch
	if b == nil {
		t.Fatal("expected a branch")
	}
	if b.IFSC != "TEST0001234" || b.BankID != 1 || b.Branch != "MAIN BRANCH" {
		t.Errorf("wrong branch: %+v", b)
	}
	if b.Address == nil || *b.Address != "1, MG ROAD" {
		t.Errorf("wrong address: %v", b.Address)
	}
	if b.Bank == nil || b.Bank.ID != 1 || b.Bank.Name != "TEST BANK" {
		t.Errorf("wrong bank: %+v", b.Bank)
	}
}

func TestBranchByCode(t *testing.T) {
	e := testExecutor(t)
	for _, tst := range []struct {
		code  string
		found bool
		err   bool
	}{
		{code: "SBIN0000003", found: true},
		{code: " SBIN0000003 ", found: true},
		{code: "sbin0000003"},
		{code: "NOPE0000000"},
		{code: "   ", err: true},
	} {
		var resp struct {
			Branch *branch `json:"branchByCode"`
		}
		errs := run(t, e,
			`query($code: String!) { branchByCode(code: $code) { ifsc address city } }`,
			map[string]interface{}{"code": tst.code}, &resp)
		if tst.err {
			if len(errs) == 0 {
				t.Errorf("%q: expected an error", tst.code)
			}
			continue
		}
		if len(errs) > 0 {
			t.Errorf("%q: %v", tst.code, errs)
			continue
		}
		if tst.found != (resp.Branch != nil) {
			t.Errorf("%q: got %v, want found=%v", tst.code, resp.Branch, tst.found)
			continue
		}
		if tst.found && (resp.Branch.Address != nil || resp.Branch.City != nil) {
			t.Errorf("%q: null columns should resolve to null", tst.code)
		}
	}
}

func TestBranchesByBank(t *testing.T) {
	e := testExecutor(t)
	for _, tst := range []struct {
		name string
		want []string
	}{
		{"TEST BANK", []string{"TEST0001234", "TEST0001235", "TEST0001236", "TEST0001237"}},
		{"STATE BANK OF INDIA", []string{"SBIN0000001", "SBIN0000002", "SBIN0000003"}},
		{"NO SUCH BANK", []string{}},
	} {
		var resp struct {
			Branches []*branch `json:"branchesByBank"`
		}
		errs := run(t, e,
			`query($name: String!) { branchesByBank(bankName: $name) { ifsc bank { name } } }`,
			map[string]interface{}{"name": tst.name}, &resp)
		if len(errs) > 0 {
			t.Fatal(errs)
		}
		if resp.Branches == nil {
			t.Errorf("%q: expected an empty list, not null", tst.name)
		}
		got := make([]string, 0, len(resp.Branches))
		for _, b := range resp.Branches {
			got = append(got, b.IFSC)
			if b.Bank == nil || b.Bank.Name != tst.name {
				t.Errorf("%q: wrong bank for %s", tst.name, b.IFSC)
			}
		}
		if !reflect.DeepEqual(got, tst.want) {
			t.Errorf("%q: got %v, want %v", tst.name, got, tst.want)
		}
	}
}

func TestPagination(t *testing.T) {
	var (
		e     = testExecutor(t)
		query = `query($first: Int, $after: String) {
			branches(first: $first, after: $after) {
				totalCount
				pageInfo { hasNextPage hasPreviousPage startCursor endCursor }
				edges { cursor node { ifsc } }
			}
		}`
		seen  = make(map[string]bool)
		all   []string
		after interface{}
		pages int
	)
	for {
		var resp struct {
			Branches page `json:"branches"`
		}
		errs := run(t, e, query, map[string]interface{}{"first": 3, "after": after}, &resp)
		if len(errs) > 0 {
			t.Fatal(errs)
		}
		p := resp.Branches
		pages++
		if p.TotalCount != dbtest.Branches {
			t.Errorf("got totalCount %d, want %d", p.TotalCount, dbtest.Branches)
		}
		if p.PageInfo.HasPreviousPage != (after != nil) {
			t.Errorf("page %d: wrong hasPreviousPage", pages)
		}
		for _, edge := range p.Edges {
			if seen[edge.Node.IFSC] {
				t.Errorf("%s seen on more than one page", edge.Node.IFSC)
			}
			seen[edge.Node.IFSC] = true
			all = append(all, edge.Node.IFSC)
		}
		if len(p.Edges) > 0 && *p.PageInfo.EndCursor != p.Edges[len(p.Edges)-1].Cursor {
			t.Error("end cursor should be the cursor of the last edge")
		}
		if !p.PageInfo.HasNextPage {
			if len(p.Edges) != 1 {
				t.Errorf("last page should have 1 branch, got %d", len(p.Edges))
			}
			break
		}
		if len(p.Edges) != 3 {
			t.Fatalf("page %d: got %d edges, want 3", pages, len(p.Edges))
		}
		after = *p.PageInfo.EndCursor
	}
	if pages != 4 {
		t.Errorf("got %d pages, want 4", pages)
	}
	if len(all) != dbtest.Branches || !sort.StringsAreSorted(all) {
		t.Errorf("pages should cover every branch in order: %v", all)
	}
}

func TestPaginationDeterministic(t *testing.T) {
	e := testExecutor(t)
	query := `{ banks(first: 2) { edges { cursor node { id name } } pageInfo { endCursor } } }`
	first := e.Do(context.Background(), &Request{Query: query})
	second := e.Do(context.Background(), &Request{Query: query})
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("same query gave different results:\n%s\n%s", a, b)
	}
}

func TestBankBranches(t *testing.T) {
	e := testExecutor(t)
	var resp struct {
		Banks struct {
			Edges []struct {
				Node struct {
					ID       int64 `json:"id"`
					Branches page  `json:"branches"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"banks"`
		Bank *struct {
			Name string `json:"name"`
		} `json:"bank"`
		Missing *struct {
			Name string `json:"name"`
		} `json:"missing"`
	}
	errs := run(t, e, `{
		banks(first: 10) {
			edges { node {
				id
				branches(first: 2) {
					totalCount
					pageInfo { hasNextPage }
					edges { node { ifsc bank { id } } }
				}
			} }
		}
		bank(id: 2) { name }
		missing: bank(id: 99) { name }
	}`, nil, &resp)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	counts := map[int64]int{1: 4, 2: 3, 3: 1, 4: 2}
	if len(resp.Banks.Edges) != dbtest.Banks {
		t.Fatalf("got %d banks, want %d", len(resp.Banks.Edges), dbtest.Banks)
	}
	for _, edge := range resp.Banks.Edges {
		bank := edge.Node
		if bank.Branches.TotalCount != counts[bank.ID] {
			t.Errorf("bank %d: got %d branches, want %d", bank.ID, bank.Branches.TotalCount, counts[bank.ID])
		}
		if bank.Branches.PageInfo.HasNextPage != (counts[bank.ID] > 2) {
			t.Errorf("bank %d: wrong hasNextPage", bank.ID)
		}
		for _, b := range bank.Branches.Edges {
			if b.Node.Bank == nil || b.Node.Bank.ID != bank.ID {
				t.Errorf("branch %s does not point back to bank %d", b.Node.IFSC, bank.ID)
			}
		}
	}
	if resp.Bank == nil || resp.Bank.Name != "STATE BANK OF INDIA" {
		t.Errorf("wrong bank: %v", resp.Bank)
	}
	if resp.Missing != nil {
		t.Error("unknown bank should be null")
	}
}

func TestPageSize(t *testing.T) {
	e, err := NewExecutor(&Resolver{
		Store:           store.New(dbtest.Open(t), apidb.SQLite),
		DefaultPageSize: 2,
		MaxPageSize:     4,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, tst := range []struct {
		query string
		want  int
	}{
		{`{ branches { edges { cursor } } }`, 2},
		{`{ branches(first: 50) { edges { cursor } } }`, 4},
		{`{ branches(first: 0) { edges { cursor } } }`, 0},
	} {
		var resp struct {
			Branches page `json:"branches"`
		}
		if errs := run(t, e, tst.query, nil, &resp); len(errs) > 0 {
			t.Fatal(errs)
		}
		if len(resp.Branches.Edges) != tst.want {
			t.Errorf("%s: got %d edges, want %d", tst.query, len(resp.Branches.Edges), tst.want)
		}
	}
}

func TestQueryErrors(t *testing.T) {
	e := testExecutor(t)
	branchCur := encodeCursor(branchCursor, "TEST0001234")
	for _, query := range []string{
		`{ invalidField }`,
		`{ branchByIfsc { ifsc } }`,
		`{ branchByIfsc(ifsc: "TEST0001234") { ifsc nope } }`,
		`{ branches(first: -1) { totalCount } }`,
		`{ branches(after: "not a cursor") { edges { cursor } } }`,
		`{ banks(after: "` + branchCur + `") { edges { cursor } } }`,
		`{ branches`,
	} {
		res := e.Do(context.Background(), &Request{Query: query})
		if len(res.Errors) == 0 {
			t.Errorf("%s: expected errors", query)
		}
	}

	for _, tst := range []struct {
		query string
		vars  map[string]interface{}
	}{
		{`query($code: String!) { branchByCode(code: $code) { ifsc } }`, map[string]interface{}{"code": 1234}},
		{`query($code: String!) { branchByIfsc(ifsc: $code) { ifsc } }`, map[string]interface{}{"code": float64(1234)}},
		{`query($n: String!) { branchesByBank(bankName: $n) { ifsc } }`, map[string]interface{}{"n": true}},
		{`query($first: Int) { branches(first: $first) { totalCount } }`, map[string]interface{}{"first": "2"}},
		{`query($first: Int) { banks(first: $first) { totalCount } }`, map[string]interface{}{"first": 2.5}},
		{`query($id: Int!) { bank(id: $id) { name } }`, map[string]interface{}{"id": []interface{}{1}}},
		{`query($after: String) { banks(after: $after) { totalCount } }`, map[string]interface{}{"after": map[string]interface{}{}}},
	} {
		res := e.Do(context.Background(), &Request{Query: tst.query, Variables: tst.vars})
		if len(res.Errors) == 0 {
			t.Errorf("%s %v: expected a type error", tst.query, tst.vars)
		}
		if res.Data != nil {
			t.Errorf("%s %v: should not execute, got %v", tst.query, tst.vars, res.Data)
		}
	}

	// numbers decoded from json are float64
	var resp struct {
		Bank *struct {
			Name string `json:"name"`
		} `json:"bank"`
	}
	errs := run(t, e, `query($id: Int!) { bank(id: $id) { name } }`, map[string]interface{}{"id": float64(4)}, &resp)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	if resp.Bank == nil || resp.Bank.Name != "AXIS BANK" {
		t.Errorf("wrong bank: %v", resp.Bank)
	}

	res := e.Do(context.Background(), &Request{Query: `{ invalidField }`})
	if res.Data != nil {
		t.Errorf("invalid document should not return data, got %v", res.Data)
	}
}

func TestSelection(t *testing.T) {
	e := testExecutor(t)
	var resp map[string]map[string]interface{}
	errs := run(t, e, `{ branchByIfsc(ifsc: "TEST0001236") { city ifsc } }`, nil, &resp)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	b := resp["branchByIfsc"]
	if len(b) != 2 {
		t.Errorf("only selected fields should be returned, got %v", b)
	}
	if b["ifsc"] != "TEST0001236" || b["city"] != "MUMBAI" {
		t.Errorf("wrong fields: %v", b)
	}
}

func TestStorageErrors(t *testing.T) {
	db := dbtest.Open(t)
	e, err := NewExecutor(&Resolver{Store: store.New(db, apidb.SQLite)})
	if err != nil {
		t.Fatal(err)
	}
	query := &Request{Query: `{ branchByIfsc(ifsc: "TEST0001234") { ifsc } }`}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	res := e.Do(ctx, query)
	if len(res.Errors) == 0 {
		t.Fatal("expected an error from an expired request")
	}
	switch msg := res.Errors[0].Message; msg {
	case errTimeout.Error(), context.DeadlineExceeded.Error():
	default:
		t.Errorf("expected a timeout error, got %q", msg)
	}

	db.Close()
	res = e.Do(context.Background(), query)
	if len(res.Errors) != 1 || res.Errors[0].Message != errStorage.Error() {
		t.Errorf("expected a storage error, got %v", res.Errors)
	}
}

func TestConcurrentRequests(t *testing.T) {
	e := testExecutor(t)
	queries := []*Request{
		{Query: `{ branches(first: 4) { totalCount edges { cursor node { ifsc bank { name } } } } }`},
		{Query: `{ branchByIfsc(ifsc: "TEST0001234") { ifsc city bank { id name } } }`},
		{Query: `{ banks { edges { node { id branches(first: 2) { edges { node { ifsc bank { id } } } } } } } }`},
	}
	want := make([]string, len(queries))
	for i, q := range queries {
		res := e.Do(context.Background(), q)
		if len(res.Errors) > 0 {
			t.Fatal(res.Errors)
		}
		b, _ := json.Marshal(res)
		want[i] = string(b)
	}

	// more workers than pooled sqlite connections
	const (
		workers = 16
		rounds  = 5
	)
	type result struct {
		query int
		body  string
	}
	var (
		wg      sync.WaitGroup
		results = make([][]result, workers)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for round := 0; round < rounds; round++ {
				i := (w + round) % len(queries)
				b, err := json.Marshal(e.Do(context.Background(), queries[i]))
				if err != nil {
					b = []byte(err.Error())
				}
				results[w] = append(results[w], result{query: i, body: string(b)})
			}
		}(w)
	}
	wg.Wait()

	for w, res := range results {
		if len(res) != rounds {
			t.Errorf("worker %d: got %d results, want %d", w, len(res), rounds)
		}
		for _, r := range res {
			if r.body != want[r.query] {
				t.Errorf("worker %d: query %d gave a different result:\n%s\nwant\n%s", w, r.query, r.body, want[r.query])
			}
		}
	}
}
