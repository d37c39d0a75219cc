package gql

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/bankbranches/api/store"
)

// Cursor kinds
const (
	bankCursor   = "bank"
	branchCursor = "branch"
)

var errInvalidCursor = errors.New("invalid cursor")

func encodeCursor(kind, key string) string {
	return base64.StdEncoding.EncodeToString([]byte(kind + ":" + key))
}

// decodeCursor returns the primary key stored in a cursor, an int64
// for banks and a string for branches.
func decodeCursor(kind, cursor string) (interface{}, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, errInvalidCursor
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] != kind || parts[1] == "" {
		return nil, errInvalidCursor
	}
	if kind == bankCursor {
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, errInvalidCursor
		}
		return id, nil
	}
	return parts[1], nil
}

// pageArgs are the forward pagination arguments of a connection field.
type pageArgs struct {
	first int
	after interface{}
}

func (r *Resolver) parsePageArgs(kind string, args map[string]interface{}) (*pageArgs, error) {
	def, max := r.pageSizes()
	pa := &pageArgs{first: def}
	if first, ok := args["first"].(int); ok {
		if first < 0 {
			return nil, errors.New(`argument "first" must not be negative`)
		}
		pa.first = first
	}
	if pa.first > max {
		pa.first = max
	}
	if after, ok := args["after"].(string); ok && after != "" {
		key, err := decodeCursor(kind, after)
		if err != nil {
			return nil, fmt.Errorf(`argument "after": %v`, err)
		}
		pa.after = key
	}
	return pa, nil
}

// params asks for one extra row so a page knows if
// there is another page after it.
func (pa *pageArgs) params() store.PageParams {
	return store.PageParams{
		Limit: uint(pa.first) + 1,
		After: pa.after,
	}
}

type edge struct {
	cursor string
	node   interface{}
}

type pageInfo struct {
	hasNextPage     bool
	hasPreviousPage bool
	startCursor     *string
	endCursor       *string
}

// connection is a lazily fetched page. Rows are only fetched if the
// edges or pageInfo are selected and the total is only counted if
// totalCount is selected.
type connection struct {
	once  sync.Once
	err   error
	fetch func() ([]*edge, error)
	count func() (int64, error)
	args  *pageArgs

	edges []*edge
	info  pageInfo
}

func (c *connection) load() error {
	c.once.Do(func() {
		edges, err := c.fetch()
		if err != nil {
			c.err = err
			return
		}
		if len(edges) > c.args.first {
			edges = edges[:c.args.first]
			c.info.hasNextPage = true
		}
		c.info.hasPreviousPage = c.args.after != nil
		if len(edges) > 0 {
			c.info.startCursor = &edges[0].cursor
			c.info.endCursor = &edges[len(edges)-1].cursor
		}
		c.edges = edges
	})
	return c.err
}
