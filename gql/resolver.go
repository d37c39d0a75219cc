package gql

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/bankbranches/api/models"
	"github.com/bankbranches/api/store"
)

// Default page sizes for connection fields.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Resolver is a graphql query resolver.
type Resolver struct {
	Store *store.Store

	// DefaultPageSize is used when "first" is not given.
	DefaultPageSize int
	// MaxPageSize caps the "first" argument.
	MaxPageSize int
}

func (r *Resolver) pageSizes() (def, max int) {
	def, max = r.DefaultPageSize, r.MaxPageSize
	if max <= 0 {
		max = MaxPageSize
	}
	if def <= 0 {
		def = DefaultPageSize
	}
	if def > max {
		def = max
	}
	return def, max
}

// scope holds everything that lives for exactly one request.
type scope struct {
	store *store.Store

	once sync.Once
	tx   *store.Tx
	err  error

	banks bankLoader
}

type scopeKey struct{}

func newScope(ctx context.Context, s *store.Store) (context.Context, *scope) {
	sc := &scope{store: s}
	return context.WithValue(ctx, scopeKey{}, sc), sc
}

func scopeFrom(ctx context.Context) (*scope, error) {
	sc, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok || sc == nil {
		return nil, errors.New("no request scope")
	}
	return sc, nil
}

// repo lazily acquires the request scoped database handle so that
// documents that fail validation never touch the database.
func (sc *scope) repo(ctx context.Context) (store.Repository, error) {
	sc.once.Do(func() {
		sc.tx, sc.err = sc.store.Begin(ctx)
	})
	if sc.err != nil {
		return nil, sc.err
	}
	return sc.tx, nil
}

// Close releases the database handle if one was acquired.
func (sc *scope) Close() error {
	sc.once.Do(func() { sc.err = errClosed })
	if sc.tx == nil {
		return nil
	}
	return sc.tx.Close()
}

func (sc *scope) bank(ctx context.Context, id int64) (*models.Bank, error) {
	repo, err := sc.repo(ctx)
	if err != nil {
		return nil, err
	}
	return sc.banks.load(ctx, repo, id)
}

func repository(ctx context.Context) (store.Repository, error) {
	sc, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return sc.repo(ctx)
}

var (
	errStorage = errors.New("storage unavailable")
	errTimeout = errors.New("request timed out")
	errClosed  = errors.New("request scope closed")
)

// storageError logs the underlying failure and hides
// database details from clients.
func storageError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded || errors.Cause(err) == context.DeadlineExceeded {
		return errTimeout
	}
	log.Println("storage error:", err)
	return errStorage
}
