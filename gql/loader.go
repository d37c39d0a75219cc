package gql

import (
	"context"
	"sync"

	"github.com/bankbranches/api/models"
	"github.com/bankbranches/api/store"
)

// bankLoader batches the bank lookups made while resolving a page of
// branches. Branch pages prime the loader with their bank ids and the
// first "bank" field that is actually resolved fetches all of them in
// one query.
type bankLoader struct {
	mu      sync.Mutex
	pending map[int64]struct{}
	banks   map[int64]*models.Bank
}

func (l *bankLoader) prime(branches []*models.Branch) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		l.pending = make(map[int64]struct{})
	}
	for _, b := range branches {
		if _, ok := l.banks[b.BankID]; !ok {
			l.pending[b.BankID] = struct{}{}
		}
	}
}

func (l *bankLoader) load(ctx context.Context, repo store.Repository, id int64) (*models.Bank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.banks[id]; ok {
		return b, nil
	}
	if l.banks == nil {
		l.banks = make(map[int64]*models.Bank)
	}
	ids := make([]int64, 0, len(l.pending)+1)
	ids = append(ids, id)
	for p := range l.pending {
		if p != id {
			ids = append(ids, p)
		}
	}
	found, err := repo.BanksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, i := range ids {
		// missing banks are cached as nil
		l.banks[i] = found[i]
	}
	l.pending = nil
	return l.banks[id], nil
}

// seed caches a bank that is already loaded.
func (l *bankLoader) seed(b *models.Bank) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.banks == nil {
		l.banks = make(map[int64]*models.Bank)
	}
	l.banks[b.ID] = b
	delete(l.pending, b.ID)
}
