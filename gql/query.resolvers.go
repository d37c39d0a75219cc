package gql

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/bankbranches/api/models"
	"github.com/bankbranches/api/store"
)

type queryResolver struct{ *Resolver }

func (r *queryResolver) Banks(p graphql.ResolveParams) (interface{}, error) {
	args, err := r.parsePageArgs(bankCursor, p.Args)
	if err != nil {
		return nil, err
	}
	return r.bankConnection(p.Context, args), nil
}

func (r *queryResolver) Branches(p graphql.ResolveParams) (interface{}, error) {
	args, err := r.parsePageArgs(branchCursor, p.Args)
	if err != nil {
		return nil, err
	}
	ctx := p.Context
	return r.branchConnection(ctx, args,
		func(repo store.Repository, pp store.PageParams) ([]*models.Branch, error) {
			return repo.Branches(ctx, pp)
		},
		func(repo store.Repository) (int64, error) {
			return repo.CountBranches(ctx)
		},
	), nil
}

func (r *queryResolver) Bank(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	sc, err := scopeFrom(p.Context)
	if err != nil {
		return nil, err
	}
	b, err := sc.bank(p.Context, int64(id))
	if err != nil {
		return nil, storageError(p.Context, err)
	}
	if b == nil {
		return nil, nil
	}
	return b, nil
}

// branchByCode resolves a single branch from the IFSC code
// given in the argument arg. An unknown code resolves to null.
func (r *queryResolver) branchByCode(arg string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		code, _ := p.Args[arg].(string)
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("argument %q must not be empty", arg)
		}
		repo, err := repository(p.Context)
		if err != nil {
			return nil, storageError(p.Context, err)
		}
		branch, err := repo.BranchByIFSC(p.Context, code)
		if err != nil {
			return nil, storageError(p.Context, err)
		}
		if branch == nil {
			return nil, nil
		}
		r.prime(p.Context, branch)
		return branch, nil
	}
}

func (r *queryResolver) BranchesByBank(p graphql.ResolveParams) (interface{}, error) {
	name, _ := p.Args["bankName"].(string)
	repo, err := repository(p.Context)
	if err != nil {
		return nil, storageError(p.Context, err)
	}
	branches, err := repo.BranchesByBankName(p.Context, name)
	if err != nil {
		return nil, storageError(p.Context, err)
	}
	r.prime(p.Context, branches...)
	return branches, nil
}

func (r *Resolver) prime(ctx context.Context, branches ...*models.Branch) {
	if sc, err := scopeFrom(ctx); err == nil {
		sc.banks.prime(branches)
	}
}

func (r *Resolver) bankConnection(ctx context.Context, args *pageArgs) *connection {
	return &connection{
		args: args,
		fetch: func() ([]*edge, error) {
			repo, err := repository(ctx)
			if err != nil {
				return nil, storageError(ctx, err)
			}
			banks, err := repo.Banks(ctx, args.params())
			if err != nil {
				return nil, storageError(ctx, err)
			}
			edges := make([]*edge, len(banks))
			for i, b := range banks {
				edges[i] = &edge{
					cursor: encodeCursor(bankCursor, fmt.Sprint(b.ID)),
					node:   b,
				}
			}
			return edges, nil
		},
		count: func() (int64, error) {
			repo, err := repository(ctx)
			if err != nil {
				return 0, storageError(ctx, err)
			}
			n, err := repo.CountBanks(ctx)
			return n, storageError(ctx, err)
		},
	}
}

func (r *Resolver) branchConnection(
	ctx context.Context,
	args *pageArgs,
	list func(store.Repository, store.PageParams) ([]*models.Branch, error),
	count func(store.Repository) (int64, error),
) *connection {
	return &connection{
		args: args,
		fetch: func() ([]*edge, error) {
			repo, err := repository(ctx)
			if err != nil {
				return nil, storageError(ctx, err)
			}
			branches, err := list(repo, args.params())
			if err != nil {
				return nil, storageError(ctx, err)
			}
			r.prime(ctx, branches...)
			edges := make([]*edge, len(branches))
			for i, b := range branches {
				edges[i] = &edge{
					cursor: encodeCursor(branchCursor, b.IFSC),
					node:   b,
				}
			}
			return edges, nil
		},
		count: func() (int64, error) {
			repo, err := repository(ctx)
			if err != nil {
				return 0, storageError(ctx, err)
			}
			n, err := count(repo)
			return n, storageError(ctx, err)
		},
	}
}
