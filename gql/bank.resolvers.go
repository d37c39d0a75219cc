package gql

import (
	"github.com/graphql-go/graphql"

	"github.com/bankbranches/api/models"
	"github.com/bankbranches/api/store"
)

type bankResolver struct{ *Resolver }

func (r *bankResolver) ID(p graphql.ResolveParams) (interface{}, error) {
	return p.Source.(*models.Bank).ID, nil
}

func (r *bankResolver) Name(p graphql.ResolveParams) (interface{}, error) {
	return p.Source.(*models.Bank).Name, nil
}

func (r *bankResolver) Branches(p graphql.ResolveParams) (interface{}, error) {
	var (
		ctx  = p.Context
		bank = p.Source.(*models.Bank)
	)
	args, err := r.parsePageArgs(branchCursor, p.Args)
	if err != nil {
		return nil, err
	}
	sc, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	// every branch on this page belongs to the bank being resolved
	sc.banks.seed(bank)
	return r.branchConnection(ctx, args,
		func(repo store.Repository, pp store.PageParams) ([]*models.Branch, error) {
			return repo.BranchesByBank(ctx, bank.ID, pp)
		},
		func(repo store.Repository) (int64, error) {
			return repo.CountBranchesByBank(ctx, bank.ID)
		},
	), nil
}
