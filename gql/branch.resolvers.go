package gql

import (
	"github.com/graphql-go/graphql"

	"github.com/bankbranches/api/models"
)

type branchResolver struct{ *Resolver }

func (r *branchResolver) IFSC(p graphql.ResolveParams) (interface{}, error) {
	return p.Source.(*models.Branch).IFSC, nil
}

func (r *branchResolver) BankID(p graphql.ResolveParams) (interface{}, error) {
	return p.Source.(*models.Branch).BankID, nil
}

func (r *branchResolver) Branch(p graphql.ResolveParams) (interface{}, error) {
	return p.Source.(*models.Branch).Branch, nil
}

func (r *branchResolver) Address(p graphql.ResolveParams) (interface{}, error) {
	return models.OptionalString(p.Source.(*models.Branch).Address), nil
}

func (r *branchResolver) City(p graphql.ResolveParams) (interface{}, error) {
	return models.OptionalString(p.Source.(*models.Branch).City), nil
}

func (r *branchResolver) District(p graphql.ResolveParams) (interface{}, error) {
	return models.OptionalString(p.Source.(*models.Branch).District), nil
}

func (r *branchResolver) State(p graphql.ResolveParams) (interface{}, error) {
	return models.OptionalString(p.Source.(*models.Branch).State), nil
}

// Bank is only called when the bank is part of the selection, the
// lookup is batched with the other branches of the same page.
func (r *branchResolver) Bank(p graphql.ResolveParams) (interface{}, error) {
	branch := p.Source.(*models.Branch)
	sc, err := scopeFrom(p.Context)
	if err != nil {
		return nil, err
	}
	bank, err := sc.bank(p.Context, branch.BankID)
	if err != nil {
		return nil, storageError(p.Context, err)
	}
	if bank == nil {
		return nil, nil
	}
	return bank, nil
}
