package gql

import (
	"github.com/graphql-go/graphql"
)

// Schema builds the graphql schema. Every type is declared here by
// hand and every field is bound to an explicit resolver.
func (r *Resolver) Schema() (graphql.Schema, error) {
	var (
		bankType, branchType             *graphql.Object
		bankConnection, branchConnection *graphql.Object

		query  = &queryResolver{r}
		bank   = &bankResolver{r}
		branch = &branchResolver{r}
		info   = pageInfoType()
	)

	bankType = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Bank",
		Description: "A banking institution.",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": &graphql.Field{
					Type:    graphql.NewNonNull(graphql.Int),
					Resolve: bank.ID,
				},
				"name": &graphql.Field{
					Type:    graphql.NewNonNull(graphql.String),
					Resolve: bank.Name,
				},
				"branches": &graphql.Field{
					Type:        graphql.NewNonNull(branchConnection),
					Description: "Branches of this bank ordered by IFSC code.",
					Args:        pageArgsConfig(),
					Resolve:     bank.Branches,
				},
			}
		}),
	})

	branchType = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Branch",
		Description: "A bank branch identified by its IFSC code.",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"ifsc": &graphql.Field{
					Type:    graphql.NewNonNull(graphql.String),
					Resolve: branch.IFSC,
				},
				"bankId": &graphql.Field{
					Type:    graphql.NewNonNull(graphql.Int),
					Resolve: branch.BankID,
				},
				"branch": &graphql.Field{
					Type:    graphql.NewNonNull(graphql.String),
					Resolve: branch.Branch,
				},
				"address":  &graphql.Field{Type: graphql.String, Resolve: branch.Address},
				"city":     &graphql.Field{Type: graphql.String, Resolve: branch.City},
				"district": &graphql.Field{Type: graphql.String, Resolve: branch.District},
				"state":    &graphql.Field{Type: graphql.String, Resolve: branch.State},
				"bank": &graphql.Field{
					Type:        bankType,
					Description: "The bank that owns this branch.",
					Resolve:     branch.Bank,
				},
			}
		}),
	})

	bankConnection = connectionType("Bank", bankType, info)
	branchConnection = connectionType("Branch", branchType, info)

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"banks": &graphql.Field{
					Type:        bankConnection,
					Description: "All banks ordered by id.",
					Args:        pageArgsConfig(),
					Resolve:     query.Banks,
				},
				"branches": &graphql.Field{
					Type:        branchConnection,
					Description: "All bank branches ordered by IFSC code.",
					Args:        pageArgsConfig(),
					Resolve:     query.Branches,
				},
				"bank": &graphql.Field{
					Type:        bankType,
					Description: "Get a bank by id.",
					Args: graphql.FieldConfigArgument{
						"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					},
					Resolve: query.Bank,
				},
				"branchByIfsc": &graphql.Field{
					Type:        branchType,
					Description: "Get a specific branch by IFSC code.",
					Args: graphql.FieldConfigArgument{
						"ifsc": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					},
					Resolve: query.branchByCode("ifsc"),
				},
				"branchByCode": &graphql.Field{
					Type:        branchType,
					Description: "Get a specific branch by its branch code (IFSC).",
					Args: graphql.FieldConfigArgument{
						"code": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					},
					Resolve: query.branchByCode("code"),
				},
				"branchesByBank": &graphql.Field{
					Type:        graphql.NewList(branchType),
					Description: "Get all branches of a specific bank.",
					Args: graphql.FieldConfigArgument{
						"bankName": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					},
					Resolve: query.BranchesByBank,
				},
			},
		}),
	})
}

func pageArgsConfig() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"first": &graphql.ArgumentConfig{
			Type:        graphql.Int,
			Description: "Page size.",
		},
		"after": &graphql.ArgumentConfig{
			Type:        graphql.String,
			Description: "Return items after this cursor.",
		},
	}
}

func pageInfoType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*pageInfo).hasNextPage, nil
				},
			},
			"hasPreviousPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*pageInfo).hasPreviousPage, nil
				},
			},
			"startCursor": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return optional(p.Source.(*pageInfo).startCursor), nil
				},
			},
			"endCursor": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return optional(p.Source.(*pageInfo).endCursor), nil
				},
			},
		},
	})
}

func connectionType(name string, node *graphql.Object, info *graphql.Object) *graphql.Object {
	edgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Edge",
		Fields: graphql.Fields{
			"cursor": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*edge).cursor, nil
				},
			},
			"node": &graphql.Field{
				Type: node,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*edge).node, nil
				},
			},
		},
	})
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Connection",
		Fields: graphql.Fields{
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(edgeType)),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c := p.Source.(*connection)
					if err := c.load(); err != nil {
						return nil, err
					}
					return c.edges, nil
				},
			},
			"pageInfo": &graphql.Field{
				Type: graphql.NewNonNull(info),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c := p.Source.(*connection)
					if err := c.load(); err != nil {
						return nil, err
					}
					return &c.info, nil
				},
			},
			"totalCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*connection).count()
				},
			},
		},
	})
}

func optional(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
