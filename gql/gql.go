package gql

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/pkg/errors"
)

// Request is a graphql request.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Executor runs graphql documents against the store.
type Executor struct {
	schema   graphql.Schema
	resolver *Resolver
}

// NewExecutor builds the schema for a resolver.
func NewExecutor(r *Resolver) (*Executor, error) {
	schema, err := r.Schema()
	if err != nil {
		return nil, errors.Wrap(err, "invalid graphql schema")
	}
	return &Executor{schema: schema, resolver: r}, nil
}

// Schema returns the executable schema.
func (e *Executor) Schema() graphql.Schema { return e.schema }

// Do executes one request. The database handle used by the request is
// released before Do returns whether or not execution failed.
func (e *Executor) Do(ctx context.Context, req *Request) *graphql.Result {
	if err := checkVariables(req); err != nil {
		return &graphql.Result{Errors: gqlerrors.FormatErrors(err)}
	}
	ctx, sc := newScope(ctx, e.resolver.Store)
	defer func() {
		if err := sc.Close(); err != nil {
			log.Println("could not release database handle:", err)
		}
	}()
	return graphql.Do(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

var errNoQuery = errors.New("must provide query string")

// Handler returns a graphql handler function
func Handler(e *Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, &graphql.Result{
				Errors: gqlerrors.FormatErrors(err),
			})
			return
		}
		c.JSON(http.StatusOK, e.Do(c.Request.Context(), req))
	}
}

// Playground returns a hander func for the graphql playground
func Playground(endpoint string) gin.HandlerFunc {
	h := playground.Handler("Bank Branches", endpoint)
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func bindRequest(c *gin.Context) (*Request, error) {
	var req Request
	switch {
	case c.Request.Method == http.MethodGet:
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if vars := c.Query("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return nil, errors.Wrap(err, "variables are invalid json")
			}
		}
	case strings.HasPrefix(c.ContentType(), "application/graphql"):
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		req.Query = string(body)
	case c.ContentType() == gin.MIMEPOSTForm:
		req.Query = c.PostForm("query")
		req.OperationName = c.PostForm("operationName")
	default:
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errors.Wrap(err, "request body is invalid json")
		}
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errNoQuery
	}
	return &req, nil
}
