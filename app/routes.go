package app

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bankbranches/api/gql"
)

// GraphQLPath is where the graphql endpoint and playground are served.
const GraphQLPath = "/gql"

// RegisterRoutes will setup all the app routes
func (a *App) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/", index)
	g.GET("/health", a.health)

	api := g.Group(GraphQLPath, rateLimit(a.RateStore, a.Config.Rate))
	api.POST("", gql.Handler(a.Executor))
	api.GET("", a.graphqlGet)
	g.OPTIONS(GraphQLPath, func(c *gin.Context) { c.Status(204) })
}

type endpoints struct {
	GraphQL  string `json:"graphql"`
	GraphiQL string `json:"graphiql"`
	Health   string `json:"health"`
}

type status struct {
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
	Endpoints *endpoints `json:"endpoints,omitempty"`
}

func index(c *gin.Context) {
	c.JSON(http.StatusOK, &status{
		Status:  "running",
		Message: "Bank Branches GraphQL API",
		Endpoints: &endpoints{
			GraphQL:  GraphQLPath,
			GraphiQL: GraphQLPath + " (visit in browser)",
			Health:   "/health",
		},
	})
}

func (a *App) health(c *gin.Context) {
	if err := a.Store.Ping(c.Request.Context()); err != nil {
		log.Println("health check failed:", err)
		c.JSON(http.StatusServiceUnavailable, &status{
			Status: "unhealthy",
			Error:  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, &status{Status: "healthy"})
}

// graphqlGet runs the query given in the url and
// serves the playground when there is none.
func (a *App) graphqlGet(c *gin.Context) {
	if _, ok := c.GetQuery("query"); ok {
		gql.Handler(a.Executor)(c)
		return
	}
	gql.Playground(GraphQLPath)(c)
}
