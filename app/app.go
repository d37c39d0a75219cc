package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/gql"
	"github.com/bankbranches/api/seed"
	"github.com/bankbranches/api/store"
)

// App is the main app
type App struct {
	DB        *sqlx.DB
	Store     *store.Store
	Config    *Config
	Engine    *gin.Engine
	Executor  *gql.Executor
	RateStore limiter.Store
}

// New creates a new app from the config, it opens the database and
// loads the seed dataset when bootstrapping is turned on.
func New(conf *Config) (*App, error) {
	driver, dsn, err := conf.Database.Source()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	db, err := apidb.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if conf.Bootstrap {
		if err = bootstrap(db, driver, conf.Seed); err != nil {
			db.Close()
			return nil, err
		}
	}
	return NewWithDB(conf, db, driver)
}

// NewWithDB creates an app that serves an already opened database.
func NewWithDB(conf *Config, db *sqlx.DB, driver string) (*App, error) {
	s := store.New(db, driver)
	exec, err := gql.NewExecutor(&gql.Resolver{
		Store:       s,
		MaxPageSize: conf.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}
	return &App{
		DB:        db,
		Store:     s,
		Config:    conf,
		Executor:  exec,
		RateStore: memory.NewStore(),
	}, nil
}

// Setup creates the gin engine with the given middleware
// and registers all the routes.
func (a *App) Setup(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)
	r.Use(cors, timeout(a.Config.RequestTimeout()))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, ErrStatus(404, "no route for "+c.Request.URL.Path))
	})
	a.RegisterRoutes(&r.RouterGroup)
	a.Engine = r
	return r
}

// Close the application resourses
func (a *App) Close() error {
	return a.Store.Close()
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Engine.ServeHTTP(w, r)
}

var _ http.Handler = (*App)(nil)

// bootstrap loads the seed into an empty database. The seed
// source is only opened when there is something to load.
func bootstrap(db *sqlx.DB, driver, source string) error {
	// downloading the seed can take a while
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*10)
	defer cancel()
	if err := apidb.CreateTables(ctx, db, driver); err != nil {
		return err
	}
	empty, err := seed.Empty(ctx, db, driver)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	log.Println("empty database, loading seed from", source)
	r, err := seed.Open(ctx, source)
	if err != nil {
		return err
	}
	defer r.Close()
	data, err := seed.ReadCSV(r)
	if err != nil {
		return errors.Wrap(err, "could not parse seed")
	}
	if err = seed.Insert(ctx, db, driver, data, seed.Options{Out: os.Stdout}); err != nil {
		return errors.Wrap(err, "bootstrap failed")
	}
	log.Printf("%d banks, %d branches loaded", len(data.Banks), len(data.Branches))
	return nil
}

// Error is an app spesific error
type Error struct {
	Msg    string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// ErrStatus creates a new error type with a spesific status code
func ErrStatus(status int, msg string) error {
	return &Error{
		Msg:    msg,
		Status: status,
	}
}

func (e *Error) Error() string {
	return e.Msg
}

// LoggerConfig is a config for gin loggers that has cleaner output
var LoggerConfig = gin.LoggerConfig{
	Formatter: func(f gin.LogFormatterParams) string {
		return fmt.Sprintf(
			"[\x1b[35m%s\x1b[0m] \"\x1b[34m%s\x1b[0m\" %6v %s%d%s %s %s\n",
			f.TimeStamp.Format(time.Stamp),
			f.ClientIP,
			f.Latency,
			statusColor(f.StatusCode), f.StatusCode, "\x1b[0m",
			f.Method,
			f.Path,
		)
	},
}
