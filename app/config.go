package app

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/harrybrwn/config"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/seed"
)

// Config is the application config struct
type Config struct {
	Host string `config:"host,shorthand=H,usage=server host" default:"0.0.0.0"`
	Port int64  `config:"port,shorthand=P,usage=server port" default:"8080"`
	Mode string `config:"mode,usage=set the gin mode ('debug'|'release')" default:"debug"`

	Timeout     int    `config:"timeout,usage=request timeout in seconds" default:"10"`
	Rate        string `config:"rate,usage=graphql rate limit per client ('<limit>-<S|M|H|D>'), empty for no limit" default:"100-M"`
	MaxPageSize int    `config:"max_page_size,usage=max number of items in one page" default:"100"`

	Bootstrap bool   `config:"bootstrap,usage=load the seed dataset if the database is empty"`
	Seed      string `config:"seed,usage=seed dataset url or file path"`

	Database DatabaseConfig `config:"db" yaml:"db"`
}

// DatabaseConfig is the part of the config struct that
// handles database info
type DatabaseConfig struct {
	Driver string `config:"driver,usage=database driver name ('sqlite3'|'postgres'|'mysql')" default:"sqlite3"`
	// URL overrides every other database setting
	URL      string `config:"url,notflag" env:"DATABASE_URL"`
	Host     string `config:"host,shorthand=h" default:"localhost"`
	Port     int    `config:"port,shorthand=p" default:"5432" env:"POSTGRES_PORT"`
	User     string `config:"user,shorthand=U"`
	Password string `config:"password" env:"POSTGRES_PASSWORD"`
	// Database name or database filename
	Name string `config:"name,shorthand=d,usage=name of the database" default:"banks"`
	SSL  string `config:"ssl" default:"disable"`
}

// Init sets up command line flags and parses command line args and gets config defaults
func (c *Config) Init() error {
	flag := pflag.NewFlagSet("api", pflag.ContinueOnError)
	config.BindToPFlagSet(flag)
	flag.SortFlags = false
	switch err := flag.Parse(os.Args[1:]); err {
	case nil:
		break
	case pflag.ErrHelp:
		os.Exit(0)
	default:
		return err
	}
	if err := config.InitDefaults(); err != nil {
		return err
	}
	if c.Seed == "" {
		c.Seed = seed.DefaultSource
	}
	return nil
}

// RequestTimeout is the max time spent on one request.
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Timeout) * time.Second
}

// Source returns the driver name and data source name. A DATABASE_URL
// style url takes precedence over the individual settings.
func (dbc *DatabaseConfig) Source() (driver, dsn string, err error) {
	if dbc.URL != "" {
		return parseDatabaseURL(dbc.URL)
	}
	dsn, err = dbc.GetDSN()
	return dbc.Driver, dsn, err
}

// GetDSN builds the database dns from the database config parameters
func (dbc *DatabaseConfig) GetDSN() (string, error) {
	switch dbc.Driver {
	case apidb.Postgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dbc.Host, dbc.Port, dbc.User, dbc.Password, dbc.Name, dbc.SSL,
		), nil
	case apidb.SQLite:
		name := dbc.Name
		if filepath.Ext(name) == "" {
			name += ".db"
		}
		return sqliteDSN(name), nil
	case apidb.MySQL:
		conf := mysql.NewConfig()
		conf.User = dbc.User
		conf.Passwd = dbc.Password
		conf.Net = "tcp"
		conf.Addr = net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
		conf.DBName = dbc.Name
		return conf.FormatDSN(), nil
	default:
		return "", errors.Wrap(apidb.ErrUnknownDriver, dbc.Driver)
	}
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on", path)
}

// parseDatabaseURL accepts "postgres://", "postgresql://",
// "sqlite:///<file>" and "mysql://" urls.
func parseDatabaseURL(raw string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return apidb.Postgres, raw, nil
	case strings.HasPrefix(raw, "sqlite:///"):
		path := strings.TrimPrefix(raw, "sqlite:///")
		if path == "" {
			return "", "", errors.New("sqlite url has no file path")
		}
		return apidb.SQLite, sqliteDSN(path), nil
	case strings.HasPrefix(raw, "mysql://"):
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", errors.Wrap(err, "invalid database url")
		}
		conf := mysql.NewConfig()
		conf.User = u.User.Username()
		conf.Passwd, _ = u.User.Password()
		conf.Net = "tcp"
		conf.Addr = u.Host
		conf.DBName = strings.TrimPrefix(u.Path, "/")
		return apidb.MySQL, conf.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", raw)
	}
}

// Address formats the server address:port from the app config
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.FormatInt(c.Port, 10))
}

func statusColor(status int) string {
	var id int
	switch {
	case status == 0:
		id = 0
	case status < 300:
		id = 32
	case status < 400:
		id = 34
	case status < 500:
		id = 33
	case status < 600:
		id = 31
	default:
		id = 0
	}
	return fmt.Sprintf("\033[%d;1m", id)
}
