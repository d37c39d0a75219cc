package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/harrybrwn/config"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/bankbranches/api/app"
	apidb "github.com/bankbranches/api/db"
	"github.com/bankbranches/api/seed"
	"github.com/bankbranches/api/store"
)

type loadConfig struct {
	Database app.DatabaseConfig `config:"db" yaml:"db"`

	Seed  string `config:"seed,usage=seed dataset url or file path"`
	Force bool   `config:"force,usage=load the seed even if the database is not empty"`
	Batch int    `config:"batch,usage=number of rows per insert statement" default:"500"`
	Out   string `config:"out,usage=write the tables to csv files in this directory"`
}

func main() {
	var conf loadConfig
	config.SetFilename("bankql.yml")
	config.SetType("yml")
	config.AddPath(".")
	config.SetConfig(&conf)
	config.ReadConfigFile() // ignore error if not there

	flag := pflag.NewFlagSet("bankload", pflag.ContinueOnError)
	config.BindToPFlagSet(flag)
	flag.SortFlags = false
	switch err := flag.Parse(os.Args[1:]); err {
	case nil:
	case pflag.ErrHelp:
		return
	default:
		log.Fatal(err)
	}
	if err := config.InitDefaults(); err != nil {
		log.Println("could not initialize config defaults")
	}
	if conf.Seed == "" {
		conf.Seed = seed.DefaultSource
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, &conf); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, conf *loadConfig) error {
	driver, dsn, err := conf.Database.Source()
	if err != nil {
		return err
	}
	db, err := apidb.Open(ctx, driver, dsn)
	if err != nil {
		return errors.Wrap(err, "could not open db")
	}
	defer db.Close()

	start := time.Now()
	r, err := seed.Open(ctx, conf.Seed)
	if err != nil {
		return err
	}
	stats, err := seed.Load(ctx, db, driver, r, seed.Options{
		BatchSize: conf.Batch,
		Force:     conf.Force,
		Out:       os.Stdout,
	})
	r.Close()
	if err != nil {
		return err
	}
	fmt.Printf("%s in %v\n", stats, time.Since(start))

	if conf.Out != "" {
		if err = export(ctx, store.New(db, driver), conf.Out); err != nil {
			return errors.Wrap(err, "csv export failed")
		}
		fmt.Println("csv files written to", conf.Out)
	}
	return nil
}
