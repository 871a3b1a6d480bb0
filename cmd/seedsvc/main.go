package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	config "github.com/avvvet/tabletop-services/configs"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/db"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/service"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/store"
	"github.com/avvvet/tabletop-services/internal/seed"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "seed"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		filePath    string
		postgresURL string
		dryRun      bool
		timeout     time.Duration
	)

	flagSet := pflag.NewFlagSet("seedsvc", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "configs/reference.yaml", "reference data file (origins, classes, features, skills)")
	flagSet.StringVar(&postgresURL, "postgres-url", "", "database url (default: $POSTGRES_URL)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "parse and validate the file without writing")
	flagSet.DurationVar(&timeout, "timeout", 2*time.Minute, "overall import timeout")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	config.LoadEnv(SERVICE_NAME)

	catalog, err := seed.LoadFile(filePath)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"file":     filePath,
		"origins":  len(catalog.Origins),
		"classes":  len(catalog.Classes),
		"features": len(catalog.Features),
		"skills":   len(catalog.Skills),
	}).Info("reference file loaded")

	if dryRun {
		fmt.Printf("%s is valid: %d origins, %d classes, %d features, %d skills\n",
			filePath, len(catalog.Origins), len(catalog.Classes), len(catalog.Features), len(catalog.Skills))
		return nil
	}

	if postgresURL == "" {
		postgresURL = os.Getenv("POSTGRES_URL")
	}
	if postgresURL == "" {
		return fmt.Errorf("--postgres-url or POSTGRES_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := db.Connect(postgresURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.ClosePool()

	if _, err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	summary, err := service.NewReferenceService(store.NewReferenceStore(pool)).Import(ctx, catalog)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d origins, %d lineages, %d classes, %d subclasses, %d features, %d options, %d skills\n",
		summary.Origins, summary.Lineages, summary.Classes, summary.Subclasses, summary.Features, summary.Options, summary.Skills)
	return nil
}
