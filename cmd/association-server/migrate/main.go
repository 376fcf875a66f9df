package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/agent-associations/pkg/app"
	"github.com/chainsafe/agent-associations/pkg/config"
	"github.com/chainsafe/agent-associations/pkg/migrations/associationdb"
	"github.com/chainsafe/agent-associations/pkg/pgutil"
	mghelper "github.com/chainsafe/agent-associations/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	app.Main("Association migrations", app.RunnerFunc(func() error {
		return migrateDB(*cfgPath, flag.Args())
	}))
}

func migrateDB(cfgPath string, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}

	ctx := context.Background()
	db, err := pgutil.ConnectDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	log.Printf("Running migrations for association database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, associationdb.Migrations)
	return mghelper.RunMigrations(ctx, migrator, args...)
}
