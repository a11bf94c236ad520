package main // Interactive booking desk

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/coworking-reservation/internal/cli"
	"github.com/iliyamo/coworking-reservation/internal/config"
	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/repository"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	dbPath := flag.String("db", "", "sqlite database file (overrides DB_PATH)")
	policyFile := flag.String("policy", "", "TOML booking policy (overrides POLICY_FILE)")
	exportDir := flag.String("export-dir", "", "report export directory (overrides EXPORT_DIR)")
	flag.Parse()

	if *dbPath != "" {
		_ = os.Setenv("DB_PATH", *dbPath)
	}
	cfg, err := config.LoadWithFile(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *policyFile != "" {
		cfg.PolicyFile = *policyFile
	}
	if *exportDir != "" {
		cfg.ExportDir = *exportDir
	}

	pol, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	previous := true
	if cfg.DBDriver == config.DriverSQLite {
		if _, statErr := os.Stat(cfg.DBPath); errors.Is(statErr, os.ErrNotExist) {
			previous = false
		}
	}
	db, dialect, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	store := repository.NewStore(db, dialect)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	// Operational lines go to stderr so they never mix with the menu.
	engine := service.New(store, pol, policy.RealClock{}, nil, logger.NewWithWriter(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.New(engine, os.Stdin, os.Stdout, cli.Options{
		ExportDir:     cfg.ExportDir,
		PreviousState: previous,
		Pause:         true,
	})
	if err := app.Run(ctx); err != nil {
		log.Printf("menu: %v", err)
	}
}
