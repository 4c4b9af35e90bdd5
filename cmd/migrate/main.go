package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"asset-tracker/internal/config"
	"asset-tracker/internal/db"
	"asset-tracker/internal/logging"
)

const usage = `Usage: migrate [--config file] [--dsn url] <command>

Commands:
  up          apply all pending migrations
  down        roll back the latest migration
  version     print the applied version
  force N     set the version to N without running migrations
`

func main() {
	fs := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	configFile := fs.StringP("config", "c", "", "optional YAML config file")
	dsn := fs.String("dsn", "", "database URL (overrides DB_DSN)")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	if *dsn != "" {
		cfg.DBDSN = *dsn
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(db.NewMigrator(cfg.DBDSN, logger), fs.Args()); err != nil {
		logger.Error("migration command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(m *db.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%v\n", v, dirty)
		return nil
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force requires a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		return m.Force(v)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
