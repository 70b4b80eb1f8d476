// Package main is the database migration tool.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"stockledger/internal/config"
)

func main() {
	var path string
	flag.StringVar(&path, "path", "", "path to migrations directory (default: from config)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if path == "" {
		path = cfg.Database.MigrationsPath
	}

	// golang-migrate selects the driver by URL scheme.
	dsn := cfg.Database.DSN
	if strings.HasPrefix(dsn, "postgres://") {
		dsn = "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	}

	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		fatal("failed to create migrator: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal("migration up failed: %v", err)
		}
		fmt.Println("migrations applied")

	case "down":
		if err := m.Steps(-1); err != nil {
			fatal("migration down failed: %v", err)
		}
		fmt.Println("rolled back one migration")

	case "step":
		if len(args) < 2 {
			fatal("step count required: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("invalid step count: %s", args[1])
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal("migration step failed: %v", err)
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied")
				return
			}
			fatal("failed to get version: %v", err)
		}
		fmt.Printf("version %d (dirty: %v)\n", version, dirty)

	case "force":
		if len(args) < 2 {
			fatal("version required: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("invalid version: %s", args[1])
		}
		if err := m.Force(version); err != nil {
			fatal("force version failed: %v", err)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`stockledger database migration tool

Usage:
  migrate [-path dir] <command> [arguments]

Commands:
  up               apply all pending migrations
  down             roll back the last migration
  step <n>         apply n migrations (negative rolls back)
  version          show current migration version
  force <version>  force set migration version`)
}
