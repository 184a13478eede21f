package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/task-manager/internal/config"
	"github.com/Rrens/task-manager/internal/repository/postgres"
	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
)

func main() {
	source := flag.String("source", "", "migration source URL, e.g. file://migrations (default: embedded)")
	steps := flag.Int("steps", 0, "number of migrations to apply with the steps command")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|steps|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		fail("migrations only apply to the postgres driver; sqlite creates its schema on open")
	}

	fmt.Printf("Connecting to database at %s:%d...\n", cfg.Database.Host, cfg.Database.Port)

	m, err := postgres.NewMigrator(cfg.Database.DSN(), *source)
	if err != nil {
		fail("%v", err)
	}
	defer m.Close()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if *steps == 0 {
			fail("-steps must be non-zero")
		}
		err = m.Steps(*steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			fail("%v", verr)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return
	default:
		flag.Usage()
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No changes")
		return
	}
	if err != nil {
		fail("migrate %s: %v", cmd, err)
	}
	fmt.Printf("Migrate %s applied successfully\n", cmd)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
