package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/possuite/backend/internal/infrastructure/logger"
	"github.com/possuite/backend/internal/infrastructure/migration"
	"github.com/possuite/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:   logLevel,
		Format:  "console",
		Output:  "stdout",
		Service: "pos-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(args, dir, log); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(args []string, dir string, log *zap.Logger) error {
	command := args[0]

	// create and list only touch files.
	switch command {
	case "create":
		if dir == "" {
			dir = "migrations"
		}
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		f, err := migration.Create(dir, args[1], description, time.Now())
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", f.Version),
			zap.String("up_file", f.UpPath),
			zap.String("down_file", f.DownPath),
		)
		return nil

	case "list":
		var fsys fs.FS = migrations.FS
		if dir != "" {
			fsys = os.DirFS(dir)
		}
		entries, err := migration.List(fsys)
		if err != nil {
			return err
		}
		for _, e := range entries {
			down := ""
			if !e.HasDown {
				down = " (no down)"
			}
			fmt.Printf("  %d  %s%s\n", e.Version, e.Name, down)
		}
		log.Info("Migrations found", zap.Int("count", len(entries)))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		return fmt.Errorf("SQL migrations target PostgreSQL; SQLite databases are created with AutoMigrate")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.NewEmbedded(db, log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	// Closing the migrator also closes db.
	defer func() { _ = m.Close() }()

	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.GoTo(uint(version))

	case "status", "version":
		status, err := m.Status()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current schema version",
			zap.Uint("version", status.Version),
			zap.Bool("dirty", status.Dirty),
		)
		return nil

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.Force(version)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `POS schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate up or down to a version
  status                Show the current schema version
  force <version>       Mark a version clean after a failed migration
  create <name> [desc]  Write a new up/down pair (default dir: ./migrations)
  list                  List known migrations

Flags:
  -path string          Migrations directory (default: embedded set)
  -log-level string     debug, info, warn, error (default: info)

Connection settings come from config.toml or POS_DATABASE_* variables.
`)
}
