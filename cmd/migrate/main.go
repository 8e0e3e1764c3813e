package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"bookworld/internal/logger"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL")})

	cfg, err := loadConfig()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, *command, *name, log); err != nil {
		log.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg migrateConfig, command, name string, log *slog.Logger) error {
	if command == "create" {
		if name == "" {
			return errNameRequired
		}
		return goose.Create(nil, cfg.MigrationsDir, name, "sql")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, cfg.MigrationsDir); err != nil {
			return err
		}
		log.Info("migrations applied", "dir", cfg.MigrationsDir)
	case "down":
		if err := goose.DownContext(ctx, db, cfg.MigrationsDir); err != nil {
			return err
		}
		log.Info("migration rolled back", "dir", cfg.MigrationsDir)
	case "status":
		return goose.StatusContext(ctx, db, cfg.MigrationsDir)
	default:
		return errUnknownCommand(command)
	}
	return nil
}
