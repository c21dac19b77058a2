package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/navboard/navboard/internal/adapters/postgres"
	"github.com/navboard/navboard/internal/pkg/config"
	"github.com/navboard/navboard/internal/pkg/logging"
	"github.com/navboard/navboard/migrations"
)

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal("usage: migrate <up|down>")
	}
	down := os.Args[1] == "down"

	cfg, err := config.Load("navboard-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	files, err := migrations.Files(down)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	for _, f := range files {
		if err := apply(ctx, db, f); err != nil {
			log.Fatalf("%s: %v", f, err)
		}
		slog.Info("migration applied", "file", f)
	}
	slog.Info("migrations done", "direction", os.Args[1], "count", len(files))
}

// apply runs one script in its own transaction.
func apply(ctx context.Context, db *postgres.DB, file string) error {
	data, err := migrations.FS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, string(data))
		return err
	})
}
