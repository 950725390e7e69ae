package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/safar/delivery-admin/internal/config"
	"github.com/safar/delivery-admin/internal/database"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.up.sql / *.down.sql files")
	flag.Parse()

	if flag.NArg() < 1 {
		slog.Error("usage: go run scripts/run_migrations.go [-dir migrations] up|down")
		os.Exit(2)
	}
	direction := database.Direction(flag.Arg(0))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	n, err := database.Migrate(ctx, db, *dir, direction)
	if err != nil {
		slog.Error("run migrations", "direction", direction, "error", err)
		os.Exit(1)
	}

	slog.Info("migrations complete", "count", n, "direction", direction)
}
