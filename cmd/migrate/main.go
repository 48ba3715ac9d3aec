package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/aissim/internal/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding NNN_name.up.sql / .down.sql files")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: migrate [-dir migrations] <up|down>")
	}

	cfg, err := config.Load("aissim-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	direction := flag.Arg(0)
	files, err := migrationFiles(*dir, direction)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		log.Fatalf("no %s migrations in %s", direction, *dir)
	}

	for _, f := range files {
		if err := apply(ctx, pool, f); err != nil {
			log.Fatalf("%s: %v", f, err)
		}
		fmt.Printf("OK  %s\n", f)
	}
	log.Printf("all %s migrations applied", direction)
}

// migrationFiles lists the scripts for direction in execution order:
// ascending for up, descending for down.
func migrationFiles(dir, direction string) ([]string, error) {
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("unknown command: %s", direction)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*."+direction+".sql"))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	if direction == "down" {
		slices.Reverse(files)
	}
	return files, nil
}

// apply runs one script inside a transaction.
func apply(ctx context.Context, pool *pgxpool.Pool, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, string(data))
		return err
	})
}
