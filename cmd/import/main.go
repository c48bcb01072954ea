// Command import loads flashcards from a CSV file into the configured database.
//
// Usage:
//
//	import -file words.csv [-category General]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/flashcards/internal/config"
	"github.com/JonMunkholm/flashcards/internal/core"
	"github.com/JonMunkholm/flashcards/internal/database"
	"github.com/JonMunkholm/flashcards/internal/logging"
)

func main() {
	file := flag.String("file", "", "path to the CSV file (required)")
	category := flag.String("category", "", "category for rows without one")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file <path> [-category <name>]")
		os.Exit(2)
	}

	if err := run(*file, *category); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(path, category string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > cfg.Import.MaxBytes {
		return fmt.Errorf("%s: file too large (%d bytes, limit %d)", path, len(data), cfg.Import.MaxBytes)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Import.Timeout)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	service := core.NewService(db.Store, cfg.Study.DefaultUserID)
	result, err := service.ImportCSV(ctx, string(data), category)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("write result: %w", encErr)
	}
	if err != nil {
		if core.IsUserFacing(err) {
			return fmt.Errorf("%s (%w)", core.FormatUserError(err), err)
		}
		return err
	}
	return nil
}
