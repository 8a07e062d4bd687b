// Package main imports curated reference prices from a JSON dump of scraped
// listings or from a spreadsheet, and upserts the aggregated bands into the
// configured reference store.
//
// Usage:
//
//	refimport -input listings.json
//	refimport -input bands.xlsx -sheet Levis -dry-run
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/config"
	"github.com/vintagescan/pricer/internal/di"
	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/reference"
	"github.com/vintagescan/pricer/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true, Output: os.Stderr})

	if err := run(os.Args[1:], os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("Reference import failed")
	}
}

func run(args []string, stdout io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("refimport", flag.ContinueOnError)
	input := fs.String("input", "", "path to a .json or .xlsx file")
	sheet := fs.String("sheet", "", "worksheet name for .xlsx input (default: first sheet)")
	dryRun := fs.Bool("dry-run", false, "print the records instead of storing them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-input is required")
	}

	items, err := readItems(*input, *sheet)
	if err != nil {
		return err
	}

	records := reference.BuildRecords(items, time.Now())
	log.Info().
		Int("items", len(items)).
		Int("records", len(records)).
		Msg("Built reference records")

	if *dryRun {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	return store(records, log)
}

func readItems(path, sheet string) ([]reference.ScrapedItem, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return reference.ReadXLSX(path, sheet)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return reference.ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported input %s: expected .json or .xlsx", path)
	}
}

func store(records []domain.ReferencePriceRecord, log zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := di.InitializeDatabases(cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	repo := reference.NewRepository(container.ReferenceStore, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stored, err := repo.UpsertAll(ctx, records)
	log.Info().
		Int("stored", stored).
		Int("skipped", len(records)-stored).
		Msg("Reference import finished")
	return err
}
