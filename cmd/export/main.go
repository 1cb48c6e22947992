// Command export writes a scenario's workbook to a local .xlsx file.
//
// Usage:
//
//	go run ./cmd/export --scenario <id> [--sheet all] [--currency usd|local] [--year y1] [--out file.xlsx]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"fizibilite/internal/cache"
	"fizibilite/internal/config"
	"fizibilite/internal/db"
	"fizibilite/internal/export"
	"fizibilite/internal/logger"
	"fizibilite/internal/xlsx"
)

func main() {
	scenario := flag.String("scenario", "", "Scenario id (required)")
	sheet := flag.String("sheet", export.SheetAll, "hr|capacity|norm|basic|statements|report|all")
	currency := flag.String("currency", "", "Report currency: usd or local (default: input currency)")
	year := flag.String("year", "y1", "Projection year for single-year sheets")
	out := flag.String("out", "", "Output file (default: derived from the scenario)")
	flag.Parse()

	if err := run(*scenario, export.Request{Sheet: *sheet, Currency: *currency, Year: *year}, *out); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(scenario string, req export.Request, out string) error {
	id, err := uuid.Parse(scenario)
	if err != nil {
		return fmt.Errorf("invalid --scenario %q", scenario)
	}
	req, err = req.Normalize()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	c := cache.New(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB, TTL: cfg.CacheTTL})
	if err := c.Connect(ctx); err != nil {
		logger.WithModule("export").WithError(err).Warn("redis unavailable, building without cache")
	}
	defer c.Close()

	src, err := export.Load(ctx, conn, id)
	if err != nil {
		return err
	}
	if out == "" {
		out = export.Filename(src.Scenario, req)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := xlsx.WriteWorkbook(f, export.Build(ctx, c, src, req)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
