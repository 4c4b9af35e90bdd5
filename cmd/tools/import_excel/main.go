package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"asset-tracker/internal/config"
	"asset-tracker/internal/db"
	"asset-tracker/internal/validation"
	"asset-tracker/pkg/importer"
)

func main() {
	var (
		filePath    = pflag.String("file", "", "path to the .xlsx workbook")
		mappingPath = pflag.String("mapping", "", "column mapping YAML (default: built-in mapping)")
		dryRun      = pflag.Bool("dry-run", false, "validate and count without committing")
		maxErrors   = pflag.Int("max-errors", importer.DefaultMaxErrors, "abort after this many row errors")
		dsn         = pflag.String("dsn", "", "database URL (overrides DB_DSN)")
	)
	pflag.Parse()

	if *filePath == "" {
		fmt.Println("Error: --file is required")
		fmt.Println("Usage: import_excel --file=path.xlsx [--mapping=mapping.yaml] [--dry-run] [--max-errors=50]")
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dsn != "" {
		cfg.DBDSN = *dsn
	}

	ctx := context.Background()
	pool, err := db.OpenPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing assets from %s (dry_run=%v)\n", *filePath, *dryRun)
	fmt.Println(strings.Repeat("=", 61))

	summary, err := importer.ImportExcel(ctx, pool, file, importer.ImportOptions{
		MappingPath: *mappingPath,
		DryRun:      *dryRun,
		MaxErrors:   *maxErrors,
		Validator:   validation.New(),
	})
	printSummary(summary)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}

func printSummary(summary importer.ImportSummary) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total inserted: %d\n", summary.Inserted)
	fmt.Printf("Total updated: %d\n", summary.Updated)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: inserted=%d, updated=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Inserted, sheet.Updated, sheet.Skipped, sheet.Errors)

			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}
}
