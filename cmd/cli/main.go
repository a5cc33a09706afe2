package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meridianfin/brs/internal/audit"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/meridianfin/brs/internal/notify"
	"github.com/meridianfin/brs/internal/pipeline"
	"github.com/meridianfin/brs/internal/recon"
	"github.com/meridianfin/brs/internal/report"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runReconciliation(log)
	case "accounts":
		listAccounts()
	case "show":
		showSummary(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("BRS CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Reconcile one account for a processing date")
	fmt.Println("  accounts  List the configured bank accounts")
	fmt.Println("  show      Print the reconciliation summary from a BRS workbook")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func parseDate(log zerolog.Logger, raw string) time.Time {
	if raw == "" {
		return recon.DayOf(time.Now().AddDate(0, 0, -1))
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		log.Fatal().Str("date", raw).Msg("Invalid date, expected YYYY-MM-DD")
	}
	return parsed
}

func runReconciliation(log zerolog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	account := fs.String("account", "", "account ID to reconcile")
	date := fs.String("date", "", "processing date (YYYY-MM-DD), defaults to yesterday")
	fs.Parse(os.Args[2:])

	if *account == "" {
		log.Fatal().Msg("Error: --account is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	recorder := audit.NewRecorder(ctx, cfg.GCP)
	defer recorder.Close()

	mailer := notify.NewMailer(cfg.SMTP, cfg.Mail)
	runner := pipeline.NewRunner(cfg, log, mailer, recorder)

	result, status, err := runner.Run(ctx, *account, parseDate(log, *date), "")
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}

	fmt.Printf("%s: %s\n", status, result)
}

func listAccounts() {
	for _, id := range config.AccountIDs() {
		profile, err := config.ProfileFor(id)
		if err != nil {
			continue
		}
		fmt.Printf("%-8s %-18s %s\n", profile.ID, profile.AccountNumber, profile.BankLabel)
	}
}

func showSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	account := fs.String("account", "", "account ID")
	date := fs.String("date", "", "processing date (YYYY-MM-DD), defaults to yesterday")
	fs.Parse(os.Args[2:])

	if *account == "" {
		log.Fatal().Msg("Error: --account is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	path := filepath.Join(cfg.Folders.OutputDir, fmt.Sprintf("BRS_%s.xlsx", *account))
	f, err := excelize.OpenFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open BRS workbook")
	}
	defer f.Close()

	sheet := report.SheetName(parseDate(log, *date))
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		log.Fatal().Str("sheet", sheet).Msg("No reconciliation sheet for that date")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read sheet")
	}

	// The summary block occupies the top of the sheet; print rows until
	// the first blank separator line.
	for _, row := range rows {
		line := ""
		for _, cell := range row {
			if cell != "" {
				line += fmt.Sprintf("%-55s", cell)
			}
		}
		if line == "" {
			break
		}
		fmt.Println(line)
	}
}
