package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"oraia/internal/config"
	"oraia/internal/database"
	"oraia/internal/logger"
	"oraia/internal/repository"
	"oraia/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: oraia_backup_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Opening the store also brings its schema up to date
	db, err := database.OpenUserStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open user store", zap.Error(err))
	}
	defer db.Close()

	// Import checks lemma ids against the dataset; export does not need it
	var lemmas service.LemmaChecker
	dataset, err := database.OpenDatasetReadOnly(cfg.LexiconPath)
	switch {
	case errors.Is(err, database.ErrNotFound):
		log.Warn("lexicon dataset not found, import is unavailable", zap.String("path", cfg.LexiconPath))
	case err != nil:
		log.Fatal("failed to open lexicon dataset", zap.Error(err))
	default:
		defer dataset.Close()
		repo, err := repository.NewLemmaRepository(ctx, dataset, log)
		if err != nil {
			log.Fatal("failed to inspect lexicon dataset", zap.Error(err))
		}
		lemmas = repo
	}

	backupService := service.NewBackupService(db, lemmas, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, log, backupService, *importInput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log *zap.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("oraia_backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("failed to create output directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	log.Info("exporting user data", zap.String("path", outputPath))
	if err := backupService.Export(ctx, outputPath); err != nil {
		log.Fatal("export failed", zap.Error(err))
	}

	if info, err := os.Stat(outputPath); err == nil {
		log.Info("export complete", zap.Int64("bytes", info.Size()))
	}
}

func handleImport(ctx context.Context, log *zap.Logger, backupService *service.BackupService, inputPath string) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal("input file does not exist", zap.String("path", inputPath))
	}

	log.Info("importing user data", zap.String("path", inputPath))
	report, err := backupService.Import(ctx, inputPath)
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}
	log.Info("import complete",
		zap.Int("lists", report.Lists),
		zap.Int("entries", report.Entries),
		zap.Int("states", report.States),
		zap.Int("unknown_lemmas", len(report.UnknownLemmas)))
}

func printUsage() {
	fmt.Println("Oraia User Data Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export lists, entries and lemma states to JSON")
	fmt.Println("  backup import [options]    Merge a JSON backup into the user store")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: oraia_backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println()
	fmt.Println("Importing the same backup twice leaves the store unchanged.")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  USER_DB_TYPE     User store type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  USER_DB_PATH     SQLite user store path (default: user_data.sqlite)")
	fmt.Println("  USER_DB_URL      PostgreSQL or MySQL connection URL")
}
