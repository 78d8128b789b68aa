package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"oraia/internal/config"
	"oraia/internal/database"
	"oraia/internal/importer"
	"oraia/internal/logger"
	"oraia/internal/models"
	"oraia/internal/repository"
)

// errNoAnalyses makes check-forms exit with status 1
var errNoAnalyses = errors.New("no analyses found")

func main() {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importDB := importCmd.String("db", "", "dataset path (default: LEXICON_DB_PATH)")
	importInput := importCmd.String("input", "AncientGreek-2.jsonl", "wiktextract JSONL file")
	importPOS := importCmd.String("pos", importer.DefaultPOS, "comma separated POS codes to import")
	importCommit := importCmd.Int("commit-every", 1000, "commit every N entries")

	checkCmd := flag.NewFlagSet("check-forms", flag.ExitOnError)
	checkDB := checkCmd.String("db", "", "dataset path (default: LEXICON_DB_PATH)")

	setupCmd := flag.NewFlagSet("setup-user-db", flag.ExitOnError)
	setupDB := setupCmd.String("db", "", "user store path (default: USER_DB_PATH)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "importer: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "importer: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "import":
		importCmd.Parse(os.Args[2:])
		err = handleImport(ctx, log, orDefault(*importDB, cfg.LexiconPath), *importInput, *importPOS, *importCommit)
	case "check-forms":
		checkCmd.Parse(os.Args[2:])
		if checkCmd.NArg() == 0 {
			fmt.Println("Error: a form is required")
			checkCmd.PrintDefaults()
			os.Exit(2)
		}
		err = handleCheckForms(ctx, log, orDefault(*checkDB, cfg.LexiconPath), strings.Join(checkCmd.Args(), " "))
	case "setup-user-db":
		setupCmd.Parse(os.Args[2:])
		err = handleSetupUserDB(ctx, log, cfg, *setupDB)
	default:
		printUsage()
		os.Exit(2)
	}

	if errors.Is(err, errNoAnalyses) {
		stop()
		log.Sync()
		os.Exit(1)
	}
	if err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		stop()
		log.Sync()
		os.Exit(1)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func handleImport(ctx context.Context, log *zap.Logger, dbPath, input, posList string, commitEvery int) error {
	allowed := importer.ParsePOSList(posList)
	if len(allowed) == 0 {
		return fmt.Errorf("POS set is empty, provide -pos")
	}

	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	db, err := database.CreateDataset(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("importing dataset",
		zap.String("input", input),
		zap.String("db", dbPath),
		zap.Strings("pos", importer.SortedPOS(allowed)))

	report, err := importer.New(db, log).Import(ctx, file, importer.Options{AllowedPOS: allowed, CommitEvery: commitEvery})
	if report != nil {
		printReport(report)
	}
	return err
}

func printReport(r *importer.Report) {
	fmt.Printf("\nImported %d entries\n", r.Imported)
	if r.Skipped() == 0 {
		return
	}
	fmt.Println("\nSkip report")
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("json_decode_error: %d\n", r.JSONDecodeError)
	fmt.Printf("non_grc: %d\n", r.NonGreek)
	fmt.Printf("missing_pos: %d\n", r.MissingPOS)
	fmt.Printf("pos_not_allowed: %d\n", r.POSNotAllowed)
	fmt.Printf("missing_headword: %d\n", r.MissingHeadword)
	if breakdown := r.SkippedPOSBreakdown(); len(breakdown) > 0 {
		fmt.Println("\nSkipped POS breakdown")
		for _, c := range breakdown {
			fmt.Printf("%s: %d\n", c.POS, c.Count)
		}
	}
}

func handleCheckForms(ctx context.Context, log *zap.Logger, dbPath, form string) error {
	db, err := database.OpenDatasetReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	analyses, err := repository.NewFormRepository(db, log).LookupForm(ctx, strings.TrimSpace(form))
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		fmt.Printf("No analyses found for %q\n", form)
		return errNoAnalyses
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEADWORD\tPOS\tTENSE\tMOOD\tVOICE\tPERSON\tNUMBER\tCASE\tGENDER\tTYPE\tDIALECT\tSOURCE")
	for _, a := range analyses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Headword, a.POSCode, dash(a.Tense), dash(a.Mood), dash(a.Voice), dash(a.Person), dash(a.Number),
			dash(a.Case), dash(a.Gender), dash(a.VerbFormType), orDefault(a.Dialect, models.DefaultDialect), dash(a.Source))
	}
	return tw.Flush()
}

func dash(s string) string {
	return orDefault(s, "-")
}

func handleSetupUserDB(ctx context.Context, log *zap.Logger, cfg *config.Config, path string) error {
	storeCfg := *cfg
	if path != "" {
		storeCfg.UserDBType = "sqlite"
		storeCfg.UserDBPath = path
	}
	db, err := database.OpenUserStore(ctx, &storeCfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	target := storeCfg.UserDBPath
	if db.Dialect.MigrationsSubdir() != "sqlite" {
		target = db.Dialect.MigrationsSubdir() + " database"
	}
	log.Info("user store ready", zap.String("target", target))
	fmt.Printf("User database ready at %s\n", target)
	return nil
}

func printUsage() {
	fmt.Println("Oraia Dataset Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  importer import [options]          Import a wiktextract JSONL dump")
	fmt.Println("  importer check-forms [-db p] <form> Print every analysis of a surface form")
	fmt.Println("  importer setup-user-db [-db path]  Create the user-state schema")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -db <file>           Dataset path (default: LEXICON_DB_PATH)")
	fmt.Println("  -input <file>        JSONL input (default: AncientGreek-2.jsonl)")
	fmt.Println("  -pos <list>          POS codes to import")
	fmt.Println("  -commit-every <n>    Commit every N entries (default: 1000)")
	fmt.Println()
	fmt.Println("check-forms exits with status 1 when the form has no analyses.")
}
