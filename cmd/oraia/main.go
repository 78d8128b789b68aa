package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"oraia/internal/config"
	"oraia/internal/database"
	"oraia/internal/events"
	"oraia/internal/logger"
	"oraia/internal/repository"
	"oraia/internal/service"
)

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	lexicon *service.LexiconService
	quiz    *service.QuizService
	in      io.Reader
	out     io.Writer
	closers []func() error
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oraia: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		a.logger.Debug("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "oraia %s: %v\n", os.Args[1], err)
		a.close()
		os.Exit(1)
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log, in: os.Stdin, out: os.Stdout}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	var (
		lemmas *repository.LemmaRepository
		forms  *repository.FormRepository
	)
	dataset, err := database.OpenDataset(cfg.LexiconPath)
	switch {
	case errors.Is(err, database.ErrNotFound):
		log.Warn("lexicon dataset not found, lookups are unavailable", zap.String("path", cfg.LexiconPath))
	case err != nil:
		a.close()
		return nil, err
	default:
		a.closers = append(a.closers, dataset.Close)
		if dataset.ReadOnly {
			log.Info("lexicon dataset opened read-only", zap.String("path", cfg.LexiconPath))
		}
		if lemmas, err = repository.NewLemmaRepository(ctx, dataset, log); err != nil {
			a.close()
			return nil, err
		}
		forms = repository.NewFormRepository(dataset, log)
	}

	userStore, err := database.OpenUserStore(ctx, cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, userStore.Close)

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		log.Debug("state changed",
			zap.Stringer("kind", e.Kind), zap.Int64("lemma_id", e.LemmaID), zap.String("list", e.ListTitle))
	})

	a.lexicon = service.NewLexiconService(
		lemmas,
		forms,
		repository.NewListRepository(userStore, log),
		repository.NewUserStateRepository(userStore, log),
		bus,
		log,
		service.LexiconOptions{SearchLimit: cfg.SearchLimit, LegacyStateWrites: cfg.LegacyStateWrites},
	)
	a.quiz = service.NewQuizService(a.lexicon, log)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "search":
		return a.search(ctx, args)
	case "browse":
		return a.browse(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "forms":
		return a.forms(ctx, args)
	case "favorite":
		return a.favorite(ctx, args)
	case "status":
		return a.status(ctx, args)
	case "lists":
		return a.lists(ctx, args)
	case "quiz":
		return a.runQuiz(ctx, args)
	case "count":
		return a.count(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	}
	printUsage()
	return fmt.Errorf("unknown command %q", command)
}

func printUsage() {
	fmt.Println("Oraia - Ancient Greek lexicon and quiz")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  oraia search [options] <text>        Search headwords")
	fmt.Println("  oraia browse [options]               Search as you type, one query per line")
	fmt.Println("  oraia show <lemma-id>                Show senses, state and lists of a lemma")
	fmt.Println("  oraia forms [-by category] <id>      Show inflected forms grouped by a category")
	fmt.Println("  oraia favorite <lemma-id> [on|off]   Mark or unmark a favorite")
	fmt.Println("  oraia status <lemma-id> <status>     Set the learning status")
	fmt.Println("  oraia lists [command]                Manage vocabulary lists")
	fmt.Println("  oraia quiz [options]                 Take a quiz")
	fmt.Println("  oraia count [options]                Count the questions a quiz would have")
	fmt.Println()
	fmt.Println("Search Options:")
	fmt.Println("  -contains          Match anywhere in the headword (default: prefix)")
	fmt.Println("  -favorites         Only favorites")
	fmt.Println("  -status <status>   Only lemmas with this status")
	fmt.Println("  -list <title>      Only lemmas in this list")
	fmt.Println("  -limit <n>         Maximum results (default: SEARCH_LIMIT)")
	fmt.Println()
	fmt.Println("List Commands:")
	fmt.Println("  lists                          Show every list")
	fmt.Println("  lists create [-desc d] <title> Create a list")
	fmt.Println("  lists delete <title>           Delete a list and its entries")
	fmt.Println("  lists add <title> <lemma-id>   Add a lemma to a list")
	fmt.Println("  lists remove <title> <id>      Remove a lemma from a list")
	fmt.Println("  lists show <title>             Show the entries of a list")
	fmt.Println()
	fmt.Println("Quiz Options:")
	fmt.Println("  -kind <kind>       vocabulary, conjugation, transform or principal-parts")
	fmt.Println("  -lists <a,b>       Draw from these lists")
	fmt.Println("  -favorites         Draw from favorites")
	fmt.Println("  -statuses <a,b>    Draw from lemmas with these statuses")
	fmt.Println("  -count <n>         Number of questions (default: 10)")
	fmt.Println("  -reverse           Ask for the headword given the gloss")
	fmt.Println("  -answer <type>     text, multiple-choice or flash-card")
	fmt.Println("  -tense, -mood, -voice, -person, -number <a,b>  Restrict verb forms")
	fmt.Println("  -no-other          Exclude forms with unclassified categories")
	fmt.Println()
	fmt.Println("Statuses: new, in-progress, completed, restarted, ignored")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  LEXICON_DB_PATH      Lexicon dataset path (default: ag_db.sqlite)")
	fmt.Println("  USER_DB_TYPE         User store type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  USER_DB_PATH         SQLite user store path (default: user_data.sqlite)")
	fmt.Println("  USER_DB_URL          PostgreSQL or MySQL connection URL")
	fmt.Println("  LEGACY_STATE_WRITES  Also write favorites and statuses to the dataset")
	fmt.Println("  LOG_LEVEL            debug, info, warn or error (default: info)")
}
