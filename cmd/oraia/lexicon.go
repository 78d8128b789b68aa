package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"oraia/internal/models"
	"oraia/internal/morphology"
	"oraia/internal/service"
)

func parseLemmaID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid lemma id %q", s)
	}
	return id, nil
}

func searchFlags(name string) (*flag.FlagSet, func() (models.SearchParams, error)) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	contains := fs.Bool("contains", false, "match anywhere in the headword")
	favorites := fs.Bool("favorites", false, "only favorites")
	status := fs.String("status", "", "only lemmas with this learning status")
	list := fs.String("list", "", "only lemmas in this vocabulary list")
	limit := fs.Int("limit", 0, "maximum number of results")

	return fs, func() (models.SearchParams, error) {
		p := models.SearchParams{
			Query:         strings.Join(fs.Args(), " "),
			FavoritesOnly: *favorites,
			ListTitle:     *list,
			Limit:         *limit,
		}
		if *contains {
			p.Mode = models.SearchContains
		}
		if *status != "" {
			s, err := models.ParseLearningStatus(*status)
			if err != nil {
				return p, err
			}
			p.Status = &s
		}
		return p, nil
	}
}

func (a *app) search(ctx context.Context, args []string) error {
	fs, params := searchFlags("search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := params()
	if err != nil {
		return err
	}
	lemmas, err := a.lexicon.Search(ctx, p)
	if err != nil {
		return err
	}
	printSummaries(a.out, lemmas)
	return nil
}

// browse reads one query per line and prints the newest result only
func (a *app) browse(ctx context.Context, args []string) error {
	fs, params := searchFlags("browse")
	if err := fs.Parse(args); err != nil {
		return err
	}
	base, err := params()
	if err != nil {
		return err
	}

	searcher := service.NewSearcher(a.lexicon, a.cfg.SearchDebounce, func(r service.SearchResult) {
		if r.Err != nil {
			fmt.Fprintf(a.out, "search %q failed: %v\n", r.Params.Query, r.Err)
			return
		}
		fmt.Fprintf(a.out, "-- %q: %d result(s)\n", r.Params.Query, len(r.Lemmas))
		printSummaries(a.out, r.Lemmas)
	})
	defer searcher.Wait()

	scanner := bufio.NewScanner(a.in)
	for scanner.Scan() {
		p := base
		p.Query = scanner.Text()
		searcher.Submit(ctx, p)
	}
	return scanner.Err()
}

func printSummaries(w io.Writer, lemmas []models.LemmaSummary) {
	if len(lemmas) == 0 {
		fmt.Fprintln(w, "No lemmas found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tHEADWORD\tPOS\tSTATUS\tFAV")
	for _, l := range lemmas {
		fav := ""
		if l.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.ID, l.Headword, l.PrimaryPOS, l.Status, fav)
	}
	tw.Flush()
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: oraia show <lemma-id>")
	}
	id, err := parseLemmaID(args[0])
	if err != nil {
		return err
	}
	d, err := a.lexicon.Detail(ctx, id)
	if err != nil {
		return err
	}
	lists, err := a.lexicon.ListsContaining(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", d.Headword, strings.Join(d.POSCodes, ", "))
	fmt.Fprintf(a.out, "status: %s  favorite: %t\n", d.Status, d.IsFavorite)
	if d.Notes != "" {
		fmt.Fprintf(a.out, "notes: %s\n", d.Notes)
	}
	for _, g := range d.SenseGroups {
		fmt.Fprintf(a.out, "\n%s\n", g.POSCode)
		for i, s := range g.Senses {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, s.Gloss)
			if s.Definition != "" {
				fmt.Fprintf(a.out, "     %s\n", s.Definition)
			}
		}
	}
	if len(lists) > 0 {
		fmt.Fprintf(a.out, "\nlists: %s\n", strings.Join(lists, ", "))
	}
	return nil
}

var groupCategories = map[string]morphology.Category{
	"person":  morphology.Person,
	"number":  morphology.Number,
	"tense":   morphology.Tense,
	"mood":    morphology.Mood,
	"voice":   morphology.Voice,
	"case":    morphology.Case,
	"gender":  morphology.Gender,
	"dialect": morphology.Dialect,
}

func (a *app) forms(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forms", flag.ContinueOnError)
	by := fs.String("by", "", "group by person, number, tense, mood, voice, case, gender or dialect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: oraia forms [-by category] <lemma-id>")
	}
	id, err := parseLemmaID(fs.Arg(0))
	if err != nil {
		return err
	}
	d, err := a.lexicon.Detail(ctx, id)
	if err != nil {
		return err
	}

	verb := d.PrimaryPOS() == "verb"
	category := morphology.Case
	if verb {
		category = morphology.Tense
	}
	if *by != "" {
		c, ok := groupCategories[strings.ToLower(*by)]
		if !ok {
			return fmt.Errorf("unknown category %q", *by)
		}
		category = c
	}

	fmt.Fprintf(a.out, "%s by %s\n", d.Headword, category)
	if verb {
		forms, err := a.lexicon.VerbForms(ctx, id)
		if err != nil {
			return err
		}
		for _, g := range morphology.GroupVerbForms(forms, category) {
			fmt.Fprintf(a.out, "\n%s\n", g.Bucket.Label)
			for _, f := range g.Items {
				fmt.Fprintf(a.out, "  %-20s %s (%s)\n", f.Form, morphology.Descriptor(f), f.Dialect)
			}
		}
		return nil
	}

	forms, err := a.lexicon.NounForms(ctx, id)
	if err != nil {
		return err
	}
	for _, g := range morphology.GroupNounForms(forms, category) {
		fmt.Fprintf(a.out, "\n%s\n", g.Bucket.Label)
		for _, f := range g.Items {
			fmt.Fprintf(a.out, "  %-20s %s %s %s (%s)\n", f.Form, f.Case, f.Number, f.Gender, f.Dialect)
		}
	}
	return nil
}

func (a *app) favorite(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: oraia favorite <lemma-id> [on|off]")
	}
	id, err := parseLemmaID(args[0])
	if err != nil {
		return err
	}
	on := true
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "on", "true", "yes":
		case "off", "false", "no":
			on = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[1])
		}
	}
	if err := a.lexicon.UpdateFavorite(ctx, id, on); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Lemma %d favorite: %t\n", id, on)
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: oraia status <lemma-id> <status>")
	}
	id, err := parseLemmaID(args[0])
	if err != nil {
		return err
	}
	status, err := models.ParseLearningStatus(args[1])
	if err != nil {
		return err
	}
	if err := a.lexicon.UpdateLearningStatus(ctx, id, status); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Lemma %d status: %s\n", id, status)
	return nil
}

func (a *app) lists(ctx context.Context, args []string) error {
	if len(args) == 0 {
		lists, err := a.lexicon.Lists(ctx)
		if err != nil {
			return err
		}
		if len(lists) == 0 {
			fmt.Fprintln(a.out, "No vocabulary lists.")
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TITLE\tENTRIES\tDESCRIPTION")
		for _, l := range lists {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", l.Title, l.EntryCount, l.Description)
		}
		return tw.Flush()
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("lists create", flag.ContinueOnError)
		desc := fs.String("desc", "", "list description")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		title := strings.Join(fs.Args(), " ")
		created, err := a.lexicon.CreateList(ctx, title, *desc)
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(a.out, "List %q already exists.\n", strings.TrimSpace(title))
			return nil
		}
		fmt.Fprintf(a.out, "Created list %q.\n", strings.TrimSpace(title))
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: oraia lists delete <title>")
		}
		if err := a.lexicon.DeleteList(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted list %q.\n", args[1])
	case "add", "remove":
		if len(args) != 3 {
			return fmt.Errorf("usage: oraia lists %s <title> <lemma-id>", args[0])
		}
		id, err := parseLemmaID(args[2])
		if err != nil {
			return err
		}
		if args[0] == "add" {
			err = a.lexicon.AddToList(ctx, args[1], id)
		} else {
			err = a.lexicon.RemoveFromList(ctx, args[1], id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: lemma %d in %q.\n", args[0], id, args[1])
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: oraia lists show <title>")
		}
		entries, err := a.lexicon.ListEntries(ctx, args[1])
		if err != nil {
			return err
		}
		printSummaries(a.out, entries)
	default:
		return fmt.Errorf("unknown lists command %q", args[0])
	}
	return nil
}
