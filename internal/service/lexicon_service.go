package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/events"
	"oraia/internal/models"
	"oraia/internal/repository"
	"oraia/internal/utils"
)

// DefaultSearchLimit applies when neither the request nor the options set one
const DefaultSearchLimit = 200

// LexiconOptions tunes a LexiconService
type LexiconOptions struct {
	SearchLimit       int
	LegacyStateWrites bool
}

// LexiconService is the single owner of both stores. Every call holds the
// service lock for its whole duration, so reads and writes never overlap.
type LexiconService struct {
	mu sync.Mutex

	lemmas *repository.LemmaRepository
	forms  *repository.FormRepository
	lists  *repository.ListRepository
	states *repository.UserStateRepository
	bus    *events.Bus
	logger *zap.Logger
	opts   LexiconOptions
}

// NewLexiconService wires the repositories. lemmas and forms may be nil
// when the dataset could not be opened; dataset reads then fail with
// database.ErrNotFound.
func NewLexiconService(
	lemmas *repository.LemmaRepository,
	forms *repository.FormRepository,
	lists *repository.ListRepository,
	states *repository.UserStateRepository,
	bus *events.Bus,
	logger *zap.Logger,
	opts LexiconOptions,
) *LexiconService {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	return &LexiconService{
		lemmas: lemmas,
		forms:  forms,
		lists:  lists,
		states: states,
		bus:    bus,
		logger: logger,
		opts:   opts,
	}
}

// Events returns the bus mutations are published on
func (s *LexiconService) Events() *events.Bus {
	return s.bus
}

func (s *LexiconService) requireDataset(op string) error {
	if s.lemmas == nil || s.forms == nil {
		return database.NotFoundError(op, "dataset")
	}
	return nil
}

// Search returns merged lemma summaries matching every set filter, sorted
// by headword. An empty query with no filter returns no results.
func (s *LexiconService) Search(ctx context.Context, p models.SearchParams) ([]models.LemmaSummary, error) {
	if err := s.requireDataset("search lemmas"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Query) == "" && !p.HasFilters() {
		return []models.LemmaSummary{}, nil
	}
	limit := p.Limit
	if limit <= 0 {
		limit = s.opts.SearchLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := repository.LemmaFilter{Text: p.Query, Mode: p.Mode}
	var err error
	if p.FavoritesOnly {
		f.RequireFavorite = true
		if f.FavoriteIDs, err = s.states.FavoriteIDs(ctx, true); err != nil {
			return nil, err
		}
	}
	if p.Status != nil {
		f.Status = p.Status
		if f.StatusIDs, err = s.states.StatusIDs(ctx, *p.Status); err != nil {
			return nil, err
		}
		if *p.Status == models.StatusNew && !s.lemmas.HasLegacyState() {
			if f.OverriddenStatus, err = s.states.OverriddenStatusIDs(ctx); err != nil {
				return nil, err
			}
		}
	}
	if title := strings.TrimSpace(p.ListTitle); title != "" {
		f.RequireList = true
		if f.ListIDs, err = s.lists.EntryIDs(ctx, title); err != nil {
			return nil, err
		}
	}
	// state filters are re-checked after merging, so SQL may only cap rows
	// when none is set
	if !p.FavoritesOnly && p.Status == nil {
		f.Limit = limit
	}

	rows, err := s.lemmas.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	merged, err := s.merge(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := merged[:0]
	for _, l := range merged {
		if p.FavoritesOnly && !l.IsFavorite {
			continue
		}
		if p.Status != nil && l.Status != *p.Status {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Headword != out[j].Headword {
			return out[i].Headword < out[j].Headword
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// merge applies stored user overrides to summaries in place
func (s *LexiconService) merge(ctx context.Context, lemmas []models.LemmaSummary) ([]models.LemmaSummary, error) {
	if len(lemmas) == 0 {
		return lemmas, nil
	}
	ids := make([]int64, len(lemmas))
	for i, l := range lemmas {
		ids[i] = l.ID
	}
	states, err := s.states.States(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range lemmas {
		if st, ok := states[lemmas[i].ID]; ok {
			lemmas[i].LemmaState = MergeState(lemmas[i].LemmaState, &st)
		}
	}
	return lemmas, nil
}

// Detail returns a lemma with merged state
func (s *LexiconService) Detail(ctx context.Context, id int64) (*models.LemmaDetail, error) {
	if err := s.requireDataset("lemma detail"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lemmas.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.states.State(ctx, id)
	if err != nil {
		return nil, err
	}
	d.LemmaState = MergeState(d.LemmaState, st)
	return d, nil
}

// LemmaExists reports whether id names a lemma of the dataset
func (s *LexiconService) LemmaExists(ctx context.Context, id int64) (bool, error) {
	if err := s.requireDataset("lemma exists"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lemmas.Exists(ctx, id)
}

// NounForms returns the noun forms of a lemma
func (s *LexiconService) NounForms(ctx context.Context, lemmaID int64) ([]models.NounForm, error) {
	if err := s.requireDataset("noun forms"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms.NounForms(ctx, lemmaID)
}

// VerbForms returns the verb forms of a lemma
func (s *LexiconService) VerbForms(ctx context.Context, lemmaID int64) ([]models.VerbForm, error) {
	if err := s.requireDataset("verb forms"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms.VerbForms(ctx, lemmaID)
}

// LookupForm returns every analysis of a surface form
func (s *LexiconService) LookupForm(ctx context.Context, text string) ([]models.FormAnalysis, error) {
	if err := s.requireDataset("lookup form"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms.LookupForm(ctx, strings.TrimSpace(text))
}

// checkWritable fails before any write when a store that would be written
// is read-only
func (s *LexiconService) checkWritable() error {
	if s.states.ReadOnly() {
		return database.ErrReadOnly
	}
	if s.opts.LegacyStateWrites && s.lemmas.HasLegacyState() && s.lemmas.ReadOnly() {
		return database.ErrReadOnly
	}
	return nil
}

// UpdateFavorite stores a favorite flag, keeping any stored status
func (s *LexiconService) UpdateFavorite(ctx context.Context, id int64, favorite bool) error {
	return s.updateState(ctx, "update favorite", id,
		func() error { return s.states.UpsertFavorite(ctx, id, favorite) },
		func() error { return s.lemmas.WriteLegacyFavorite(ctx, id, favorite) })
}

// UpdateLearningStatus stores a learning status, keeping any stored favorite flag
func (s *LexiconService) UpdateLearningStatus(ctx context.Context, id int64, status models.LearningStatus) error {
	if !status.Valid() {
		return utils.ValidationError{Field: "status", Message: "unknown learning status " + status.String()}
	}
	return s.updateState(ctx, "update learning status", id,
		func() error { return s.states.UpsertStatus(ctx, id, status) },
		func() error { return s.lemmas.WriteLegacyStatus(ctx, id, status) })
}

// updateState writes the user store and then, when configured, mirrors
// the value into the dataset. The user store decides the effective state,
// so LemmaChanged is published once it is written even if the mirror
// fails; the mirror error is still returned.
func (s *LexiconService) updateState(ctx context.Context, op string, id int64, store, mirror func() error) error {
	if err := s.requireDataset(op); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkWritable(); err != nil {
		s.mu.Unlock()
		return err
	}
	exists, err := s.lemmas.Exists(ctx, id)
	if err == nil && !exists {
		err = database.NotFoundError(op, "lemma")
	}
	if err == nil {
		err = store()
	}
	stored := err == nil
	if stored && s.opts.LegacyStateWrites {
		if mirrorErr := mirror(); mirrorErr != nil {
			err = fmt.Errorf("%s: mirror to dataset: %w", op, mirrorErr)
		}
	}
	s.mu.Unlock()

	if stored {
		s.bus.Publish(events.Event{Kind: events.LemmaChanged, LemmaID: id})
	}
	if err != nil {
		s.logger.Error("failed to update lemma state",
			zap.String("op", op), zap.Int64("lemma_id", id), zap.Bool("user_store_written", stored), zap.Error(err))
		return err
	}
	return nil
}

// Lists returns every vocabulary list with its entry count
func (s *LexiconService) Lists(ctx context.Context) ([]models.VocabularyList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.All(ctx)
}

// CreateList creates a list. A duplicate title is a no-op and reports false.
func (s *LexiconService) CreateList(ctx context.Context, title, description string) (bool, error) {
	title, err := utils.ValidateListTitle(title)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	created, err := s.lists.Create(ctx, title, strings.TrimSpace(description))
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("vocabulary list created", zap.String("list", title))
		s.bus.Publish(events.Event{Kind: events.ListsChanged, ListTitle: title})
	}
	return created, nil
}

// DeleteList removes a list together with its entries
func (s *LexiconService) DeleteList(ctx context.Context, title string) error {
	title, err := utils.ValidateListTitle(title)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.lists.Delete(ctx, title)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.logger.Info("vocabulary list deleted", zap.String("list", title))
	s.bus.Publish(events.Event{Kind: events.ListsChanged, ListTitle: title})
	return nil
}

// AddToList adds a lemma to a list. Both must exist; adding twice is a no-op.
func (s *LexiconService) AddToList(ctx context.Context, title string, lemmaID int64) error {
	title, err := utils.ValidateListTitle(title)
	if err != nil {
		return err
	}
	if err := s.requireDataset("add list entry"); err != nil {
		return err
	}

	s.mu.Lock()
	err = s.checkListEntry(ctx, title, lemmaID)
	if err == nil {
		err = s.lists.AddEntry(ctx, title, lemmaID)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bus.Publish(events.Event{Kind: events.ListsChanged, ListTitle: title, LemmaID: lemmaID})
	return nil
}

func (s *LexiconService) checkListEntry(ctx context.Context, title string, lemmaID int64) error {
	if s.lists.ReadOnly() {
		return database.ErrReadOnly
	}
	ok, err := s.lists.Exists(ctx, title)
	if err != nil {
		return err
	}
	if !ok {
		return database.NotFoundError("add list entry", "list "+title)
	}
	ok, err = s.lemmas.Exists(ctx, lemmaID)
	if err != nil {
		return err
	}
	if !ok {
		return database.NotFoundError("add list entry", "lemma")
	}
	return nil
}

// RemoveFromList removes a lemma from a list. Removing an absent entry is a no-op.
func (s *LexiconService) RemoveFromList(ctx context.Context, title string, lemmaID int64) error {
	title, err := utils.ValidateListTitle(title)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.lists.RemoveEntry(ctx, title, lemmaID)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bus.Publish(events.Event{Kind: events.ListsChanged, ListTitle: title, LemmaID: lemmaID})
	return nil
}

// ListEntries returns the merged summaries of a list in insertion order.
// Entries whose lemma is missing from the dataset are skipped.
func (s *LexiconService) ListEntries(ctx context.Context, title string) ([]models.LemmaSummary, error) {
	if err := s.requireDataset("list entries"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.lists.EntryIDs(ctx, strings.TrimSpace(title))
	if err != nil {
		return nil, err
	}
	rows, err := s.lemmas.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.LemmaSummary, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ordered := make([]models.LemmaSummary, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return s.merge(ctx, ordered)
}

// ListsContaining returns the titles of lists holding a lemma
func (s *LexiconService) ListsContaining(ctx context.Context, lemmaID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.ListsContaining(ctx, lemmaID)
}

// CandidateIDs returns the sorted union of lemma ids selected by src:
// list members, stored favorites and lemmas with a selected stored status.
// User overrides take precedence over legacy dataset columns.
func (s *LexiconService) CandidateIDs(ctx context.Context, src models.QuizSource) ([]int64, error) {
	if src.IsEmpty() {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[int64]bool)
	add := func(ids []int64) {
		for _, id := range ids {
			set[id] = true
		}
	}

	if len(src.ListTitles) > 0 {
		ids, err := s.lists.EntryIDsForLists(ctx, src.ListTitles)
		if err != nil {
			return nil, err
		}
		add(ids)
	}

	if src.IncludeFavorites {
		ids, err := s.states.FavoriteIDs(ctx, true)
		if err != nil {
			return nil, err
		}
		add(ids)
		if s.lemmas != nil && s.lemmas.HasLegacyState() {
			legacy, err := s.lemmas.LegacyFavoriteIDs(ctx)
			if err != nil {
				return nil, err
			}
			unset, err := s.states.FavoriteIDs(ctx, false)
			if err != nil {
				return nil, err
			}
			add(without(legacy, unset))
		}
	}

	if len(src.Statuses) > 0 {
		ids, err := s.states.StatusIDs(ctx, src.Statuses...)
		if err != nil {
			return nil, err
		}
		add(ids)
		if s.lemmas != nil && s.lemmas.HasLegacyState() {
			legacy, err := s.lemmas.LegacyStatusIDs(ctx, src.Statuses)
			if err != nil {
				return nil, err
			}
			overridden, err := s.states.OverriddenStatusIDs(ctx)
			if err != nil {
				return nil, err
			}
			add(without(legacy, overridden))
		}
	}

	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// VocabularyCandidates returns glossed lemmas for vocabulary quizzes
func (s *LexiconService) VocabularyCandidates(ctx context.Context, ids []int64) ([]models.VocabularyCandidate, error) {
	if err := s.requireDataset("vocabulary candidates"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lemmas.VocabularyCandidates(ctx, ids)
}

// VerbFormsFor returns the verb forms of several lemmas
func (s *LexiconService) VerbFormsFor(ctx context.Context, ids []int64) ([]models.VerbForm, error) {
	if err := s.requireDataset("verb forms"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms.VerbFormsFor(ctx, ids)
}

func without(ids, drop []int64) []int64 {
	skip := make(map[int64]bool, len(drop))
	for _, id := range drop {
		skip[id] = true
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}
