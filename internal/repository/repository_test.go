package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/dbtest"
	"oraia/internal/models"
)

func seedLexicon(t *testing.T, db *database.DB) (logos, lego, agathos int64) {
	t.Helper()
	logos = dbtest.InsertLemma(t, db, dbtest.Lemma{
		Headword: "λόγος",
		POS:      []string{"noun"},
		Senses: []dbtest.Sense{
			{POS: "noun", Gloss: "word", Order: 0},
			{POS: "noun", Gloss: "reason", Order: 1},
		},
	})
	lego = dbtest.InsertLemma(t, db, dbtest.Lemma{
		Headword: "λέγω",
		POS:      []string{"verb"},
		Senses:   []dbtest.Sense{{POS: "verb", Gloss: "?", Order: 0}, {POS: "verb", Gloss: "say", Order: 1}},
	})
	agathos = dbtest.InsertLemma(t, db, dbtest.Lemma{
		Headword: "ἀγαθός",
		POS:      []string{"adj", "noun"},
		Senses:   []dbtest.Sense{{POS: "adj", Gloss: "?", Order: 0}},
	})
	return logos, lego, agathos
}

func newLemmaRepo(t *testing.T, db *database.DB) *LemmaRepository {
	t.Helper()
	repo, err := NewLemmaRepository(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	return repo
}

func headwords(lemmas []models.LemmaSummary) []string {
	out := make([]string, 0, len(lemmas))
	for _, l := range lemmas {
		out = append(out, l.Headword)
	}
	return out
}

func TestLemmaRepository_Search(t *testing.T) {
	db := dbtest.NewDataset(t)
	logos, _, _ := seedLexicon(t, db)
	repo := newLemmaRepo(t, db)
	ctx := context.Background()

	got, err := repo.Search(ctx, LemmaFilter{Text: "λόγ"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, logos, got[0].ID)
	assert.Equal(t, "noun", got[0].PrimaryPOS)

	got, err = repo.Search(ctx, LemmaFilter{Text: "ΛΌΓ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"λόγος"}, headwords(got), "prefix match ignores case")

	got, err = repo.Search(ctx, LemmaFilter{Text: "γ", Mode: models.SearchContains})
	require.NoError(t, err)
	assert.Equal(t, []string{"λέγω", "λόγος", "ἀγαθός"}, headwords(got), "headwords sort by code point")

	got, err = repo.Search(ctx, LemmaFilter{Text: "%"})
	require.NoError(t, err)
	assert.Empty(t, got, "wildcards are matched literally")

	got, err = repo.Search(ctx, LemmaFilter{Text: "λ", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLemmaRepository_SearchFoldsFinalSigma(t *testing.T) {
	db := dbtest.NewDataset(t)
	logos, _, _ := seedLexicon(t, db)
	sokrates := dbtest.InsertLemma(t, db, dbtest.Lemma{Headword: "ΣΩΚΡΑΤΗΣ", POS: []string{"name"}})
	repo := newLemmaRepo(t, db)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		mode models.SearchMode
		want []int64
	}{
		{name: "uppercase full word", text: "ΛΌΓΟΣ", want: []int64{logos}},
		{name: "lowercase full word", text: "λόγος", want: []int64{logos}},
		{name: "uppercase stored headword", text: "σωκρατης", want: []int64{sokrates}},
		{name: "contains final syllable", text: "ΟΣ", mode: models.SearchContains, want: []int64{logos}},
		{name: "accents stay significant", text: "λογος"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, LemmaFilter{Text: tt.text, Mode: tt.mode})
			require.NoError(t, err)
			ids := make([]int64, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestLemmaRepository_SearchByIDSets(t *testing.T) {
	db := dbtest.NewDataset(t)
	logos, lego, agathos := seedLexicon(t, db)
	repo := newLemmaRepo(t, db)
	ctx := context.Background()

	got, err := repo.Search(ctx, LemmaFilter{RequireFavorite: true, FavoriteIDs: []int64{lego}})
	require.NoError(t, err)
	assert.Equal(t, []string{"λέγω"}, headwords(got))

	newStatus := models.StatusNew
	got, err = repo.Search(ctx, LemmaFilter{Status: &newStatus, OverriddenStatus: []int64{logos}})
	require.NoError(t, err)
	assert.Equal(t, []string{"λέγω", "ἀγαθός"}, headwords(got), "lemmas without an override count as new")

	got, err = repo.Search(ctx, LemmaFilter{RequireList: true, ListIDs: []int64{agathos, logos}, Text: "λ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"λόγος"}, headwords(got), "filters are conjunctive")

	got, err = repo.Search(ctx, LemmaFilter{RequireList: true})
	require.NoError(t, err)
	assert.Empty(t, got, "an empty list matches nothing")
}

func TestLemmaRepository_Detail(t *testing.T) {
	db := dbtest.NewDataset(t)
	logos, _, agathos := seedLexicon(t, db)
	repo := newLemmaRepo(t, db)
	ctx := context.Background()

	d, err := repo.Detail(ctx, logos)
	require.NoError(t, err)
	assert.Equal(t, "λόγος", d.Headword)
	assert.Equal(t, []string{"noun"}, d.POSCodes)
	require.Len(t, d.SenseGroups, 1)
	require.Len(t, d.SenseGroups[0].Senses, 2)
	assert.Equal(t, "word", d.SenseGroups[0].Senses[0].Gloss)
	assert.Equal(t, "reason", d.SenseGroups[0].Senses[1].Gloss)

	d, err = repo.Detail(ctx, agathos)
	require.NoError(t, err)
	assert.Equal(t, "adj", d.PrimaryPOS(), "primary POS comes first")

	_, err = repo.Detail(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLemmaRepository_VocabularyCandidates(t *testing.T) {
	db := dbtest.NewDataset(t)
	logos, lego, agathos := seedLexicon(t, db)
	repo := newLemmaRepo(t, db)

	got, err := repo.VocabularyCandidates(context.Background(), []int64{logos, lego, agathos})
	require.NoError(t, err)
	require.Len(t, got, 2, "lemmas with only placeholder glosses are skipped")
	assert.Equal(t, "word", got[0].Gloss)
	assert.Equal(t, "say", got[1].Gloss)
}

func TestLemmaRepository_LegacyState(t *testing.T) {
	db := dbtest.NewDataset(t)
	logos, lego, _ := seedLexicon(t, db)
	ctx := context.Background()
	require.NoError(t, database.AddLegacyStateColumns(ctx, db))
	repo := newLemmaRepo(t, db)
	require.True(t, repo.HasLegacyState())

	require.NoError(t, repo.WriteLegacyFavorite(ctx, logos, true))
	require.NoError(t, repo.WriteLegacyStatus(ctx, lego, models.StatusCompleted))

	ids, err := repo.LegacyFavoriteIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{logos}, ids)

	ids, err = repo.LegacyStatusIDs(ctx, []models.LearningStatus{models.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, []int64{lego}, ids)

	d, err := repo.Detail(ctx, logos)
	require.NoError(t, err)
	assert.True(t, d.IsFavorite)

	got, err := repo.Search(ctx, LemmaFilter{RequireFavorite: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"λόγος"}, headwords(got))
}

func TestFormRepository(t *testing.T) {
	db := dbtest.NewDataset(t)
	ctx := context.Background()
	lego := dbtest.InsertLemma(t, db, dbtest.Lemma{Headword: "λέγω", POS: []string{"verb"}})
	logos := dbtest.InsertLemma(t, db, dbtest.Lemma{Headword: "λόγος", POS: []string{"noun"}})

	dbtest.InsertForm(t, db, lego, dbtest.Verb("λέγω", "present", "indicative", "active", "first-person", "singular"))
	dbtest.InsertForm(t, db, lego, dbtest.Verb("λέγεις", "present", "indicative", "active", "second-person", "singular"))
	dbtest.InsertForm(t, db, logos, dbtest.Form{POS: "noun", Form: "λόγου", Case: "genitive", Number: "singular", Dialect: "ionic"})

	repo := NewFormRepository(db, zap.NewNop())

	verbs, err := repo.VerbForms(ctx, lego)
	require.NoError(t, err)
	require.Len(t, verbs, 2)
	assert.Equal(t, "λέγω", verbs[0].Headword)
	assert.Equal(t, models.DefaultDialect, verbs[0].Dialect)

	nouns, err := repo.NounForms(ctx, logos)
	require.NoError(t, err)
	require.Len(t, nouns, 1)
	assert.Equal(t, "genitive", nouns[0].Case)
	assert.Equal(t, "ionic", nouns[0].Dialect)

	analyses, err := repo.LookupForm(ctx, "λέγεις")
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "second-person", analyses[0].Person)
	assert.Equal(t, "verb", analyses[0].POSCode)

	analyses, err = repo.LookupForm(ctx, "ἔλεγον")
	require.NoError(t, err)
	assert.Empty(t, analyses)
}

func TestListRepository(t *testing.T) {
	db := dbtest.NewUserStore(t)
	repo := NewListRepository(db, zap.NewNop())
	ctx := context.Background()

	created, err := repo.Create(ctx, "Iliad 1", "first book")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Create(ctx, "Iliad 1", "again")
	require.NoError(t, err)
	assert.False(t, created, "titles are unique")

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.addEntry(ctx, "Iliad 1", 30, base))
	require.NoError(t, repo.addEntry(ctx, "Iliad 1", 10, base.Add(time.Second)))
	require.NoError(t, repo.addEntry(ctx, "Iliad 1", 30, base.Add(2*time.Second)), "duplicate add is a no-op")
	_, err = repo.Create(ctx, "Odyssey", "")
	require.NoError(t, err)
	require.NoError(t, repo.AddEntry(ctx, "Odyssey", 10))

	ids, err := repo.EntryIDs(ctx, "Iliad 1")
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 10}, ids, "entries keep insertion order")

	entries, err := repo.Entries(ctx, "Iliad 1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].CreatedAt.Equal(base))

	titles, err := repo.ListsContaining(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Iliad 1", "Odyssey"}, titles)

	ids, err = repo.EntryIDsForLists(ctx, []string{"Iliad 1", "Odyssey"})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 30}, ids)

	lists, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, models.VocabularyList{Title: "Iliad 1", Description: "first book", EntryCount: 2}, lists[0])

	require.NoError(t, repo.RemoveEntry(ctx, "Iliad 1", 30))
	require.NoError(t, repo.RemoveEntry(ctx, "Iliad 1", 30))

	require.NoError(t, repo.Delete(ctx, "Iliad 1"))
	var orphans int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vocabulary_list_entry WHERE vocabulary_list = ?", "Iliad 1").Scan(&orphans))
	assert.Zero(t, orphans)

	err = repo.Delete(ctx, "Iliad 1")
	assert.ErrorIs(t, err, database.ErrNotFound)

	exists, err := repo.Exists(ctx, "Odyssey")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserStateRepository(t *testing.T) {
	db := dbtest.NewUserStore(t)
	repo := NewUserStateRepository(db, zap.NewNop())
	ctx := context.Background()

	s, err := repo.State(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, repo.UpsertFavorite(ctx, 1, true))
	require.NoError(t, repo.UpsertStatus(ctx, 1, models.StatusInProgress))
	require.NoError(t, repo.UpsertStatus(ctx, 2, models.StatusIgnored))

	s, err = repo.State(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, s.IsFavorite)
	require.NotNil(t, s.Status)
	assert.True(t, *s.IsFavorite, "a status write keeps the favorite flag")
	assert.Equal(t, models.StatusInProgress, *s.Status)
	assert.False(t, s.UpdatedAt.IsZero())

	states, err := repo.States(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, states, 2)
	assert.Nil(t, states[2].IsFavorite, "favorite was never written for 2")

	fav, err := repo.FavoriteIDs(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, fav)

	ids, err := repo.StatusIDs(ctx, models.StatusIgnored, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	require.NoError(t, repo.UpsertFavorite(ctx, 1, false))
	fav, err = repo.FavoriteIDs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, fav)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	overridden, err := repo.OverriddenStatusIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, overridden)
}

func TestListRepository_EntriesWithEqualTimestamps(t *testing.T) {
	db := dbtest.NewUserStore(t)
	repo := NewListRepository(db, zap.NewNop())
	ctx := context.Background()

	_, err := repo.Create(ctx, "Odyssey", "")
	require.NoError(t, err)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, repo.RestoreEntry(ctx, models.VocabularyListEntry{ListTitle: "Odyssey", LemmaID: id, CreatedAt: at}))
	}

	ids, err := repo.EntryIDs(ctx, "Odyssey")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	entries, err := repo.AllEntries(ctx)
	require.NoError(t, err)
	got := make([]int64, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.LemmaID)
	}
	assert.Equal(t, []int64{3, 1, 2}, got)

	require.NoError(t, repo.RemoveEntry(ctx, "Odyssey", 2))
	require.NoError(t, repo.RestoreEntry(ctx, models.VocabularyListEntry{ListTitle: "Odyssey", LemmaID: 2, CreatedAt: at}))
	require.NoError(t, repo.AddEntry(ctx, "Odyssey", 4))
	ids, err = repo.EntryIDs(ctx, "Odyssey")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2, 4}, ids, "re-adding appends at the end")
}
