// Package dbtest builds throwaway SQLite datasets and user stores for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"oraia/internal/config"
	"oraia/internal/database"
)

// NewDataset creates an empty dataset with the lexicon schema
func NewDataset(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.CreateDataset(context.Background(), filepath.Join(t.TempDir(), "ag_db.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// NewUserStore creates a migrated SQLite user-state store
func NewUserStore(t testing.TB) *database.DB {
	t.Helper()
	cfg := &config.Config{UserDBType: "sqlite", UserDBPath: filepath.Join(t.TempDir(), "user_data.sqlite")}
	db, err := database.OpenUserStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Lemma describes a lemma to insert
type Lemma struct {
	Headword string
	Notes    string
	POS      []string // first is primary
	Senses   []Sense
}

// Sense describes a sense to insert
type Sense struct {
	POS   string
	Gloss string
	Order int
}

// InsertLemma inserts l with its POS links and senses and returns its id
func InsertLemma(t testing.TB, db *database.DB, l Lemma) int64 {
	t.Helper()
	ctx := context.Background()

	var notes any
	if l.Notes != "" {
		notes = l.Notes
	}
	id, err := db.ExecReturningID(ctx,
		"INSERT INTO lemma (headword, headword_norm, notes) VALUES (?, lower(?), ?)", l.Headword, l.Headword, notes)
	require.NoError(t, err)

	for i, code := range l.POS {
		primary := 0
		if i == 0 {
			primary = 1
		}
		_, err := db.ExecContext(ctx, "INSERT INTO lemma_pos (lemma_id, pos_id, is_primary) VALUES (?, ?, ?)",
			id, POS(t, db, code), primary)
		require.NoError(t, err)
	}

	for _, s := range l.Senses {
		var posID any
		if s.POS != "" {
			posID = POS(t, db, s.POS)
		}
		_, err := db.ExecContext(ctx, "INSERT INTO sense (lemma_id, pos_id, gloss, sense_order) VALUES (?, ?, ?, ?)",
			id, posID, s.Gloss, s.Order)
		require.NoError(t, err)
	}
	return id
}

// POS returns the id of a POS code, inserting it if needed
func POS(t testing.TB, db *database.DB, code string) int64 {
	t.Helper()
	return lookupOrInsert(t, db, "pos", code)
}

// Dialect returns the id of a dialect code, inserting it if needed
func Dialect(t testing.TB, db *database.DB, code string) int64 {
	t.Helper()
	return lookupOrInsert(t, db, "dialect", code)
}

func lookupOrInsert(t testing.TB, db *database.DB, table, code string) int64 {
	ctx := context.Background()
	var id int64
	err := db.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE code = ?", code).Scan(&id)
	if err == sql.ErrNoRows {
		id, err = db.ExecReturningID(ctx, "INSERT INTO "+table+" (code) VALUES (?)", code)
	}
	require.NoError(t, err)
	return id
}

// Form describes an inflected form to insert
type Form struct {
	POS          string
	Form         string
	Person       string
	Number       string
	Tense        string
	Mood         string
	Voice        string
	VerbFormType string
	Case         string
	Gender       string
	Dialect      string
}

// InsertForm inserts f for lemmaID and returns its id
func InsertForm(t testing.TB, db *database.DB, lemmaID int64, f Form) int64 {
	t.Helper()
	var dialectID any
	if f.Dialect != "" {
		dialectID = Dialect(t, db, f.Dialect)
	}
	id, err := db.ExecReturningID(context.Background(), `
		INSERT INTO form (lemma_id, pos_id, form, form_norm, dialect_id, tense, mood, voice,
			person, number, grammatical_case, gender, verb_form_type)
		VALUES (?, ?, ?, lower(?), ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lemmaID, POS(t, db, f.POS), f.Form, f.Form, dialectID,
		nullable(f.Tense), nullable(f.Mood), nullable(f.Voice), nullable(f.Person), nullable(f.Number),
		nullable(f.Case), nullable(f.Gender), nullable(f.VerbFormType))
	require.NoError(t, err)
	return id
}

// Verb is a shorthand for a verb form
func Verb(form, tense, mood, voice, person, number string) Form {
	return Form{POS: "verb", Form: form, Tense: tense, Mood: mood, Voice: voice, Person: person, Number: number}
}

// PrincipalParts inserts the six first-person singular indicative forms
// for a verb lemma and returns their ids in slot order
func PrincipalParts(t testing.TB, db *database.DB, lemmaID int64, parts [6]string) []int64 {
	t.Helper()
	slots := [6][2]string{
		{"present", "active"},
		{"future", "active"},
		{"aorist", "active"},
		{"perfect", "active"},
		{"perfect", "middle-passive"},
		{"aorist", "passive"},
	}
	ids := make([]int64, 0, 6)
	for i, slot := range slots {
		ids = append(ids, InsertForm(t, db, lemmaID, Verb(parts[i], slot[0], "indicative", slot[1], "first-person", "singular")))
	}
	return ids
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
