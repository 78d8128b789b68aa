package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema/dataset.sql
var datasetSchema string

// Columns added to datasets created by older importers
var (
	lemmaExtraColumns = []column{
		{"etymology_text", "TEXT"},
		{"etymology_number", "INTEGER"},
		{"inflection_templates", "TEXT"},
		{"related", "TEXT"},
		{"synonyms", "TEXT"},
		{"antonyms", "TEXT"},
		{"categories", "TEXT"},
	}
	senseExtraColumns = []column{
		{"tags", "TEXT"},
		{"qualifier", "TEXT"},
		{"examples", "TEXT"},
	}
	formExtraColumns = []column{
		{"pronoun_type", "TEXT"},
		{"governs_case", "TEXT"},
		{"tags", "TEXT"},
		{"source", "TEXT"},
	}
	legacyStateColumns = []column{
		{"is_favorite", "INTEGER DEFAULT 0"},
		{"learning_status", "INTEGER DEFAULT 0"},
	}
)

type column struct {
	name string
	def  string
}

// ApplyDatasetSchema creates the lexicon tables if absent and adds any
// columns missing from an older dataset
func ApplyDatasetSchema(ctx context.Context, db *DB) error {
	if db.ReadOnly {
		return fmt.Errorf("apply dataset schema: %w", ErrReadOnly)
	}
	if err := execScript(ctx, db, datasetSchema); err != nil {
		return QueryError("apply dataset schema", err)
	}
	for table, cols := range map[string][]column{
		"lemma": lemmaExtraColumns,
		"sense": senseExtraColumns,
		"form":  formExtraColumns,
	} {
		if err := ensureColumns(ctx, db, table, cols); err != nil {
			return err
		}
	}
	return nil
}

// AddLegacyStateColumns adds the inline favorite/status columns to lemma
func AddLegacyStateColumns(ctx context.Context, db *DB) error {
	if db.ReadOnly {
		return fmt.Errorf("add legacy state columns: %w", ErrReadOnly)
	}
	return ensureColumns(ctx, db, "lemma", legacyStateColumns)
}

// HasLegacyStateColumns reports whether lemma carries is_favorite and
// learning_status
func HasLegacyStateColumns(ctx context.Context, db *DB) (bool, error) {
	cols, err := TableColumns(ctx, db, "lemma")
	if err != nil {
		return false, err
	}
	return cols["is_favorite"] && cols["learning_status"], nil
}

// TableColumns returns the column names of a SQLite table
func TableColumns(ctx context.Context, db DBTX, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, QueryError("table info "+table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, QueryError("table info "+table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, QueryError("table info "+table, err)
	}
	return cols, nil
}

func ensureColumns(ctx context.Context, db DBTX, table string, columns []column) error {
	existing, err := TableColumns(ctx, db, table)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if existing[c.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c.name, c.def)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return QueryError("add column "+table+"."+c.name, err)
		}
	}
	return nil
}
