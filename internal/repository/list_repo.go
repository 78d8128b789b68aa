package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/models"
)

// ListRepository handles vocabulary lists and their entries
type ListRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewListRepository creates a new list repository
func NewListRepository(db *database.DB, logger *zap.Logger) *ListRepository {
	return &ListRepository{db: db, logger: logger}
}

// ReadOnly reports whether the store was opened without write access
func (r *ListRepository) ReadOnly() bool {
	return r.db.ReadOnly
}

// Create inserts a list. It returns false when a list with the same title
// already exists; the existing list is left untouched.
func (r *ListRepository) Create(ctx context.Context, title, description string) (bool, error) {
	if r.db.ReadOnly {
		return false, database.ErrReadOnly
	}
	var desc any
	if description != "" {
		desc = description
	}
	res, err := r.db.ExecContext(ctx,
		r.db.Dialect.InsertIgnoreQuery("vocabulary_list", "title", "description"), title, desc)
	if err != nil {
		r.logger.Error("failed to create list", zap.String("title", title), zap.Error(err))
		return false, database.QueryError("create list", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, database.QueryError("create list", err)
	}
	return n > 0, nil
}

// Delete removes a list and its entries in one transaction
func (r *ListRepository) Delete(ctx context.Context, title string) error {
	if r.db.ReadOnly {
		return database.ErrReadOnly
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return database.QueryError("delete list", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vocabulary_list_entry WHERE vocabulary_list = ?", title); err != nil {
		return database.QueryError("delete list entries", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM vocabulary_list WHERE title = ?", title)
	if err != nil {
		return database.QueryError("delete list", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.NotFoundError("delete list", "list "+title)
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit list delete", zap.String("title", title), zap.Error(err))
		return database.QueryError("delete list", err)
	}
	return nil
}

// Exists reports whether a list with title exists
func (r *ListRepository) Exists(ctx context.Context, title string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vocabulary_list WHERE title = ?", title).Scan(&n)
	if err != nil {
		return false, database.QueryError("list exists", err)
	}
	return n > 0, nil
}

// All returns every list with its entry count, ordered by title
func (r *ListRepository) All(ctx context.Context) ([]models.VocabularyList, error) {
	query := `
		SELECT vl.title, COALESCE(vl.description, ''), COUNT(e.lemma)
		FROM vocabulary_list vl
		LEFT JOIN vocabulary_list_entry e ON e.vocabulary_list = vl.title
		GROUP BY vl.title, vl.description
		ORDER BY vl.title
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list vocabulary lists", zap.Error(err))
		return nil, database.QueryError("all lists", err)
	}
	defer rows.Close()

	var lists []models.VocabularyList
	for rows.Next() {
		var l models.VocabularyList
		if err := rows.Scan(&l.Title, &l.Description, &l.EntryCount); err != nil {
			return nil, database.QueryError("all lists", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("all lists", err)
	}
	return lists, nil
}

// AddEntry adds a lemma to a list. Adding a lemma twice is a no-op.
func (r *ListRepository) AddEntry(ctx context.Context, title string, lemmaID int64) error {
	return r.addEntry(ctx, title, lemmaID, time.Now().UTC())
}

func (r *ListRepository) addEntry(ctx context.Context, title string, lemmaID int64, at time.Time) error {
	if r.db.ReadOnly {
		return database.ErrReadOnly
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return database.QueryError("add list entry", err)
	}
	defer tx.Rollback()

	// position records insertion order; created_at may tie
	var position int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) + 1 FROM vocabulary_list_entry").Scan(&position); err != nil {
		return database.QueryError("add list entry", err)
	}
	_, err = tx.ExecContext(ctx,
		r.db.Dialect.InsertIgnoreQuery("vocabulary_list_entry", "vocabulary_list", "lemma", "created_at", "position"),
		title, lemmaID, at, position)
	if err != nil {
		r.logger.Error("failed to add list entry",
			zap.String("title", title), zap.Int64("lemma_id", lemmaID), zap.Error(err))
		return database.QueryError("add list entry", err)
	}
	if err := tx.Commit(); err != nil {
		return database.QueryError("add list entry", err)
	}
	return nil
}

// RemoveEntry removes a lemma from a list. Removing an absent entry is a no-op.
func (r *ListRepository) RemoveEntry(ctx context.Context, title string, lemmaID int64) error {
	if r.db.ReadOnly {
		return database.ErrReadOnly
	}
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM vocabulary_list_entry WHERE vocabulary_list = ? AND lemma = ?", title, lemmaID)
	if err != nil {
		return database.QueryError("remove list entry", err)
	}
	return nil
}

// EntryIDs returns the lemma ids of a list in insertion order
func (r *ListRepository) EntryIDs(ctx context.Context, title string) ([]int64, error) {
	return scanIDs(ctx, r.db, "list entry ids",
		"SELECT lemma FROM vocabulary_list_entry WHERE vocabulary_list = ? ORDER BY position, lemma", title)
}

// EntryIDsForLists returns the distinct lemma ids found in any of titles
func (r *ListRepository) EntryIDsForLists(ctx context.Context, titles []string) ([]int64, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select("DISTINCT lemma").From("vocabulary_list_entry").
		Where(sq.Eq{"vocabulary_list": titles}).
		OrderBy("lemma").
		ToSql()
	if err != nil {
		return nil, database.PrepareError("entries for lists", err)
	}
	return scanIDs(ctx, r.db, "entries for lists", query, args...)
}

// ListsContaining returns the titles of lists that hold lemmaID
func (r *ListRepository) ListsContaining(ctx context.Context, lemmaID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT vocabulary_list FROM vocabulary_list_entry WHERE lemma = ? ORDER BY vocabulary_list", lemmaID)
	if err != nil {
		return nil, database.QueryError("lists containing", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, database.QueryError("lists containing", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("lists containing", err)
	}
	return titles, nil
}

// Entries returns a list's entries in insertion order
func (r *ListRepository) Entries(ctx context.Context, title string) ([]models.VocabularyListEntry, error) {
	return r.queryEntries(ctx, "list entries",
		"SELECT vocabulary_list, lemma, created_at FROM vocabulary_list_entry WHERE vocabulary_list = ? ORDER BY position, lemma",
		title)
}

// AllEntries returns every entry of every list
func (r *ListRepository) AllEntries(ctx context.Context) ([]models.VocabularyListEntry, error) {
	return r.queryEntries(ctx, "all list entries",
		"SELECT vocabulary_list, lemma, created_at FROM vocabulary_list_entry ORDER BY vocabulary_list, position, lemma")
}

func (r *ListRepository) queryEntries(ctx context.Context, op, query string, args ...any) ([]models.VocabularyListEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query list entries", zap.String("op", op), zap.Error(err))
		return nil, database.QueryError(op, err)
	}
	defer rows.Close()

	var entries []models.VocabularyListEntry
	for rows.Next() {
		var (
			e         models.VocabularyListEntry
			createdAt sql.NullString
		)
		if err := rows.Scan(&e.ListTitle, &e.LemmaID, &createdAt); err != nil {
			return nil, database.QueryError(op, err)
		}
		e.CreatedAt = parseTimestamp(createdAt.String)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError(op, err)
	}
	return entries, nil
}

// RestoreEntry inserts an entry with its original timestamp
func (r *ListRepository) RestoreEntry(ctx context.Context, e models.VocabularyListEntry) error {
	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return r.addEntry(ctx, e.ListTitle, e.LemmaID, at.UTC())
}
