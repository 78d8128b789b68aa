package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/models"
	"oraia/internal/textnorm"
)

// LemmaRepository reads lemmas and senses from the lexicon dataset
type LemmaRepository struct {
	db     *database.DB
	logger *zap.Logger
	legacy bool
}

// NewLemmaRepository creates a lemma repository. It inspects the dataset
// once to learn whether lemma carries inline favorite/status columns.
func NewLemmaRepository(ctx context.Context, db *database.DB, logger *zap.Logger) (*LemmaRepository, error) {
	legacy, err := database.HasLegacyStateColumns(ctx, db)
	if err != nil {
		return nil, err
	}
	return &LemmaRepository{db: db, logger: logger, legacy: legacy}, nil
}

// HasLegacyState reports whether the dataset stores favorite/status inline
func (r *LemmaRepository) HasLegacyState() bool {
	return r.legacy
}

// ReadOnly reports whether the dataset was opened without write access
func (r *LemmaRepository) ReadOnly() bool {
	return r.db.ReadOnly
}

// LemmaFilter narrows a dataset search. ID sets come from the user-state
// store; the caller re-checks merged state afterwards.
type LemmaFilter struct {
	Text string
	Mode models.SearchMode

	RequireFavorite bool
	FavoriteIDs     []int64

	Status           *models.LearningStatus
	StatusIDs        []int64
	OverriddenStatus []int64

	RequireList bool
	ListIDs     []int64

	Limit int
}

const primaryPOSColumn = `COALESCE((SELECT p.code FROM lemma_pos lp JOIN pos p ON p.id = lp.pos_id
	WHERE lp.lemma_id = l.id ORDER BY lp.is_primary DESC, p.code LIMIT 1), '')`

func (r *LemmaRepository) stateColumns() []string {
	if r.legacy {
		return []string{"COALESCE(l.is_favorite, 0)", "COALESCE(l.learning_status, 0)"}
	}
	return []string{"0", "0"}
}

func (r *LemmaRepository) summarySelect() sq.SelectBuilder {
	cols := append([]string{"l.id", "l.headword", primaryPOSColumn}, r.stateColumns()...)
	return sq.Select(cols...).From("lemma l")
}

// LikePattern builds the LIKE pattern for a headword query
func LikePattern(text string, mode models.SearchMode) string {
	p := textnorm.EscapeLike(textnorm.CaseFold(strings.TrimSpace(text)))
	if mode == models.SearchContains {
		return "%" + p + "%"
	}
	return p + "%"
}

// Search returns lemma summaries matching every condition of f, sorted
// by headword. State columns hold dataset values only.
func (r *LemmaRepository) Search(ctx context.Context, f LemmaFilter) ([]models.LemmaSummary, error) {
	q := r.summarySelect().OrderBy("l.headword", "l.id")

	if strings.TrimSpace(f.Text) != "" {
		q = q.Where(sq.Expr(`casefold(l.headword) LIKE ? ESCAPE '\'`, LikePattern(f.Text, f.Mode)))
	}

	if f.RequireFavorite {
		if r.legacy {
			q = q.Where(sq.Or{sq.Eq{"l.id": f.FavoriteIDs}, sq.Expr("COALESCE(l.is_favorite, 0) = 1")})
		} else {
			q = q.Where(sq.Eq{"l.id": f.FavoriteIDs})
		}
	}

	if f.Status != nil {
		switch {
		case r.legacy:
			q = q.Where(sq.Or{sq.Eq{"l.id": f.StatusIDs}, sq.Expr("COALESCE(l.learning_status, 0) = ?", int(*f.Status))})
		case *f.Status == models.StatusNew:
			q = q.Where(sq.Or{sq.Eq{"l.id": f.StatusIDs}, sq.NotEq{"l.id": f.OverriddenStatus}})
		default:
			q = q.Where(sq.Eq{"l.id": f.StatusIDs})
		}
	}

	if f.RequireList {
		q = q.Where(sq.Eq{"l.id": f.ListIDs})
	}

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	return r.querySummaries(ctx, "search lemmas", q)
}

// Summaries returns summaries for the given ids in headword order
func (r *LemmaRepository) Summaries(ctx context.Context, ids []int64) ([]models.LemmaSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.summarySelect().Where(sq.Eq{"l.id": ids}).OrderBy("l.headword", "l.id")
	return r.querySummaries(ctx, "lemma summaries", q)
}

func (r *LemmaRepository) querySummaries(ctx context.Context, op string, q sq.SelectBuilder) ([]models.LemmaSummary, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, database.PrepareError(op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("lemma query failed", zap.String("op", op), zap.Error(err))
		return nil, database.QueryError(op, err)
	}
	defer rows.Close()

	var lemmas []models.LemmaSummary
	for rows.Next() {
		var (
			l      models.LemmaSummary
			fav    int
			status int
		)
		if err := rows.Scan(&l.ID, &l.Headword, &l.PrimaryPOS, &fav, &status); err != nil {
			return nil, database.QueryError(op, err)
		}
		l.IsFavorite = fav != 0
		l.Status = models.LearningStatus(status)
		lemmas = append(lemmas, l)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError(op, err)
	}
	return lemmas, nil
}

// Exists reports whether a lemma with id is in the dataset
func (r *LemmaRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lemma WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, database.QueryError("lemma exists", err)
	}
	return n > 0, nil
}

// Detail loads a lemma with its parts of speech and sense groups
func (r *LemmaRepository) Detail(ctx context.Context, id int64) (*models.LemmaDetail, error) {
	cols := append([]string{"l.id", "l.headword", "COALESCE(l.notes, '')"}, r.stateColumns()...)
	query, args, err := sq.Select(cols...).From("lemma l").Where(sq.Eq{"l.id": id}).ToSql()
	if err != nil {
		return nil, database.PrepareError("lemma detail", err)
	}

	var (
		d      models.LemmaDetail
		fav    int
		status int
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.Headword, &d.Notes, &fav, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.NotFoundError("lemma detail", "lemma")
	}
	if err != nil {
		r.logger.Error("failed to load lemma", zap.Int64("lemma_id", id), zap.Error(err))
		return nil, database.QueryError("lemma detail", err)
	}
	d.IsFavorite = fav != 0
	d.Status = models.LearningStatus(status)

	if d.POSCodes, err = r.posCodes(ctx, id); err != nil {
		return nil, err
	}
	if d.SenseGroups, err = r.senseGroups(ctx, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *LemmaRepository) posCodes(ctx context.Context, id int64) ([]string, error) {
	query := `
		SELECT p.code
		FROM lemma_pos lp
		JOIN pos p ON p.id = lp.pos_id
		WHERE lp.lemma_id = ?
		ORDER BY lp.is_primary DESC, p.code ASC
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, database.QueryError("lemma pos codes", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, database.QueryError("lemma pos codes", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("lemma pos codes", err)
	}
	return codes, nil
}

func (r *LemmaRepository) senseGroups(ctx context.Context, id int64) ([]models.SenseGroup, error) {
	query := `
		SELECT s.id, COALESCE(p.code, ''), s.gloss, COALESCE(s.definition, ''), s.sense_order
		FROM sense s
		LEFT JOIN pos p ON p.id = s.pos_id
		WHERE s.lemma_id = ?
		ORDER BY COALESCE(p.code, ''), s.sense_order, s.id
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, database.QueryError("lemma senses", err)
	}
	defer rows.Close()

	var groups []models.SenseGroup
	for rows.Next() {
		var s models.Sense
		if err := rows.Scan(&s.ID, &s.POSCode, &s.Gloss, &s.Definition, &s.Order); err != nil {
			return nil, database.QueryError("lemma senses", err)
		}
		if n := len(groups); n == 0 || groups[n-1].POSCode != s.POSCode {
			groups = append(groups, models.SenseGroup{POSCode: s.POSCode})
		}
		groups[len(groups)-1].Senses = append(groups[len(groups)-1].Senses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("lemma senses", err)
	}
	return groups, nil
}

// VocabularyCandidates returns, for each id that has one, the first
// non-empty gloss by sense order. Placeholder glosses ("?") do not count.
func (r *LemmaRepository) VocabularyCandidates(ctx context.Context, ids []int64) ([]models.VocabularyCandidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select("l.id", "l.headword", "s.gloss").
		From("lemma l").
		Join("sense s ON s.lemma_id = l.id").
		Where(sq.Eq{"l.id": ids}).
		OrderBy("l.id", "s.sense_order", "s.id").
		ToSql()
	if err != nil {
		return nil, database.PrepareError("vocabulary candidates", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to load vocabulary candidates", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, database.QueryError("vocabulary candidates", err)
	}
	defer rows.Close()

	var out []models.VocabularyCandidate
	seen := make(map[int64]bool)
	for rows.Next() {
		var c models.VocabularyCandidate
		if err := rows.Scan(&c.LemmaID, &c.Headword, &c.Gloss); err != nil {
			return nil, database.QueryError("vocabulary candidates", err)
		}
		c.Gloss = strings.TrimSpace(c.Gloss)
		if seen[c.LemmaID] || c.Gloss == "" || c.Gloss == "?" {
			continue
		}
		seen[c.LemmaID] = true
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("vocabulary candidates", err)
	}
	return out, nil
}

// LegacyFavoriteIDs returns ids flagged favorite in the inline columns
func (r *LemmaRepository) LegacyFavoriteIDs(ctx context.Context) ([]int64, error) {
	if !r.legacy {
		return nil, nil
	}
	return r.queryIDs(ctx, "legacy favorites", sq.Select("id").From("lemma").Where("is_favorite = 1"))
}

// LegacyStatusIDs returns ids whose inline status is one of statuses
func (r *LemmaRepository) LegacyStatusIDs(ctx context.Context, statuses []models.LearningStatus) ([]int64, error) {
	if !r.legacy || len(statuses) == 0 {
		return nil, nil
	}
	values := make([]int, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, int(s))
	}
	return r.queryIDs(ctx, "legacy statuses",
		sq.Select("id").From("lemma").Where(sq.Eq{"learning_status": values}))
}

func (r *LemmaRepository) queryIDs(ctx context.Context, op string, q sq.SelectBuilder) ([]int64, error) {
	query, args, err := q.OrderBy("id").ToSql()
	if err != nil {
		return nil, database.PrepareError(op, err)
	}
	return scanIDs(ctx, r.db, op, query, args...)
}

// WriteLegacyFavorite mirrors a favorite flag into the inline column
func (r *LemmaRepository) WriteLegacyFavorite(ctx context.Context, id int64, favorite bool) error {
	return r.writeLegacy(ctx, "is_favorite", id, boolToInt(favorite))
}

// WriteLegacyStatus mirrors a learning status into the inline column
func (r *LemmaRepository) WriteLegacyStatus(ctx context.Context, id int64, status models.LearningStatus) error {
	return r.writeLegacy(ctx, "learning_status", id, int(status))
}

func (r *LemmaRepository) writeLegacy(ctx context.Context, column string, id int64, value int) error {
	if !r.legacy {
		return nil
	}
	if r.db.ReadOnly {
		return database.ErrReadOnly
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE lemma SET "+column+" = ? WHERE id = ?", value, id); err != nil {
		r.logger.Error("failed to write legacy state", zap.String("column", column), zap.Int64("lemma_id", id), zap.Error(err))
		return database.QueryError("write legacy "+column, err)
	}
	return nil
}

func scanIDs(ctx context.Context, db database.DBTX, op, query string, args ...any) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.QueryError(op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, database.QueryError(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError(op, err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
