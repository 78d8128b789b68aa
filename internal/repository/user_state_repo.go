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

// UserStateRepository handles per-lemma favorite and status overrides
type UserStateRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewUserStateRepository creates a new user state repository
func NewUserStateRepository(db *database.DB, logger *zap.Logger) *UserStateRepository {
	return &UserStateRepository{db: db, logger: logger}
}

// ReadOnly reports whether the store was opened without write access
func (r *UserStateRepository) ReadOnly() bool {
	return r.db.ReadOnly
}

// States returns the stored overrides for ids, keyed by lemma id. Lemmas
// without a row are absent from the map.
func (r *UserStateRepository) States(ctx context.Context, ids []int64) (map[int64]models.UserLemmaState, error) {
	states := make(map[int64]models.UserLemmaState)
	if len(ids) == 0 {
		return states, nil
	}

	query, args, err := sq.Select("lemma", "is_favorite", "learning_status", "updated_at").
		From("lemma_user_state").
		Where(sq.Eq{"lemma": ids}).
		ToSql()
	if err != nil {
		return nil, database.PrepareError("user states", err)
	}

	list, err := r.queryStates(ctx, "user states", query, args...)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		states[s.LemmaID] = s
	}
	return states, nil
}

// State returns the override for one lemma, or nil when none is stored
func (r *UserStateRepository) State(ctx context.Context, id int64) (*models.UserLemmaState, error) {
	states, err := r.States(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	s, ok := states[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// All returns every stored override ordered by lemma id
func (r *UserStateRepository) All(ctx context.Context) ([]models.UserLemmaState, error) {
	return r.queryStates(ctx, "all user states",
		"SELECT lemma, is_favorite, learning_status, updated_at FROM lemma_user_state ORDER BY lemma")
}

func (r *UserStateRepository) queryStates(ctx context.Context, op, query string, args ...any) ([]models.UserLemmaState, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query user state", zap.String("op", op), zap.Error(err))
		return nil, database.QueryError(op, err)
	}
	defer rows.Close()

	var out []models.UserLemmaState
	for rows.Next() {
		var (
			s         models.UserLemmaState
			fav       sql.NullInt64
			status    sql.NullInt64
			updatedAt sql.NullString
		)
		if err := rows.Scan(&s.LemmaID, &fav, &status, &updatedAt); err != nil {
			return nil, database.QueryError(op, err)
		}
		if fav.Valid {
			v := fav.Int64 != 0
			s.IsFavorite = &v
		}
		if status.Valid {
			v := models.LearningStatus(status.Int64)
			s.Status = &v
		}
		s.UpdatedAt = parseTimestamp(updatedAt.String)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError(op, err)
	}
	return out, nil
}

// UpsertFavorite stores the favorite flag, keeping any stored status
func (r *UserStateRepository) UpsertFavorite(ctx context.Context, id int64, favorite bool) error {
	return r.upsert(ctx, "upsert favorite", id, []string{"is_favorite"}, boolToInt(favorite))
}

// UpsertStatus stores the learning status, keeping any stored favorite flag
func (r *UserStateRepository) UpsertStatus(ctx context.Context, id int64, status models.LearningStatus) error {
	return r.upsert(ctx, "upsert status", id, []string{"learning_status"}, int(status))
}

// Upsert stores every non-nil field of s
func (r *UserStateRepository) Upsert(ctx context.Context, s models.UserLemmaState) error {
	var (
		cols []string
		vals []any
	)
	if s.IsFavorite != nil {
		cols = append(cols, "is_favorite")
		vals = append(vals, boolToInt(*s.IsFavorite))
	}
	if s.Status != nil {
		cols = append(cols, "learning_status")
		vals = append(vals, int(*s.Status))
	}
	if len(cols) == 0 {
		return nil
	}
	return r.upsert(ctx, "upsert state", s.LemmaID, cols, vals...)
}

func (r *UserStateRepository) upsert(ctx context.Context, op string, id int64, cols []string, vals ...any) error {
	if r.db.ReadOnly {
		return database.ErrReadOnly
	}
	args := append([]any{id}, vals...)
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertUserStateQuery(cols...), args...); err != nil {
		r.logger.Error("failed to upsert user state", zap.Int64("lemma_id", id), zap.Strings("columns", cols), zap.Error(err))
		return database.QueryError(op, err)
	}
	return nil
}

// FavoriteIDs returns ids whose stored favorite flag equals value
func (r *UserStateRepository) FavoriteIDs(ctx context.Context, value bool) ([]int64, error) {
	return scanIDs(ctx, r.db, "favorite ids",
		"SELECT lemma FROM lemma_user_state WHERE is_favorite = ? ORDER BY lemma", boolToInt(value))
}

// StatusIDs returns ids whose stored status is one of statuses
func (r *UserStateRepository) StatusIDs(ctx context.Context, statuses ...models.LearningStatus) ([]int64, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]int, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, int(s))
	}
	query, args, err := sq.Select("lemma").From("lemma_user_state").
		Where(sq.Eq{"learning_status": values}).
		OrderBy("lemma").
		ToSql()
	if err != nil {
		return nil, database.PrepareError("status ids", err)
	}
	return scanIDs(ctx, r.db, "status ids", query, args...)
}

// OverriddenStatusIDs returns ids with any stored status
func (r *UserStateRepository) OverriddenStatusIDs(ctx context.Context) ([]int64, error) {
	return scanIDs(ctx, r.db, "overridden status ids",
		"SELECT lemma FROM lemma_user_state WHERE learning_status IS NOT NULL ORDER BY lemma")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseTimestamp accepts the formats the three drivers hand back for
// timestamp columns scanned as text
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
