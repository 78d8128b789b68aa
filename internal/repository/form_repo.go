package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/models"
)

// FormRepository reads inflected forms from the lexicon dataset
type FormRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewFormRepository creates a new form repository
func NewFormRepository(db *database.DB, logger *zap.Logger) *FormRepository {
	return &FormRepository{db: db, logger: logger}
}

// NounForms returns the noun forms of a lemma in stored order
func (r *FormRepository) NounForms(ctx context.Context, lemmaID int64) ([]models.NounForm, error) {
	query := `
		SELECT f.id, f.lemma_id, f.form, f.number, f.grammatical_case, f.gender, d.code
		FROM form f
		JOIN pos p ON p.id = f.pos_id
		LEFT JOIN dialect d ON d.id = f.dialect_id
		WHERE f.lemma_id = ? AND p.code = 'noun'
		ORDER BY f.id
	`
	rows, err := r.db.QueryContext(ctx, query, lemmaID)
	if err != nil {
		r.logger.Error("failed to query noun forms", zap.Int64("lemma_id", lemmaID), zap.Error(err))
		return nil, database.QueryError("noun forms", err)
	}
	defer rows.Close()

	var forms []models.NounForm
	for rows.Next() {
		var (
			f                             models.NounForm
			number, gramCase, gender, dia sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.LemmaID, &f.Form, &number, &gramCase, &gender, &dia); err != nil {
			return nil, database.QueryError("noun forms", err)
		}
		f.Number = number.String
		f.Case = gramCase.String
		f.Gender = gender.String
		f.Dialect = dialectOrDefault(dia)
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("noun forms", err)
	}
	return forms, nil
}

// VerbForms returns the verb forms of a lemma in stored order
func (r *FormRepository) VerbForms(ctx context.Context, lemmaID int64) ([]models.VerbForm, error) {
	return r.verbForms(ctx, "verb forms", []int64{lemmaID})
}

// VerbFormsFor returns the verb forms of all given lemmas, ordered by
// lemma id then form id
func (r *FormRepository) VerbFormsFor(ctx context.Context, lemmaIDs []int64) ([]models.VerbForm, error) {
	if len(lemmaIDs) == 0 {
		return nil, nil
	}
	return r.verbForms(ctx, "verb forms for lemmas", lemmaIDs)
}

func (r *FormRepository) verbForms(ctx context.Context, op string, lemmaIDs []int64) ([]models.VerbForm, error) {
	query, args, err := sq.Select(
		"f.id", "f.lemma_id", "l.headword", "f.form",
		"f.person", "f.number", "f.tense", "f.mood", "f.voice", "f.verb_form_type", "d.code",
	).
		From("form f").
		Join("lemma l ON l.id = f.lemma_id").
		Join("pos p ON p.id = f.pos_id").
		LeftJoin("dialect d ON d.id = f.dialect_id").
		Where(sq.Eq{"f.lemma_id": lemmaIDs, "p.code": "verb"}).
		OrderBy("f.lemma_id", "f.id").
		ToSql()
	if err != nil {
		return nil, database.PrepareError(op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query verb forms", zap.Int("lemmas", len(lemmaIDs)), zap.Error(err))
		return nil, database.QueryError(op, err)
	}
	defer rows.Close()

	var forms []models.VerbForm
	for rows.Next() {
		var (
			f                                       models.VerbForm
			person, number, tense, mood, voice, vft sql.NullString
			dia                                     sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.LemmaID, &f.Headword, &f.Form,
			&person, &number, &tense, &mood, &voice, &vft, &dia); err != nil {
			return nil, database.QueryError(op, err)
		}
		f.Person = person.String
		f.Number = number.String
		f.Tense = tense.String
		f.Mood = mood.String
		f.Voice = voice.String
		f.VerbFormType = vft.String
		f.Dialect = dialectOrDefault(dia)
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError(op, err)
	}
	return forms, nil
}

// LookupForm returns every analysis of an exact surface form
func (r *FormRepository) LookupForm(ctx context.Context, text string) ([]models.FormAnalysis, error) {
	cols, err := database.TableColumns(ctx, r.db, "form")
	if err != nil {
		return nil, err
	}
	source, tags := "NULL", "NULL"
	if cols["source"] {
		source = "f.source"
	}
	if cols["tags"] {
		tags = "f.tags"
	}

	query := `
		SELECT f.id, l.headword, p.code, f.form, f.tense, f.mood, f.voice, f.person, f.number,
			f.grammatical_case, f.gender, f.verb_form_type, d.code, ` + source + `, ` + tags + `
		FROM form f
		JOIN lemma l ON l.id = f.lemma_id
		JOIN pos p ON p.id = f.pos_id
		LEFT JOIN dialect d ON d.id = f.dialect_id
		WHERE f.form = ?
		ORDER BY l.headword, p.code, f.id
	`
	rows, err := r.db.QueryContext(ctx, query, text)
	if err != nil {
		return nil, database.QueryError("lookup form", err)
	}
	defer rows.Close()

	var out []models.FormAnalysis
	for rows.Next() {
		var (
			a                                   models.FormAnalysis
			tense, mood, voice, person, number  sql.NullString
			gramCase, gender, vft, dia, src, tg sql.NullString
		)
		if err := rows.Scan(&a.FormID, &a.Headword, &a.POSCode, &a.Form, &tense, &mood, &voice, &person, &number,
			&gramCase, &gender, &vft, &dia, &src, &tg); err != nil {
			return nil, database.QueryError("lookup form", err)
		}
		a.Tense, a.Mood, a.Voice = tense.String, mood.String, voice.String
		a.Person, a.Number = person.String, number.String
		a.Case, a.Gender, a.VerbFormType = gramCase.String, gender.String, vft.String
		a.Dialect, a.Source, a.Tags = dia.String, src.String, tg.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, database.QueryError("lookup form", err)
	}
	return out, nil
}

func dialectOrDefault(code sql.NullString) string {
	if !code.Valid || code.String == "" {
		return models.DefaultDialect
	}
	return code.String
}
