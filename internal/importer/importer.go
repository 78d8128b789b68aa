// Package importer loads a wiktextract JSONL dump of Ancient Greek into a
// lexicon dataset.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/textnorm"
)

const (
	greekLangCode      = "grc"
	defaultCommitEvery = 1000
	maxLineBytes       = 64 << 20
	missingGloss       = "?"
)

// Options controls an import run
type Options struct {
	AllowedPOS  map[string]bool // defaults to DefaultPOS
	CommitEvery int             // entries per transaction, defaults to 1000
}

// Report counts imported entries and the reasons others were skipped
type Report struct {
	Imported        int
	JSONDecodeError int
	NonGreek        int
	MissingPOS      int
	POSNotAllowed   int
	MissingHeadword int
	SkippedPOS      map[string]int
}

// Skipped returns the number of entries that were not imported
func (r *Report) Skipped() int {
	return r.JSONDecodeError + r.NonGreek + r.MissingPOS + r.POSNotAllowed + r.MissingHeadword
}

// POSCount is one row of the skipped POS breakdown
type POSCount struct {
	POS   string
	Count int
}

// SkippedPOSBreakdown lists skipped POS codes, most frequent first
func (r *Report) SkippedPOSBreakdown() []POSCount {
	out := make([]POSCount, 0, len(r.SkippedPOS))
	for pos, n := range r.SkippedPOS {
		out = append(out, POSCount{POS: pos, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].POS < out[j].POS
	})
	return out
}

type wikiEntry struct {
	Word                string             `json:"word"`
	POS                 string             `json:"pos"`
	LangCode            string             `json:"lang_code"`
	EtymologyText       string             `json:"etymology_text"`
	EtymologyNumber     *int               `json:"etymology_number"`
	InflectionTemplates json.RawMessage    `json:"inflection_templates"`
	Related             json.RawMessage    `json:"related"`
	Synonyms            json.RawMessage    `json:"synonyms"`
	Antonyms            json.RawMessage    `json:"antonyms"`
	Categories          json.RawMessage    `json:"categories"`
	HeadTemplates       []wikiHeadTemplate `json:"head_templates"`
	Senses              []wikiSense        `json:"senses"`
	Forms               []wikiForm         `json:"forms"`
}

type wikiHeadTemplate struct {
	Args map[string]any `json:"args"`
}

type wikiSense struct {
	Glosses   []string        `json:"glosses"`
	Tags      json.RawMessage `json:"tags"`
	Qualifier string          `json:"qualifier"`
	Examples  json.RawMessage `json:"examples"`
}

// tagList decodes sense tags, ignoring values that are not a string list
func (s wikiSense) tagList() []string {
	var tags []string
	if err := json.Unmarshal(s.Tags, &tags); err != nil {
		return nil
	}
	return tags
}

type wikiForm struct {
	Form   string   `json:"form"`
	Tags   []string `json:"tags"`
	Source string   `json:"source"`
}

// Importer writes wiktextract entries into a dataset
type Importer struct {
	db     *database.DB
	logger *zap.Logger

	pos      map[string]int64
	dialects map[string]int64
	lemmas   map[string]int64
}

// New creates an importer for db. The dataset schema is applied on the
// first Import.
func New(db *database.DB, logger *zap.Logger) *Importer {
	return &Importer{
		db:       db,
		logger:   logger,
		pos:      make(map[string]int64),
		dialects: make(map[string]int64),
		lemmas:   make(map[string]int64),
	}
}

// Import reads JSONL entries from r. Entries are committed in batches, so
// a failure keeps every batch committed before it. The id caches are
// cleared on failure since the rolled-back batch may have filled them.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (report *Report, err error) {
	if opts.CommitEvery <= 0 {
		opts.CommitEvery = defaultCommitEvery
	}
	if len(opts.AllowedPOS) == 0 {
		opts.AllowedPOS = ParsePOSList(DefaultPOS)
	}
	if err := database.ApplyDatasetSchema(ctx, im.db); err != nil {
		return nil, err
	}

	report = &Report{SkippedPOS: make(map[string]int)}
	tx, err := im.db.Begin(ctx)
	if err != nil {
		return nil, database.QueryError("begin import", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
		if err != nil {
			im.resetCaches()
		}
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var entry wikiEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			report.JSONDecodeError++
			im.logger.Debug("skipping undecodable line", zap.Int("line", line), zap.Error(err))
			continue
		}
		if !im.accept(entry, opts, report) {
			continue
		}

		if err := im.importEntry(ctx, tx, entry); err != nil {
			return report, fmt.Errorf("line %d (%s): %w", line, entry.Word, err)
		}
		report.Imported++

		if report.Imported%opts.CommitEvery == 0 {
			if err := tx.Commit(); err != nil {
				tx = nil
				return report, database.QueryError("commit import batch", err)
			}
			im.logger.Debug("import batch committed", zap.Int("imported", report.Imported))
			if tx, err = im.db.Begin(ctx); err != nil {
				tx = nil
				return report, database.QueryError("begin import", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read input: %w", err)
	}

	err = tx.Commit()
	tx = nil
	if err != nil {
		return report, database.QueryError("commit import", err)
	}

	im.logger.Info("import finished",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped()))
	return report, nil
}

func (im *Importer) resetCaches() {
	clear(im.pos)
	clear(im.dialects)
	clear(im.lemmas)
}

func (im *Importer) accept(e wikiEntry, opts Options, report *Report) bool {
	if e.LangCode != greekLangCode {
		report.NonGreek++
		return false
	}
	pos := NormalizePOS(e.POS)
	if pos == "" {
		report.MissingPOS++
		return false
	}
	if !opts.AllowedPOS[pos] {
		report.POSNotAllowed++
		report.SkippedPOS[pos]++
		return false
	}
	if e.Word == "" {
		report.MissingHeadword++
		return false
	}
	return true
}

func (im *Importer) importEntry(ctx context.Context, tx *database.Tx, e wikiEntry) error {
	posID, err := lookupOrInsert(ctx, tx, im.pos, "pos", NormalizePOS(e.POS))
	if err != nil {
		return err
	}
	lemmaID, err := im.lemma(ctx, tx, e.Word)
	if err != nil {
		return err
	}

	if e.hasMetadata() {
		_, err := tx.ExecContext(ctx, `
			UPDATE lemma SET
				etymology_text = COALESCE(?, etymology_text),
				etymology_number = COALESCE(?, etymology_number),
				inflection_templates = COALESCE(?, inflection_templates),
				related = COALESCE(?, related),
				synonyms = COALESCE(?, synonyms),
				antonyms = COALESCE(?, antonyms),
				categories = COALESCE(?, categories)
			WHERE id = ?`,
			nullString(e.EtymologyText), e.EtymologyNumber, rawJSON(e.InflectionTemplates),
			rawJSON(e.Related), rawJSON(e.Synonyms), rawJSON(e.Antonyms), rawJSON(e.Categories), lemmaID)
		if err != nil {
			return database.QueryError("update lemma metadata", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		tx.GetDialect().InsertIgnoreQuery("lemma_pos", "lemma_id", "pos_id", "is_primary"),
		lemmaID, posID, 1); err != nil {
		return database.QueryError("insert lemma pos", err)
	}

	for i, s := range e.Senses {
		gloss, definition := splitGlosses(s.Glosses)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sense (lemma_id, pos_id, gloss, definition, sense_order, tags, qualifier, examples)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			lemmaID, posID, gloss, definition, i, rawJSON(s.Tags), nullString(s.Qualifier), rawJSON(s.Examples))
		if err != nil {
			return database.QueryError("insert sense", err)
		}
	}

	var extra formExtra
	switch NormalizePOS(e.POS) {
	case "pron":
		extra.PronounType = pronounType(e)
	case "prep":
		extra.GovernsCase = governsCase(e)
	}

	for _, f := range e.Forms {
		if !keepForm(f) {
			continue
		}
		if err := im.insertForm(ctx, tx, lemmaID, posID, f, extra); err != nil {
			return err
		}
	}
	return nil
}

func (e wikiEntry) hasMetadata() bool {
	if e.EtymologyText != "" || e.EtymologyNumber != nil {
		return true
	}
	for _, raw := range []json.RawMessage{e.InflectionTemplates, e.Related, e.Synonyms, e.Antonyms, e.Categories} {
		if rawJSON(raw) != nil {
			return true
		}
	}
	return false
}

func (im *Importer) insertForm(ctx context.Context, tx *database.Tx, lemmaID, posID int64, f wikiForm, extra formExtra) error {
	parsed := parseTags(f.Tags)
	var dialectID any
	if parsed.Dialect != "" {
		id, err := lookupOrInsert(ctx, tx, im.dialects, "dialect", parsed.Dialect)
		if err != nil {
			return err
		}
		dialectID = id
	}
	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return fmt.Errorf("encode form tags: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (lemma_id, pos_id, form, form_norm, dialect_id, tense, mood, voice, person, number,
			grammatical_case, gender, degree, verb_form_type, is_principal_part,
			pronoun_type, governs_case, tags, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		lemmaID, posID, f.Form, textnorm.Lower(f.Form), dialectID,
		nullString(parsed.Tense), nullString(parsed.Mood), nullString(parsed.Voice),
		nullString(parsed.Person), nullString(parsed.Number), nullString(parsed.Case),
		nullString(parsed.Gender), nullString(parsed.Degree), nullString(parsed.VerbFormType),
		nullString(extra.PronounType), nullString(extra.GovernsCase),
		string(tags), nullString(f.Source))
	if err != nil {
		return database.QueryError("insert form", err)
	}
	return nil
}

// lemma returns the id of the lemma keyed by headword and its lowercase
// form, inserting it if needed
func (im *Importer) lemma(ctx context.Context, tx *database.Tx, headword string) (int64, error) {
	norm := textnorm.Lower(headword)
	key := headword + "\x00" + norm
	if id, ok := im.lemmas[key]; ok {
		return id, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM lemma WHERE headword = ? AND headword_norm = ?", headword, norm).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id, err = tx.ExecReturningID(ctx, "INSERT INTO lemma (headword, headword_norm) VALUES (?, ?)", headword, norm)
	}
	if err != nil {
		return 0, database.QueryError("ensure lemma", err)
	}
	im.lemmas[key] = id
	return id, nil
}

func lookupOrInsert(ctx context.Context, tx *database.Tx, cache map[string]int64, table, code string) (int64, error) {
	if id, ok := cache[code]; ok {
		return id, nil
	}
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE code = ?", code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id, err = tx.ExecReturningID(ctx, "INSERT INTO "+table+" (code) VALUES (?)", code)
	}
	if err != nil {
		return 0, database.QueryError("ensure "+table, err)
	}
	cache[code] = id
	return id, nil
}

// splitGlosses returns the first gloss and the rest joined as a definition
func splitGlosses(glosses []string) (string, any) {
	if len(glosses) == 0 {
		return missingGloss, nil
	}
	if len(glosses) == 1 {
		return glosses[0], nil
	}
	return glosses[0], strings.Join(glosses[1:], "; ")
}

// rawJSON keeps a non-empty JSON value as text
func rawJSON(raw json.RawMessage) any {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "[]", "{}", `""`:
		return nil
	}
	return string(raw)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
