package importer

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/dbtest"
	"oraia/internal/repository"
)

const sampleDump = `
{"word":"λύω","pos":"verb","lang_code":"grc","etymology_text":"From PIE","senses":[{"glosses":["to loose","to release","to set free"]}],"forms":[{"form":"λύω","tags":["first-person","singular","present","indicative","active"]},{"form":"λύσω","tags":["first-person","singular","future","indicative","active","epic"]},{"form":"lúō","tags":["romanization"]},{"form":"-","tags":["aorist"]},{"form":"λύειν","tags":[]},{"form":"grc-conj","tags":["inflection-template"]}]}
{"word":"λόγος","pos":"noun","lang_code":"grc","senses":[{"glosses":["word"]},{}],"forms":[{"form":"λόγου","tags":["genitive","singular"],"source":"declension"}]}
{"word":"καλός","pos":"adjective","lang_code":"grc","senses":[{"glosses":["beautiful"]}]}
not json
{"word":"logos","pos":"noun","lang_code":"en"}
{"word":"Ἀθῆναι","pos":"name","lang_code":"grc"}
{"word":"ἄνευ","pos":"","lang_code":"grc"}
{"word":"","pos":"noun","lang_code":"grc"}
`

func runImport(t *testing.T, db *database.DB, input string, opts Options) *Report {
	t.Helper()
	report, err := New(db, zap.NewNop()).Import(context.Background(), strings.NewReader(input), opts)
	require.NoError(t, err)
	return report
}

func count(t *testing.T, db *database.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func TestImportReport(t *testing.T) {
	db := dbtest.NewDataset(t)

	report := runImport(t, db, sampleDump, Options{})

	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 1, report.JSONDecodeError)
	assert.Equal(t, 1, report.NonGreek)
	assert.Equal(t, 1, report.MissingPOS)
	assert.Equal(t, 1, report.POSNotAllowed)
	assert.Equal(t, 1, report.MissingHeadword)
	assert.Equal(t, 5, report.Skipped())
	assert.Equal(t, []POSCount{{POS: "name", Count: 1}}, report.SkippedPOSBreakdown())
}

func TestImportRows(t *testing.T) {
	db := dbtest.NewDataset(t)
	ctx := context.Background()
	runImport(t, db, sampleDump, Options{CommitEvery: 1})

	assert.Equal(t, 3, count(t, db, "SELECT COUNT(*) FROM lemma"))
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM pos WHERE code = 'adj'"), "POS aliases apply")

	lemmas, err := repository.NewLemmaRepository(ctx, db, zap.NewNop())
	require.NoError(t, err)

	var luoID int64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT id FROM lemma WHERE headword = ?", "λύω").Scan(&luoID))
	d, err := lemmas.Detail(ctx, luoID)
	require.NoError(t, err)
	assert.Equal(t, []string{"verb"}, d.POSCodes)
	require.Len(t, d.SenseGroups, 1)
	require.Len(t, d.SenseGroups[0].Senses, 1)
	assert.Equal(t, "to loose", d.SenseGroups[0].Senses[0].Gloss)
	assert.Equal(t, "to release; to set free", d.SenseGroups[0].Senses[0].Definition)

	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM sense WHERE gloss = '?'"), "sense without glosses")

	forms, err := repository.NewFormRepository(db, zap.NewNop()).VerbForms(ctx, luoID)
	require.NoError(t, err)
	require.Len(t, forms, 2, "romanizations, placeholders, untagged and template rows are dropped")
	assert.Equal(t, "λύω", forms[0].Form)
	assert.Equal(t, "present", forms[0].Tense)
	assert.Equal(t, "first-person", forms[0].Person)
	assert.Equal(t, "attic", forms[0].Dialect)
	assert.Equal(t, "future", forms[1].Tense)
	assert.Equal(t, "epic", forms[1].Dialect)

	analyses, err := repository.NewFormRepository(db, zap.NewNop()).LookupForm(ctx, "λόγου")
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "genitive", analyses[0].Case)
	assert.Equal(t, "declension", analyses[0].Source)
	assert.Equal(t, `["genitive","singular"]`, analyses[0].Tags)
}

func TestImportReusesLemmas(t *testing.T) {
	db := dbtest.NewDataset(t)
	input := `{"word":"λέγω","pos":"verb","lang_code":"grc","senses":[{"glosses":["say"]}]}
{"word":"λέγω","pos":"verb","lang_code":"grc","etymology_number":2,"senses":[{"glosses":["pick up"]}]}`

	report := runImport(t, db, input, Options{})

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM lemma"))
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM lemma_pos"))
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM sense"))
	assert.Equal(t, 2, count(t, db, "SELECT etymology_number FROM lemma"))
}

func TestImportRestrictedPOS(t *testing.T) {
	db := dbtest.NewDataset(t)

	report := runImport(t, db, sampleDump, Options{AllowedPOS: ParsePOSList("verb")})

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, map[string]int{"noun": 1, "adj": 1, "name": 1}, report.SkippedPOS)
}

func TestImportCancelled(t *testing.T) {
	db := dbtest.NewDataset(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(db, zap.NewNop()).Import(ctx, strings.NewReader(sampleDump), Options{})
	assert.Error(t, err)
	assert.Equal(t, 0, count(t, db, "SELECT COUNT(*) FROM lemma"))
}

// cancellingReader hands out one line per Read and cancels the import
// context before the second line
type cancellingReader struct {
	lines  []string
	cancel context.CancelFunc
	next   int
}

func (r *cancellingReader) Read(p []byte) (int, error) {
	if r.next >= len(r.lines) {
		return 0, io.EOF
	}
	if r.next > 0 {
		r.cancel()
	}
	n := copy(p, r.lines[r.next])
	r.next++
	return n, nil
}

func TestImportAfterFailedRun(t *testing.T) {
	db := dbtest.NewDataset(t)
	im := New(db, zap.NewNop())
	lego := `{"word":"λέγω","pos":"verb","lang_code":"grc","senses":[{"glosses":["say"]}],"forms":[{"form":"λέγεις","tags":["second-person","singular","present","indicative","active","epic"]}]}` + "\n"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := im.Import(ctx, &cancellingReader{lines: []string{lego, lego}, cancel: cancel}, Options{CommitEvery: 100})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, count(t, db, "SELECT COUNT(*) FROM lemma"), "the open batch was rolled back")

	report, err := im.Import(context.Background(), strings.NewReader(lego), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM lemma"))
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM lemma_pos lp JOIN lemma l ON l.id = lp.lemma_id JOIN pos p ON p.id = lp.pos_id"))
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM form f JOIN lemma l ON l.id = f.lemma_id JOIN dialect d ON d.id = f.dialect_id"))
}

func TestImportLemmaRelations(t *testing.T) {
	db := dbtest.NewDataset(t)
	ctx := context.Background()
	input := `{"word":"ἀγαθός","pos":"adj","lang_code":"grc","synonyms":[{"word":"καλός"}],"antonyms":[{"word":"κακός"}],"related":[],"inflection_templates":[{"name":"grc-decl"}],"senses":[{"glosses":["good"]}]}`

	runImport(t, db, input, Options{})

	var synonyms, antonyms, templates string
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT synonyms, antonyms, inflection_templates FROM lemma").Scan(&synonyms, &antonyms, &templates))
	assert.JSONEq(t, `[{"word":"καλός"}]`, synonyms)
	assert.JSONEq(t, `[{"word":"κακός"}]`, antonyms)
	assert.JSONEq(t, `[{"name":"grc-decl"}]`, templates)
	assert.Equal(t, 0, count(t, db, "SELECT COUNT(*) FROM lemma WHERE related IS NOT NULL"), "empty lists are not stored")
}

func TestImportPronounAndPrepositionForms(t *testing.T) {
	db := dbtest.NewDataset(t)
	ctx := context.Background()
	input := `{"word":"οὗτος","pos":"pronoun","lang_code":"grc","head_templates":[{"args":{"cat2":"Demonstrative pronouns","1":3}}],"senses":[{"glosses":["this"]}],"forms":[{"form":"τοῦτο","tags":["neuter","nominative","singular"]}]}
{"word":"παρά","pos":"preposition","lang_code":"grc","head_templates":[{"args":{"2":"acc; gen"}}],"senses":[{"glosses":["beside"],"tags":["with-dative"]},{"glosses":["from"],"tags":["with-genitive"]}],"forms":[{"form":"παρ᾽","tags":["alternative"]}]}`

	runImport(t, db, input, Options{})

	var pronounType string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT pronoun_type FROM form WHERE form = ?", "τοῦτο").Scan(&pronounType))
	assert.Equal(t, "demonstrative", pronounType)

	var governs string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT governs_case FROM form WHERE form = ?", "παρ᾽").Scan(&governs))
	assert.Equal(t, "dative/genitive/accusative", governs)
}
