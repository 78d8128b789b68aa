package quiz

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraia/internal/models"
	"oraia/internal/textnorm"
)

func newTestGenerator(seed int64) *Generator {
	g := NewGenerator(rand.New(rand.NewSource(seed)))
	n := 0
	g.newID = func() string {
		n++
		return "q" + strconv.Itoa(n)
	}
	return g
}

func verb(id, lemmaID int64, form, tense, voice, person, number string) models.VerbForm {
	return models.VerbForm{
		ID:       id,
		LemmaID:  lemmaID,
		Headword: "λύω",
		Form:     form,
		Tense:    tense,
		Mood:     "indicative",
		Voice:    voice,
		Person:   person,
		Number:   number,
	}
}

// luoForms is a present paradigm plus an aorist, for lemma 1, and a
// single form of lemma 2
func luoForms() []models.VerbForm {
	return []models.VerbForm{
		verb(1, 1, "λύω", "present", "active", "first-person", "singular"),
		verb(2, 1, "λύεις", "present", "active", "second-person", "singular"),
		verb(3, 1, "λύει", "present", "active", "third-person", "singular"),
		verb(4, 1, "λύομεν", "present", "active", "first-person", "plural"),
		verb(5, 1, "λύετε", "present", "active", "second-person", "plural"),
		verb(6, 1, "ἔλυσα", "aorist", "active", "first-person", "singular"),
		verb(7, 1, "ἔλυσας", "aorist", "active", "second-person", "singular"),
		verb(8, 2, "γράφω", "present", "active", "first-person", "singular"),
	}
}

func vocabulary() []models.VocabularyCandidate {
	return []models.VocabularyCandidate{
		{LemmaID: 1, Headword: "λόγος", Gloss: "word"},
		{LemmaID: 2, Headword: "ἔπος", Gloss: "Word"},
		{LemmaID: 3, Headword: "λέξις", Gloss: "speech"},
		{LemmaID: 4, Headword: "νοῦς", Gloss: "mind"},
		{LemmaID: 5, Headword: "ψυχή", Gloss: "soul"},
		{LemmaID: 6, Headword: "θυμός", Gloss: "spirit"},
	}
}

func TestVocabularySessionSize(t *testing.T) {
	pool := Pool{Vocabulary: []models.VocabularyCandidate{
		{LemmaID: 1, Headword: "λόγος", Gloss: "word"},
		{LemmaID: 2, Headword: "λέγω", Gloss: "say"},
		{LemmaID: 1, Headword: "λόγος", Gloss: "reason"},
		{LemmaID: 3, Headword: "ἀγαθός", Gloss: "good"},
	}}
	cfg := models.QuizConfig{Kind: models.QuizVocabulary, QuestionCount: 5}

	questions, err := newTestGenerator(1).Generate(cfg, pool)
	require.NoError(t, err)
	assert.Len(t, questions, 3, "count is capped by unique lemmas")
	assert.Equal(t, 3, AvailableCount(cfg, pool))

	ids := map[int64]bool{}
	for _, q := range questions {
		assert.False(t, ids[q.LemmaID], "lemma %d asked twice", q.LemmaID)
		ids[q.LemmaID] = true
		assert.Empty(t, q.Options, "text answers carry no options")
	}
}

func TestSessionSizeInvariant(t *testing.T) {
	pool := Pool{Vocabulary: vocabulary(), VerbForms: luoForms()}

	tests := []struct {
		kind      models.QuizKind
		available int
	}{
		{models.QuizVocabulary, 6},
		{models.QuizConjugation, 8},
		{models.QuizTransform, 7},
	}

	for _, tt := range tests {
		for _, count := range []int{1, 3, 7, 50} {
			t.Run(tt.kind.String()+"/"+strconv.Itoa(count), func(t *testing.T) {
				cfg := models.QuizConfig{Kind: tt.kind, QuestionCount: count, VerbFilter: models.AllowAllVerbs()}
				questions, err := newTestGenerator(int64(count)).Generate(cfg, pool)
				require.NoError(t, err)
				assert.Len(t, questions, min(count, tt.available))
				assert.Equal(t, min(count, tt.available), AvailableCount(cfg, pool))
			})
		}
	}
}

func TestVocabularyDirection(t *testing.T) {
	pool := Pool{Vocabulary: vocabulary()[:1]}

	questions, err := newTestGenerator(1).Generate(models.QuizConfig{
		Kind: models.QuizVocabulary, QuestionCount: 1, Direction: models.GlossToHeadword,
	}, pool)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "word", questions[0].Prompt)
	assert.Equal(t, "λόγος", questions[0].Answer)
}

func assertOptionInvariants(t *testing.T, q models.QuizQuestion) {
	t.Helper()
	require.NotEmpty(t, q.Options)
	assert.LessOrEqual(t, len(q.Options), maxDistractors+1)

	answers := 0
	seen := map[string]bool{}
	for _, o := range q.Options {
		key := textnorm.Fold(o)
		assert.False(t, seen[key], "duplicate option %q in %v", o, q.Options)
		seen[key] = true
		if o == q.Answer {
			answers++
		}
	}
	assert.Equal(t, 1, answers, "answer must appear exactly once in %v", q.Options)
}

func TestMultipleChoiceOptions(t *testing.T) {
	pool := Pool{Vocabulary: vocabulary()}
	for seed := int64(0); seed < 20; seed++ {
		cfg := models.QuizConfig{Kind: models.QuizVocabulary, QuestionCount: 6, AnswerType: models.AnswerMultipleChoice}
		questions, err := newTestGenerator(seed).Generate(cfg, pool)
		require.NoError(t, err)
		for _, q := range questions {
			assertOptionInvariants(t, q)
			assert.Len(t, q.Options, 4)
		}
	}
}

func TestMultipleChoiceSmallPool(t *testing.T) {
	pool := Pool{Vocabulary: vocabulary()[:2]}
	cfg := models.QuizConfig{Kind: models.QuizVocabulary, QuestionCount: 2, AnswerType: models.AnswerMultipleChoice}

	questions, err := newTestGenerator(3).Generate(cfg, pool)
	require.NoError(t, err)
	for _, q := range questions {
		assert.Equal(t, []string{q.Answer}, q.Options, "\"word\" and \"Word\" fold together, leaving no distractor")
	}
}

func TestConjugationDistractorsShareParadigm(t *testing.T) {
	forms := luoForms()
	tenseOf := map[string]string{}
	for _, f := range forms {
		tenseOf[f.Form] = f.Tense
	}
	cfg := models.QuizConfig{
		Kind:          models.QuizConjugation,
		QuestionCount: 10,
		AnswerType:    models.AnswerMultipleChoice,
		VerbFilter:    models.AllowAllVerbs(),
	}

	questions, err := newTestGenerator(5).Generate(cfg, Pool{VerbForms: forms})
	require.NoError(t, err)
	require.Len(t, questions, len(forms))
	for _, q := range questions {
		assertOptionInvariants(t, q)
		for _, o := range q.Options {
			assert.Equal(t, tenseOf[q.Answer], tenseOf[o], "option %q of %q", o, q.Answer)
		}
		assert.Contains(t, q.Prompt, "λύω: ")
	}
}

func TestConjugationFilterAndDedup(t *testing.T) {
	forms := append(luoForms(), verb(9, 1, "λύω", "present", "active", "1st", "sg"))
	cfg := models.QuizConfig{
		Kind:          models.QuizConjugation,
		QuestionCount: 20,
		VerbFilter:    models.AllowAllVerbs(),
	}
	assert.Equal(t, 8, AvailableCount(cfg, Pool{VerbForms: forms}), "same signature counts once")

	cfg.VerbFilter.Tense = models.CategoryFilter{Values: []string{"aorist"}}
	questions, err := newTestGenerator(1).Generate(cfg, Pool{VerbForms: forms})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Contains(t, []string{"ἔλυσα", "ἔλυσας"}, q.Answer)
	}
}

func TestTransformQuestions(t *testing.T) {
	cfg := models.QuizConfig{Kind: models.QuizTransform, QuestionCount: 100, VerbFilter: models.AllowAllVerbs()}

	questions, err := newTestGenerator(9).Generate(cfg, Pool{VerbForms: luoForms()})
	require.NoError(t, err)
	require.Len(t, questions, 7, "a lemma with one form cannot be transformed")
	for _, q := range questions {
		assert.Equal(t, int64(1), q.LemmaID)
		assert.NotContains(t, q.Prompt, "change "+q.Answer+" (", "source and target differ")
	}
}

func principalPartForms() []models.VerbForm {
	return []models.VerbForm{
		verb(9, 7, "λύεις", "present", "active", "second-person", "singular"),
		verb(10, 7, "λύω", "present", "active", "first-person", "singular"),
		verb(11, 7, "λύσω", "future", "active", "first-person", "singular"),
		verb(5, 7, "λύσομαι", "future", "middle", "first-person", "singular"),
		verb(20, 7, "ἔλυσα2", "aorist", "active", "first-person", "singular"),
		verb(12, 7, "ἔλυσα", "aorist", "active", "first-person", "singular"),
		verb(13, 7, "λέλυκα", "perfect", "active", "first-person", "singular"),
		verb(14, 7, "λέλυμαι", "perfect", "middle-passive", "first-person", "singular"),
		verb(15, 7, "ἐλύθην", "aorist", "passive", "first-person", "singular"),
		verb(16, 7, "ἔλυον", "imperfect", "active", "first-person", "singular"),
	}
}

var wantParts = []string{"λύω", "λύσω", "ἔλυσα", "λέλυκα", "λέλυμαι", "ἐλύθην"}

func TestInferPrincipalParts(t *testing.T) {
	parts, ok := InferPrincipalParts(principalPartForms())
	require.True(t, ok)
	require.Len(t, parts, 6)
	got := make([]string, len(parts))
	for i, p := range parts {
		got[i] = p.Form
	}
	assert.Equal(t, wantParts, got, "lowest id wins each slot")

	missing := principalPartForms()[:8]
	_, ok = InferPrincipalParts(missing)
	assert.False(t, ok, "no aorist passive")
}

func TestPrincipalPartsQuestions(t *testing.T) {
	forms := principalPartForms()
	for _, f := range principalPartForms()[:8] {
		f.LemmaID = 8
		f.ID += 100
		forms = append(forms, f)
	}
	cfg := models.QuizConfig{Kind: models.QuizPrincipalParts, VerbFilter: models.AllowAllVerbs()}

	questions, err := newTestGenerator(2).Generate(cfg, Pool{VerbForms: forms})
	require.NoError(t, err)
	require.Len(t, questions, 1, "incomplete lemmas are skipped")
	assert.Equal(t, 1, AvailableCount(cfg, Pool{VerbForms: forms}))

	q := questions[0]
	assert.Equal(t, int64(7), q.LemmaID)
	assert.Equal(t, wantParts, q.ExpectedParts)
	assert.Equal(t, "λύω, λύσω, ἔλυσα, λέλυκα, λέλυμαι, ἐλύθην", q.Answer)
}

func TestOptionsNeverDuplicateAnswer(t *testing.T) {
	g := newTestGenerator(4)
	opts := g.options("λόγος", []string{"Λόγος", "λογος", " λόγος ", "ἔπος", "μῦθος", "ἔπος", "ῥῆμα", "φωνή"})
	assertOptionInvariants(t, models.QuizQuestion{Answer: "λόγος", Options: opts})
	assert.Len(t, opts, 4)
}
