// Package quiz builds question sets from lexicon data and tracks quiz sessions.
package quiz

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"oraia/internal/models"
	"oraia/internal/morphology"
	"oraia/internal/textnorm"
)

// maxDistractors is the number of wrong options offered with a correct answer
const maxDistractors = 3

// Generator turns candidate pools into questions. It is not safe for
// concurrent use because it owns its random source.
type Generator struct {
	rng   *rand.Rand
	newID func() string
}

// NewGenerator creates a generator drawing from rng
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, newID: uuid.NewString}
}

// Pool is everything a generator may draw from for one quiz
type Pool struct {
	Vocabulary []models.VocabularyCandidate
	VerbForms  []models.VerbForm
}

// Generate builds the questions for cfg. The result may be empty.
func (g *Generator) Generate(cfg models.QuizConfig, pool Pool) ([]models.QuizQuestion, error) {
	switch cfg.Kind {
	case models.QuizVocabulary:
		return g.vocabulary(cfg, pool.Vocabulary), nil
	case models.QuizConjugation:
		return g.conjugation(cfg, pool.VerbForms), nil
	case models.QuizTransform:
		return g.transform(cfg, pool.VerbForms), nil
	case models.QuizPrincipalParts:
		return g.principalParts(SurvivingForms(cfg.VerbFilter, pool.VerbForms)), nil
	}
	return nil, fmt.Errorf("unsupported quiz kind %s", cfg.Kind)
}

// AvailableCount reports how many questions cfg could produce from pool
func AvailableCount(cfg models.QuizConfig, pool Pool) int {
	n := 0
	switch cfg.Kind {
	case models.QuizVocabulary:
		n = len(DedupVocabulary(pool.Vocabulary))
	case models.QuizConjugation:
		n = len(SurvivingForms(cfg.VerbFilter, pool.VerbForms))
	case models.QuizTransform:
		for _, forms := range byLemma(SurvivingForms(cfg.VerbFilter, pool.VerbForms)) {
			if len(forms) >= 2 {
				n += len(forms)
			}
		}
	case models.QuizPrincipalParts:
		return len(qualifyingLemmas(SurvivingForms(cfg.VerbFilter, pool.VerbForms)))
	}
	return min(n, cfg.QuestionCount)
}

// DedupVocabulary keeps the first candidate per lemma id
func DedupVocabulary(cands []models.VocabularyCandidate) []models.VocabularyCandidate {
	seen := make(map[int64]bool, len(cands))
	out := make([]models.VocabularyCandidate, 0, len(cands))
	for _, c := range cands {
		if seen[c.LemmaID] {
			continue
		}
		seen[c.LemmaID] = true
		out = append(out, c)
	}
	return out
}

// SurvivingForms applies filter and drops forms whose signature was
// already seen
func SurvivingForms(filter models.VerbFilter, forms []models.VerbForm) []models.VerbForm {
	seen := make(map[morphology.Signature]bool, len(forms))
	out := make([]models.VerbForm, 0, len(forms))
	for _, f := range forms {
		if !morphology.Passes(filter, f) {
			continue
		}
		sig := morphology.SignatureOf(f)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, f)
	}
	return out
}

func (g *Generator) vocabulary(cfg models.QuizConfig, cands []models.VocabularyCandidate) []models.QuizQuestion {
	cands = DedupVocabulary(cands)

	answerOf := func(c models.VocabularyCandidate) string {
		if cfg.Direction == models.GlossToHeadword {
			return c.Headword
		}
		return c.Gloss
	}
	promptOf := func(c models.VocabularyCandidate) string {
		if cfg.Direction == models.GlossToHeadword {
			return c.Gloss
		}
		return c.Headword
	}

	answers := make([]string, len(cands))
	for i, c := range cands {
		answers[i] = answerOf(c)
	}

	picked := take(g.rng, cands, cfg.QuestionCount)
	questions := make([]models.QuizQuestion, 0, len(picked))
	for _, c := range picked {
		q := models.QuizQuestion{
			ID:      g.newID(),
			Kind:    models.QuizVocabulary,
			LemmaID: c.LemmaID,
			Prompt:  promptOf(c),
			Answer:  answerOf(c),
		}
		if cfg.AnswerType == models.AnswerMultipleChoice {
			q.Options = g.options(q.Answer, answers)
		}
		questions = append(questions, q)
	}
	return questions
}

func (g *Generator) conjugation(cfg models.QuizConfig, forms []models.VerbForm) []models.QuizQuestion {
	forms = SurvivingForms(cfg.VerbFilter, forms)
	picked := take(g.rng, forms, cfg.QuestionCount)

	questions := make([]models.QuizQuestion, 0, len(picked))
	for _, f := range picked {
		q := models.QuizQuestion{
			ID:      g.newID(),
			Kind:    models.QuizConjugation,
			LemmaID: f.LemmaID,
			Prompt:  fmt.Sprintf("%s: %s", f.Headword, morphology.Descriptor(f)),
			Answer:  f.Form,
		}
		if cfg.AnswerType == models.AnswerMultipleChoice {
			q.Options = g.options(q.Answer, paradigmForms(f, forms))
		}
		questions = append(questions, q)
	}
	return questions
}

func (g *Generator) transform(cfg models.QuizConfig, forms []models.VerbForm) []models.QuizQuestion {
	forms = SurvivingForms(cfg.VerbFilter, forms)

	type pair struct{ source, target models.VerbForm }
	var pairs []pair
	for _, group := range byLemma(forms) {
		if len(group) < 2 {
			continue
		}
		for i, target := range group {
			j := g.rng.Intn(len(group) - 1)
			if j >= i {
				j++
			}
			pairs = append(pairs, pair{source: group[j], target: target})
		}
	}

	picked := take(g.rng, pairs, cfg.QuestionCount)
	questions := make([]models.QuizQuestion, 0, len(picked))
	for _, p := range picked {
		q := models.QuizQuestion{
			ID:      g.newID(),
			Kind:    models.QuizTransform,
			LemmaID: p.target.LemmaID,
			Prompt: fmt.Sprintf("%s: change %s (%s) → %s", p.target.Headword, p.source.Form,
				morphology.Descriptor(p.source), morphology.Descriptor(p.target)),
			Answer: p.target.Form,
		}
		if cfg.AnswerType == models.AnswerMultipleChoice {
			q.Options = g.options(q.Answer, paradigmForms(p.target, forms))
		}
		questions = append(questions, q)
	}
	return questions
}

// paradigmForms returns the texts of forms of f's lemma that share its
// tense, voice and mood
func paradigmForms(f models.VerbForm, forms []models.VerbForm) []string {
	var out []string
	for _, other := range forms {
		if other.LemmaID == f.LemmaID && other.ID != f.ID && morphology.SameParadigm(f, other) {
			out = append(out, other.Form)
		}
	}
	return out
}

// options returns answer plus up to three distractors from pool, shuffled.
// Pool entries equal to the answer, or to each other, after folding are
// dropped.
func (g *Generator) options(answer string, pool []string) []string {
	seen := map[string]bool{textnorm.Fold(answer): true}
	var distractors []string
	for _, p := range pool {
		key := textnorm.Fold(p)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		distractors = append(distractors, p)
	}

	shuffle(g.rng, distractors)
	if len(distractors) > maxDistractors {
		distractors = distractors[:maxDistractors]
	}
	opts := append(distractors, answer)
	shuffle(g.rng, opts)
	return opts
}

// byLemma groups forms by lemma id, keeping first-seen lemma order
func byLemma(forms []models.VerbForm) [][]models.VerbForm {
	index := make(map[int64]int)
	var groups [][]models.VerbForm
	for _, f := range forms {
		i, ok := index[f.LemmaID]
		if !ok {
			i = len(groups)
			index[f.LemmaID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], f)
	}
	return groups
}

func shuffle[T any](rng *rand.Rand, items []T) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// take shuffles a copy of items and returns at most n of them
func take[T any](rng *rand.Rand, items []T, n int) []T {
	out := make([]T, len(items))
	copy(out, items)
	shuffle(rng, out)
	if n < len(out) {
		out = out[:max(n, 0)]
	}
	return out
}
