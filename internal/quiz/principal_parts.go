package quiz

import (
	"sort"
	"strings"

	"oraia/internal/models"
	"oraia/internal/morphology"
)

// PartsSeparator joins principal parts into a single answer string
const PartsSeparator = ", "

type partSlot struct {
	tense  string
	voices []string
}

// principal part slots in answer order
var partSlots = [6]partSlot{
	{tense: "present", voices: []string{"active"}},
	{tense: "future", voices: []string{"active"}},
	{tense: "aorist", voices: []string{"active"}},
	{tense: "perfect", voices: []string{"active"}},
	{tense: "perfect", voices: []string{"middle", "passive", "middle-passive"}},
	{tense: "aorist", voices: []string{"passive", "middle-passive"}},
}

func (s partSlot) matches(f models.VerbForm) bool {
	if morphology.Classify(morphology.Tense, f.Tense).Key != s.tense ||
		morphology.EffectiveMood(f).Key != "indicative" ||
		morphology.Classify(morphology.Person, f.Person).Key != "first" ||
		morphology.Classify(morphology.Number, f.Number).Key != "singular" {
		return false
	}
	voice := morphology.Classify(morphology.Voice, f.Voice).Key
	for _, v := range s.voices {
		if v == voice {
			return true
		}
	}
	return false
}

// InferPrincipalParts picks the lowest-id form for each of the six slots
// from the forms of one lemma. It reports false when any slot is empty.
func InferPrincipalParts(forms []models.VerbForm) ([]models.VerbForm, bool) {
	var found [6]*models.VerbForm
	for i := range forms {
		f := &forms[i]
		for slot, s := range partSlots {
			if !s.matches(*f) {
				continue
			}
			if found[slot] == nil || f.ID < found[slot].ID {
				found[slot] = f
			}
		}
	}

	parts := make([]models.VerbForm, 0, len(found))
	for _, f := range found {
		if f == nil {
			return nil, false
		}
		parts = append(parts, *f)
	}
	return parts, true
}

type lemmaParts struct {
	lemmaID  int64
	headword string
	parts    []models.VerbForm
}

func qualifyingLemmas(forms []models.VerbForm) []lemmaParts {
	var out []lemmaParts
	for _, group := range byLemma(forms) {
		parts, ok := InferPrincipalParts(group)
		if !ok {
			continue
		}
		out = append(out, lemmaParts{lemmaID: group[0].LemmaID, headword: group[0].Headword, parts: parts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].lemmaID < out[j].lemmaID })
	return out
}

// principalParts asks for every qualifying lemma, in random order
func (g *Generator) principalParts(forms []models.VerbForm) []models.QuizQuestion {
	lemmas := qualifyingLemmas(forms)
	shuffle(g.rng, lemmas)

	questions := make([]models.QuizQuestion, 0, len(lemmas))
	for _, l := range lemmas {
		expected := make([]string, len(l.parts))
		for i, p := range l.parts {
			expected[i] = strings.TrimSpace(p.Form)
		}
		questions = append(questions, models.QuizQuestion{
			ID:            g.newID(),
			Kind:          models.QuizPrincipalParts,
			LemmaID:       l.lemmaID,
			Prompt:        l.headword,
			Answer:        strings.Join(expected, PartsSeparator),
			ExpectedParts: expected,
		})
	}
	return questions
}
