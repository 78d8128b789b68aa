package importer

import (
	"slices"
	"sort"
	"strings"
)

// DefaultPOS is the POS list imported when none is given
const DefaultPOS = "noun,verb,adjective,adverb,pronoun,particle,article,preposition,conjunction,suffix,prefix,intj,det"

var posAliases = map[string]string{
	"adjective":    "adj",
	"adverb":       "adv",
	"pronoun":      "pron",
	"preposition":  "prep",
	"conjunction":  "conj",
	"interjection": "intj",
	"determiner":   "det",
	"number":       "num",
	"proper noun":  "name",
	"postposition": "postp",
}

// NormalizePOS maps a wiktextract POS name onto the stored code
func NormalizePOS(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if code, ok := posAliases[v]; ok {
		return code
	}
	return v
}

// ParsePOSList parses a comma separated POS list, applying aliases
func ParsePOSList(list string) map[string]bool {
	out := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		if code := NormalizePOS(item); code != "" {
			out[code] = true
		}
	}
	return out
}

// SortedPOS returns the codes of set in alphabetical order
func SortedPOS(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// tag tables are checked in order; the first match wins
var (
	dialectTags = []string{"attic", "ionic", "epic", "homeric", "koine", "byzantine", "doric", "aeolic"}
	caseTags    = []string{"nominative", "genitive", "dative", "accusative", "vocative"}
	numberTags  = []string{"singular", "dual", "plural"}
	genderTags  = []string{"masculine", "feminine", "neuter"}
	personTags  = []string{"first-person", "second-person", "third-person"}
	tenseTags   = []string{"present", "imperfect", "future", "aorist", "perfect", "pluperfect", "future-perfect"}
	moodTags    = []string{"indicative", "imperative", "subjunctive", "optative"}
	voiceTags   = []string{"active", "middle", "passive", "middle-passive"}
	degreeTags  = []string{"positive", "comparative", "superlative"}
	verbFormTag = []string{"finite", "infinitive", "participle"}
)

// formTags is the grammatical analysis carried by a form's tags
type formTags struct {
	Dialect      string
	Case         string
	Number       string
	Gender       string
	Person       string
	Tense        string
	Mood         string
	Voice        string
	Degree       string
	VerbFormType string
}

func parseTags(tags []string) formTags {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = true
	}
	pick := func(table []string) string {
		for _, v := range table {
			if set[v] {
				return v
			}
		}
		return ""
	}
	return formTags{
		Dialect:      pick(dialectTags),
		Case:         pick(caseTags),
		Number:       pick(numberTags),
		Gender:       pick(genderTags),
		Person:       pick(personTags),
		Tense:        pick(tenseTags),
		Mood:         pick(moodTags),
		Voice:        pick(voiceTags),
		Degree:       pick(degreeTags),
		VerbFormType: pick(verbFormTag),
	}
}

var droppedFormTags = map[string]bool{
	"romanization":        true,
	"inflection-template": true,
	"table-tags":          true,
	"class":               true,
}

// keepForm reports whether a wiktextract form entry is a real inflected form
func keepForm(f wikiForm) bool {
	if f.Form == "" || f.Form == "-" || len(f.Tags) == 0 {
		return false
	}
	for _, t := range f.Tags {
		if droppedFormTags[strings.ToLower(t)] {
			return false
		}
	}
	return true
}

// formExtra holds lemma-level values copied onto every form of a pronoun
// or preposition entry
type formExtra struct {
	PronounType string
	GovernsCase string
}

var pronounTypeKeywords = []string{
	"personal", "demonstrative", "relative", "interrogative", "indefinite",
	"reflexive", "reciprocal", "possessive", "proximal", "medial", "distal",
}

// pronounType finds the first pronoun class named in the head template
// category arguments or the sense tags
func pronounType(e wikiEntry) string {
	var candidates []string
	for _, head := range e.HeadTemplates {
		for key, value := range head.Args {
			if s, ok := value.(string); ok && strings.HasPrefix(key, "cat") {
				candidates = append(candidates, s)
			}
		}
	}
	for _, sense := range e.Senses {
		candidates = append(candidates, sense.tagList()...)
	}

	joined := strings.ToLower(strings.Join(candidates, " "))
	for _, kw := range pronounTypeKeywords {
		if strings.Contains(joined, kw) {
			return kw
		}
	}
	return ""
}

var governedCases = map[string]string{
	"gen":        "genitive",
	"genitive":   "genitive",
	"dat":        "dative",
	"dative":     "dative",
	"acc":        "accusative",
	"accusative": "accusative",
}

// governsCase lists the cases a preposition takes, in first-seen order,
// joined by "/". Sources are "with-<case>" sense tags and the second head
// template argument.
func governsCase(e wikiEntry) string {
	var cases []string
	add := func(raw string) {
		c, ok := governedCases[strings.ToLower(strings.TrimSpace(raw))]
		if ok && !slices.Contains(cases, c) {
			cases = append(cases, c)
		}
	}

	for _, sense := range e.Senses {
		for _, tag := range sense.tagList() {
			if rest, ok := strings.CutPrefix(strings.ToLower(tag), "with-"); ok {
				add(rest)
			}
		}
	}
	split := strings.NewReplacer(";", "/", ",", "/")
	for _, head := range e.HeadTemplates {
		value, ok := head.Args["2"].(string)
		if !ok {
			continue
		}
		for _, part := range strings.Split(split.Replace(value), "/") {
			add(part)
		}
	}
	return strings.Join(cases, "/")
}
