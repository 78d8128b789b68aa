// Package morphology maps the free-text grammatical values stored on forms
// onto canonical buckets used for grouping, filtering and quiz generation.
package morphology

import (
	"strings"

	"oraia/internal/models"
	"oraia/internal/textnorm"
)

// Category is a grammatical dimension of a form
type Category int

const (
	Person Category = iota
	Number
	Tense
	Mood
	Voice
	Case
	Gender
	Dialect
)

func (c Category) String() string {
	switch c {
	case Person:
		return "person"
	case Number:
		return "number"
	case Tense:
		return "tense"
	case Mood:
		return "mood"
	case Voice:
		return "voice"
	case Case:
		return "case"
	case Gender:
		return "gender"
	case Dialect:
		return "dialect"
	}
	return "unknown"
}

// Bucket is the classification of one value. Key is empty for the
// unspecified bucket.
type Bucket struct {
	Category  Category
	Key       string
	Label     string
	Order     int
	Canonical bool
}

// Unspecified reports whether the value had no usable classification
func (b Bucket) Unspecified() bool {
	return b.Key == ""
}

const unspecifiedLabel = "Unspecified"

// canonical keys in display order
var order = map[Category][]string{
	Person:  {"first", "second", "third"},
	Number:  {"singular", "dual", "plural"},
	Tense:   {"present", "imperfect", "future", "aorist", "perfect", "pluperfect", "future-perfect"},
	Mood:    {"indicative", "subjunctive", "optative", "imperative", "infinitive", "participle", "gerundive", "supine"},
	Voice:   {"active", "middle", "passive", "middle-passive"},
	Case:    {"nominative", "genitive", "dative", "accusative", "vocative"},
	Gender:  {"masculine", "feminine", "neuter"},
	Dialect: {"attic", "doric", "ionic", "aeolic", "epic", "koine", "byzantine"},
}

var tenseSynonyms = map[string]string{
	"present":        "present",
	"pres":           "present",
	"pr":             "present",
	"imperfect":      "imperfect",
	"impf":           "imperfect",
	"imperf":         "imperfect",
	"imp":            "imperfect",
	"future":         "future",
	"fut":            "future",
	"aorist":         "aorist",
	"aor":            "aorist",
	"perfect":        "perfect",
	"perf":           "perfect",
	"pf":             "perfect",
	"pluperfect":     "pluperfect",
	"plupf":          "pluperfect",
	"plpf":           "pluperfect",
	"plup":           "pluperfect",
	"future-perfect": "future-perfect",
	"future perfect": "future-perfect",
	"futureperfect":  "future-perfect",
	"futperf":        "future-perfect",
	"fut perf":       "future-perfect",
	"fpf":            "future-perfect",
}

var moodSynonyms = map[string]string{
	"indicative":  "indicative",
	"ind":         "indicative",
	"indic":       "indicative",
	"subjunctive": "subjunctive",
	"subj":        "subjunctive",
	"optative":    "optative",
	"opt":         "optative",
	"imperative":  "imperative",
	"imper":       "imperative",
	"imperat":     "imperative",
	"impv":        "imperative",
	"infinitive":  "infinitive",
	"inf":         "infinitive",
	"participle":  "participle",
	"part":        "participle",
	"ptcp":        "participle",
	"gerundive":   "gerundive",
	"supine":      "supine",
}

var caseSynonyms = map[string]string{
	"nom": "nominative",
	"gen": "genitive",
	"dat": "dative",
	"acc": "accusative",
	"voc": "vocative",
}

var genderSynonyms = map[string]string{
	"masculine": "masculine",
	"masc":      "masculine",
	"m":         "masculine",
	"feminine":  "feminine",
	"fem":       "feminine",
	"f":         "feminine",
	"neuter":    "neuter",
	"neut":      "neuter",
	"n":         "neuter",
}

var stripper = strings.NewReplacer("person", "", "pers", "", "number", "", "tense", "", ".", "")

// Clean normalises a raw category value: trim, lowercase, drop the words
// person/pers/number/tense and periods, collapse whitespace.
func Clean(raw string) string {
	s := stripper.Replace(strings.ToLower(strings.TrimSpace(raw)))
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -_")
}

// Classify maps raw onto a bucket of category c
func Classify(c Category, raw string) Bucket {
	cleaned := Clean(raw)
	if cleaned == "" {
		return unspecified(c)
	}

	var key string
	switch c {
	case Person:
		key = classifyPerson(cleaned)
	case Number:
		key = classifyNumber(cleaned)
	case Tense:
		key = lookup(tenseSynonyms, cleaned)
	case Mood:
		key = lookup(moodSynonyms, cleaned)
	case Voice:
		key = classifyVoice(cleaned)
	case Case:
		key = classifyPrefix(caseSynonyms, cleaned)
	case Gender:
		key = lookup(genderSynonyms, cleaned)
	case Dialect:
		key = classifyDialect(cleaned)
	}

	if key != "" {
		return canonical(c, key)
	}
	// person and number have a closed set of values
	if c == Person || c == Number {
		return unspecified(c)
	}
	return Bucket{
		Category: c,
		Key:      cleaned,
		Label:    textnorm.Label(cleaned),
		Order:    len(order[c]) + 1,
	}
}

// Buckets lists the canonical buckets of c followed by the unspecified one
func Buckets(c Category) []Bucket {
	keys := order[c]
	out := make([]Bucket, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, canonical(c, k))
	}
	return append(out, unspecified(c))
}

// EffectiveMood classifies the mood of a verb form, falling back to its
// verb form type when no mood is stored.
func EffectiveMood(f models.VerbForm) Bucket {
	if strings.TrimSpace(f.Mood) != "" {
		return Classify(Mood, f.Mood)
	}
	if strings.TrimSpace(f.VerbFormType) != "" {
		return Classify(Mood, f.VerbFormType)
	}
	return unspecified(Mood)
}

func canonical(c Category, key string) Bucket {
	idx := 0
	for i, k := range order[c] {
		if k == key {
			idx = i
			break
		}
	}
	return Bucket{Category: c, Key: key, Label: textnorm.Label(key), Order: idx, Canonical: true}
}

func unspecified(c Category) Bucket {
	return Bucket{Category: c, Label: unspecifiedLabel, Order: len(order[c])}
}

func lookup(table map[string]string, cleaned string) string {
	if key, ok := table[cleaned]; ok {
		return key
	}
	if key, ok := table[strings.ReplaceAll(cleaned, "-", " ")]; ok {
		return key
	}
	return table[strings.ReplaceAll(cleaned, " ", "-")]
}

func classifyPerson(s string) string {
	switch {
	case strings.Contains(s, "first"):
		return "first"
	case strings.Contains(s, "second"):
		return "second"
	case strings.Contains(s, "third"):
		return "third"
	}
	switch s {
	case "1st", "1", "i":
		return "first"
	case "2nd", "2", "ii":
		return "second"
	case "3rd", "3", "iii":
		return "third"
	}
	return ""
}

func classifyNumber(s string) string {
	switch {
	case strings.Contains(s, "sing"):
		return "singular"
	case strings.Contains(s, "dual"):
		return "dual"
	case strings.Contains(s, "plur"):
		return "plural"
	}
	switch s {
	case "sg", "s":
		return "singular"
	case "du", "d":
		return "dual"
	case "pl", "p":
		return "plural"
	}
	return ""
}

func classifyVoice(s string) string {
	switch s {
	case "mp", "m/p", "mediopassive", "medio-passive":
		return "middle-passive"
	}
	hasMid := strings.Contains(s, "mid") || strings.HasPrefix(s, "med")
	hasPass := strings.Contains(s, "pass")
	switch {
	case hasMid && hasPass:
		return "middle-passive"
	case hasPass:
		return "passive"
	case hasMid:
		return "middle"
	case strings.HasPrefix(s, "act"):
		return "active"
	}
	return ""
}

func classifyPrefix(table map[string]string, s string) string {
	if len(s) < 3 {
		return ""
	}
	return table[s[:3]]
}

func classifyDialect(s string) string {
	for _, k := range order[Dialect] {
		if s == k {
			return k
		}
	}
	return ""
}
