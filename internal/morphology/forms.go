package morphology

import (
	"sort"
	"strings"

	"oraia/internal/models"
)

const descriptorSeparator = " • "

// Descriptor renders the tense, mood, voice, person and number of a verb
// form, omitting unset fields.
func Descriptor(f models.VerbForm) string {
	buckets := []Bucket{
		Classify(Tense, f.Tense),
		EffectiveMood(f),
		Classify(Voice, f.Voice),
		Classify(Person, f.Person),
		Classify(Number, f.Number),
	}
	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if b.Unspecified() {
			continue
		}
		labels = append(labels, b.Label)
	}
	if len(labels) == 0 {
		return unspecifiedLabel
	}
	return strings.Join(labels, descriptorSeparator)
}

// Passes reports whether every category of f is admitted by filter
func Passes(filter models.VerbFilter, f models.VerbForm) bool {
	return admits(filter.Tense, Classify(Tense, f.Tense)) &&
		admits(filter.Mood, EffectiveMood(f)) &&
		admits(filter.Voice, Classify(Voice, f.Voice)) &&
		admits(filter.Person, Classify(Person, f.Person)) &&
		admits(filter.Number, Classify(Number, f.Number))
}

func admits(cf models.CategoryFilter, b Bucket) bool {
	if !b.Canonical {
		return cf.IncludeOther
	}
	if cf.Values == nil {
		return true
	}
	for _, v := range cf.Values {
		if Classify(b.Category, v).Key == b.Key {
			return true
		}
	}
	return false
}

// SameParadigm reports whether two verb forms share tense, voice and
// effective mood, compared case-insensitively.
func SameParadigm(a, b models.VerbForm) bool {
	return strings.EqualFold(strings.TrimSpace(a.Tense), strings.TrimSpace(b.Tense)) &&
		strings.EqualFold(strings.TrimSpace(a.Voice), strings.TrimSpace(b.Voice)) &&
		strings.EqualFold(rawEffectiveMood(a), rawEffectiveMood(b))
}

func rawEffectiveMood(f models.VerbForm) string {
	if m := strings.TrimSpace(f.Mood); m != "" {
		return m
	}
	return strings.TrimSpace(f.VerbFormType)
}

// Signature identifies a verb form by lemma, text and classified categories
type Signature struct {
	LemmaID int64
	Form    string
	Tense   string
	Mood    string
	Voice   string
	Person  string
	Number  string
}

// SignatureOf builds the deduplication key of f
func SignatureOf(f models.VerbForm) Signature {
	return Signature{
		LemmaID: f.LemmaID,
		Form:    strings.TrimSpace(f.Form),
		Tense:   Classify(Tense, f.Tense).Key,
		Mood:    EffectiveMood(f).Key,
		Voice:   Classify(Voice, f.Voice).Key,
		Person:  Classify(Person, f.Person).Key,
		Number:  Classify(Number, f.Number).Key,
	}
}

// Group is a run of items sharing one bucket
type Group[T any] struct {
	Bucket Bucket
	Items  []T
}

// GroupBy groups items by the bucket returned from classify, in bucket
// display order. Items keep their relative order within a group.
func GroupBy[T any](items []T, classify func(T) Bucket) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]
	for _, item := range items {
		b := classify(item)
		i, ok := index[b.Key]
		if !ok {
			i = len(groups)
			index[b.Key] = i
			groups = append(groups, Group[T]{Bucket: b})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Bucket.Order != groups[j].Bucket.Order {
			return groups[i].Bucket.Order < groups[j].Bucket.Order
		}
		return groups[i].Bucket.Key < groups[j].Bucket.Key
	})
	return groups
}

// VerbBucket classifies one category of a verb form. Mood uses the
// effective mood.
func VerbBucket(f models.VerbForm, c Category) Bucket {
	switch c {
	case Person:
		return Classify(c, f.Person)
	case Number:
		return Classify(c, f.Number)
	case Tense:
		return Classify(c, f.Tense)
	case Mood:
		return EffectiveMood(f)
	case Voice:
		return Classify(c, f.Voice)
	case Dialect:
		return Classify(c, dialectOrDefault(f.Dialect))
	}
	return unspecified(c)
}

// NounBucket classifies one category of a noun form
func NounBucket(f models.NounForm, c Category) Bucket {
	switch c {
	case Number:
		return Classify(c, f.Number)
	case Case:
		return Classify(c, f.Case)
	case Gender:
		return Classify(c, f.Gender)
	case Dialect:
		return Classify(c, dialectOrDefault(f.Dialect))
	}
	return unspecified(c)
}

func dialectOrDefault(d string) string {
	if strings.TrimSpace(d) == "" {
		return models.DefaultDialect
	}
	return d
}

// GroupVerbForms groups verb forms by category c in bucket order
func GroupVerbForms(forms []models.VerbForm, c Category) []Group[models.VerbForm] {
	return GroupBy(forms, func(f models.VerbForm) Bucket { return VerbBucket(f, c) })
}

// GroupNounForms groups noun forms by category c in bucket order
func GroupNounForms(forms []models.NounForm, c Category) []Group[models.NounForm] {
	return GroupBy(forms, func(f models.NounForm) Bucket { return NounBucket(f, c) })
}
