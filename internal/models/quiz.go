package models

import (
	"fmt"
	"strings"
)

// QuizKind selects the question generator
type QuizKind int

const (
	QuizVocabulary QuizKind = iota
	QuizConjugation
	QuizTransform
	QuizPrincipalParts
)

var quizKindNames = []string{"vocabulary", "conjugation", "transform", "principal-parts"}

func (k QuizKind) String() string {
	if int(k) >= 0 && int(k) < len(quizKindNames) {
		return quizKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseQuizKind accepts the names produced by String
func ParseQuizKind(value string) (QuizKind, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for i, name := range quizKindNames {
		if name == v {
			return QuizKind(i), nil
		}
	}
	return QuizVocabulary, fmt.Errorf("unknown quiz kind %q", value)
}

// IsVerb reports whether the kind draws from verb forms
func (k QuizKind) IsVerb() bool {
	return k != QuizVocabulary
}

// Direction maps prompt and answer in vocabulary quizzes
type Direction int

const (
	HeadwordToGloss Direction = iota
	GlossToHeadword
)

// AnswerType controls how a question is answered
type AnswerType int

const (
	AnswerText AnswerType = iota
	AnswerMultipleChoice
	AnswerFlashCard
)

func (a AnswerType) String() string {
	switch a {
	case AnswerMultipleChoice:
		return "multiple-choice"
	case AnswerFlashCard:
		return "flash-card"
	default:
		return "text"
	}
}

// ParseAnswerType accepts the names produced by String
func ParseAnswerType(value string) (AnswerType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "text", "":
		return AnswerText, nil
	case "multiple-choice", "mc", "choice":
		return AnswerMultipleChoice, nil
	case "flash-card", "flashcard", "card":
		return AnswerFlashCard, nil
	}
	return AnswerText, fmt.Errorf("unknown answer type %q", value)
}

// QuizSource selects candidate lemmas. Selections are unioned.
type QuizSource struct {
	ListTitles       []string
	IncludeFavorites bool
	Statuses         []LearningStatus
}

// IsEmpty reports whether nothing is selected
func (s QuizSource) IsEmpty() bool {
	return len(s.ListTitles) == 0 && !s.IncludeFavorites && len(s.Statuses) == 0
}

// CategoryFilter restricts one grammatical category of a verb form.
// A nil Values slice allows every canonical bucket; IncludeOther admits
// empty or unrecognised values.
type CategoryFilter struct {
	Values       []string
	IncludeOther bool
}

// VerbFilter holds one CategoryFilter per verb category
type VerbFilter struct {
	Tense  CategoryFilter
	Mood   CategoryFilter
	Voice  CategoryFilter
	Person CategoryFilter
	Number CategoryFilter
}

// AllowAllVerbs is a VerbFilter that admits every form
func AllowAllVerbs() VerbFilter {
	all := CategoryFilter{IncludeOther: true}
	return VerbFilter{Tense: all, Mood: all, Voice: all, Person: all, Number: all}
}

// VocabularyCandidate is a lemma with the gloss used by vocabulary quizzes
type VocabularyCandidate struct {
	LemmaID  int64
	Headword string
	Gloss    string
}

// QuizConfig describes a quiz request
type QuizConfig struct {
	Kind          QuizKind
	Source        QuizSource
	QuestionCount int
	Direction     Direction
	AnswerType    AnswerType
	VerbFilter    VerbFilter
}

// QuizQuestion is a generated question
type QuizQuestion struct {
	ID            string
	Kind          QuizKind
	LemmaID       int64
	Prompt        string
	Answer        string
	Options       []string // only for multiple choice
	ExpectedParts []string // principal parts, in order
}

// QuizResponse is the recorded answer to one question
type QuizResponse struct {
	QuestionID string
	Answer     string
	Parts      []string
	Correct    bool
}
