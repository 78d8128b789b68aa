package models

import (
	"fmt"
	"strings"
)

// LearningStatus tracks how far a learner has progressed with a lemma
type LearningStatus int

const (
	StatusNew LearningStatus = iota
	StatusInProgress
	StatusCompleted
	StatusRestarted
	StatusIgnored
)

var learningStatusNames = map[LearningStatus]string{
	StatusNew:        "new",
	StatusInProgress: "in-progress",
	StatusCompleted:  "completed",
	StatusRestarted:  "restarted",
	StatusIgnored:    "ignored",
}

func (s LearningStatus) String() string {
	if name, ok := learningStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Valid reports whether s is one of the known statuses
func (s LearningStatus) Valid() bool {
	_, ok := learningStatusNames[s]
	return ok
}

// ParseLearningStatus accepts the names produced by String
func ParseLearningStatus(value string) (LearningStatus, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "_", "-")
	if v == "inprogress" {
		v = "in-progress"
	}
	for status, name := range learningStatusNames {
		if name == v {
			return status, nil
		}
	}
	return StatusNew, fmt.Errorf("unknown learning status %q", value)
}

// LemmaState is the favorite flag and learning status attached to a lemma
type LemmaState struct {
	IsFavorite bool
	Status     LearningStatus
}

// LemmaSummary is one row of a search or list result
type LemmaSummary struct {
	ID         int64
	Headword   string
	PrimaryPOS string
	LemmaState
}

// Sense is a gloss/definition pair of a lemma
type Sense struct {
	ID         int64
	POSCode    string
	Gloss      string
	Definition string
	Order      int
}

// SenseGroup holds the senses of one part of speech
type SenseGroup struct {
	POSCode string
	Senses  []Sense
}

// LemmaDetail is the full view of a single lemma
type LemmaDetail struct {
	ID          int64
	Headword    string
	Notes       string
	POSCodes    []string // primary first, then alphabetical
	SenseGroups []SenseGroup
	LemmaState
}

// PrimaryPOS returns the first POS code or an empty string
func (d *LemmaDetail) PrimaryPOS() string {
	if len(d.POSCodes) == 0 {
		return ""
	}
	return d.POSCodes[0]
}

// SearchMode selects how the query text matches a headword
type SearchMode int

const (
	SearchStartsWith SearchMode = iota
	SearchContains
)

func (m SearchMode) String() string {
	if m == SearchContains {
		return "contains"
	}
	return "startsWith"
}

// SearchParams describes a lemma search. Every set filter must hold.
type SearchParams struct {
	Query         string
	Mode          SearchMode
	FavoritesOnly bool
	Status        *LearningStatus
	ListTitle     string
	Limit         int
}

// HasFilters reports whether any non-text filter is active
func (p SearchParams) HasFilters() bool {
	return p.FavoritesOnly || p.Status != nil || strings.TrimSpace(p.ListTitle) != ""
}
