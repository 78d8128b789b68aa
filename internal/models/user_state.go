package models

import "time"

// UserLemmaState is a user override of a lemma's favorite flag and status.
// A nil field defers to the value stored in the dataset.
type UserLemmaState struct {
	LemmaID    int64
	IsFavorite *bool
	Status     *LearningStatus
	UpdatedAt  time.Time
}

// VocabularyList is a user-curated collection of lemmas, keyed by title
type VocabularyList struct {
	Title       string
	Description string
	EntryCount  int
}

// VocabularyListEntry records membership of a lemma in a list
type VocabularyListEntry struct {
	ListTitle string
	LemmaID   int64
	CreatedAt time.Time
}
