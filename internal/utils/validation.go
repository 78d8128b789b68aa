package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"oraia/internal/models"
)

// MaxListTitleLength is the longest accepted vocabulary list title, in runes
const MaxListTitleLength = 200

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateListTitle trims a list title and checks it is usable as a key
func ValidateListTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxListTitleLength {
		return "", ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", MaxListTitleLength)}
	}
	return title, nil
}

// ValidateQuizConfig checks a quiz request before any data is loaded
func ValidateQuizConfig(cfg models.QuizConfig) error {
	if cfg.Source.IsEmpty() {
		return ValidationError{Field: "source", Message: "select at least one list, favorites or a learning status"}
	}
	for _, s := range cfg.Source.Statuses {
		if !s.Valid() {
			return ValidationError{Field: "source", Message: fmt.Sprintf("unknown learning status %d", int(s))}
		}
	}
	if cfg.Kind != models.QuizPrincipalParts && cfg.QuestionCount <= 0 {
		return ValidationError{Field: "question_count", Message: "question count must be positive"}
	}
	if cfg.Kind == models.QuizPrincipalParts && cfg.AnswerType == models.AnswerMultipleChoice {
		return ValidationError{Field: "answer_type", Message: "principal parts cannot be answered by multiple choice"}
	}
	return nil
}
