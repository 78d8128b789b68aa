package quiz

import (
	"strings"

	"oraia/internal/models"
	"oraia/internal/textnorm"
)

// CheckText compares a typed or chosen answer with the question's answer,
// ignoring case, diacritics and extra whitespace
func CheckText(q models.QuizQuestion, answer string) bool {
	return textnorm.EqualsMorph(strings.TrimSpace(answer), q.Answer)
}

// CheckParts requires every expected principal part, trimmed, in order
func CheckParts(q models.QuizQuestion, parts []string) bool {
	if len(q.ExpectedParts) == 0 || len(parts) != len(q.ExpectedParts) {
		return false
	}
	for i, p := range parts {
		if strings.TrimSpace(p) != q.ExpectedParts[i] {
			return false
		}
	}
	return true
}

// SplitParts splits a comma separated principal parts answer
func SplitParts(answer string) []string {
	fields := strings.Split(answer, ",")
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, strings.TrimSpace(f))
	}
	return parts
}
