package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oraia/internal/models"
)

func TestCheckText(t *testing.T) {
	q := models.QuizQuestion{Answer: "λόγος"}

	tests := []struct {
		answer string
		want   bool
	}{
		{"λόγος", true},
		{"Λόγος ", true},
		{"λογος", true},
		{"  ΛΟΓΟΣ", true},
		{"λόγου", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CheckText(q, tt.answer), "answer %q", tt.answer)
	}
}

func TestCheckParts(t *testing.T) {
	q := models.QuizQuestion{ExpectedParts: wantParts}

	assert.True(t, CheckParts(q, wantParts))
	assert.True(t, CheckParts(q, []string{" λύω", "λύσω ", "ἔλυσα", "λέλυκα", "λέλυμαι", "ἐλύθην\t"}), "parts are trimmed")

	swapped := []string{"λύσω", "λύω", "ἔλυσα", "λέλυκα", "λέλυμαι", "ἐλύθην"}
	assert.False(t, CheckParts(q, swapped), "order matters")
	assert.False(t, CheckParts(q, wantParts[:5]), "no partial credit")
	assert.False(t, CheckParts(models.QuizQuestion{}, nil))
}

func TestSplitParts(t *testing.T) {
	assert.Equal(t, []string{"λύω", "λύσω", ""}, SplitParts(" λύω ,λύσω,"))
}
