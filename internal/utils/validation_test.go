package utils

import (
	"errors"
	"strings"
	"testing"

	"oraia/internal/models"
)

func TestValidateListTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		want    string
		wantErr bool
	}{
		{name: "plain", title: "Iliad 1", want: "Iliad 1"},
		{name: "trimmed", title: "  Odyssey  ", want: "Odyssey"},
		{name: "greek", title: "λόγοι", want: "λόγοι"},
		{name: "empty", title: "", wantErr: true},
		{name: "whitespace", title: " \t ", wantErr: true},
		{name: "at limit", title: strings.Repeat("α", MaxListTitleLength), want: strings.Repeat("α", MaxListTitleLength)},
		{name: "too long", title: strings.Repeat("a", MaxListTitleLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateListTitle(tt.title)
			if tt.wantErr {
				var verr ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("ValidateListTitle(%q) error = %v, want ValidationError", tt.title, err)
				}
				if verr.Field != "title" {
					t.Errorf("Field = %q, want title", verr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateListTitle(%q) unexpected error: %v", tt.title, err)
			}
			if got != tt.want {
				t.Errorf("ValidateListTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestValidateQuizConfig(t *testing.T) {
	favorites := models.QuizSource{IncludeFavorites: true}

	tests := []struct {
		name      string
		cfg       models.QuizConfig
		wantField string
	}{
		{
			name: "valid vocabulary",
			cfg:  models.QuizConfig{Kind: models.QuizVocabulary, Source: favorites, QuestionCount: 10},
		},
		{
			name:      "empty source",
			cfg:       models.QuizConfig{Kind: models.QuizVocabulary, QuestionCount: 10},
			wantField: "source",
		},
		{
			name:      "unknown status",
			cfg:       models.QuizConfig{Source: models.QuizSource{Statuses: []models.LearningStatus{42}}, QuestionCount: 1},
			wantField: "source",
		},
		{
			name:      "zero count",
			cfg:       models.QuizConfig{Kind: models.QuizConjugation, Source: favorites},
			wantField: "question_count",
		},
		{
			name: "principal parts ignore count",
			cfg:  models.QuizConfig{Kind: models.QuizPrincipalParts, Source: favorites},
		},
		{
			name:      "principal parts multiple choice",
			cfg:       models.QuizConfig{Kind: models.QuizPrincipalParts, Source: favorites, AnswerType: models.AnswerMultipleChoice},
			wantField: "answer_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuizConfig(tt.cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
