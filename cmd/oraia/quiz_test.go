package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraia/internal/models"
)

func TestParseQuizConfigDefaults(t *testing.T) {
	cfg, err := parseQuizConfig("quiz", []string{"-favorites"})
	require.NoError(t, err)

	assert.Equal(t, models.QuizVocabulary, cfg.Kind)
	assert.Equal(t, defaultQuestionCount, cfg.QuestionCount)
	assert.Equal(t, models.AnswerText, cfg.AnswerType)
	assert.True(t, cfg.Source.IncludeFavorites)
	assert.Equal(t, models.AllowAllVerbs(), cfg.VerbFilter)
}

func TestParseQuizConfigVerbFilter(t *testing.T) {
	cfg, err := parseQuizConfig("quiz", []string{
		"-kind", "conjugation", "-lists", "Iliad 1, Odyssey", "-statuses", "new,in-progress",
		"-tense", "present,aorist", "-no-other", "-answer", "mc",
	})
	require.NoError(t, err)

	assert.Equal(t, models.QuizConjugation, cfg.Kind)
	assert.Equal(t, models.AnswerMultipleChoice, cfg.AnswerType)
	assert.Equal(t, []string{"Iliad 1", "Odyssey"}, cfg.Source.ListTitles)
	assert.Equal(t, []models.LearningStatus{models.StatusNew, models.StatusInProgress}, cfg.Source.Statuses)
	assert.Equal(t, []string{"present", "aorist"}, cfg.VerbFilter.Tense.Values)
	assert.False(t, cfg.VerbFilter.Tense.IncludeOther)
	assert.Nil(t, cfg.VerbFilter.Mood.Values)
}

func TestParseQuizConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-kind", "declension"},
		{"-answer", "essay"},
		{"-statuses", "mastered"},
	} {
		_, err := parseQuizConfig("quiz", args)
		assert.Error(t, err, "args %v", args)
	}
}
