package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"oraia/internal/models"
	"oraia/internal/quiz"
)

const defaultQuestionCount = 10

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseQuizConfig reads the quiz and count flags
func parseQuizConfig(name string, args []string) (models.QuizConfig, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	kind := fs.String("kind", "vocabulary", "vocabulary, conjugation, transform or principal-parts")
	lists := fs.String("lists", "", "comma separated list titles")
	favorites := fs.Bool("favorites", false, "include favorites")
	statuses := fs.String("statuses", "", "comma separated learning statuses")
	count := fs.Int("count", defaultQuestionCount, "number of questions")
	reverse := fs.Bool("reverse", false, "ask for the headword given the gloss")
	answer := fs.String("answer", "text", "text, multiple-choice or flash-card")
	noOther := fs.Bool("no-other", false, "exclude forms with unclassified categories")
	tense := fs.String("tense", "", "allowed tenses")
	mood := fs.String("mood", "", "allowed moods")
	voice := fs.String("voice", "", "allowed voices")
	person := fs.String("person", "", "allowed persons")
	number := fs.String("number", "", "allowed numbers")

	var cfg models.QuizConfig
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.Kind, err = models.ParseQuizKind(*kind); err != nil {
		return cfg, err
	}
	if cfg.AnswerType, err = models.ParseAnswerType(*answer); err != nil {
		return cfg, err
	}
	cfg.QuestionCount = *count
	if *reverse {
		cfg.Direction = models.GlossToHeadword
	}

	cfg.Source.ListTitles = splitList(*lists)
	cfg.Source.IncludeFavorites = *favorites
	for _, s := range splitList(*statuses) {
		status, err := models.ParseLearningStatus(s)
		if err != nil {
			return cfg, err
		}
		cfg.Source.Statuses = append(cfg.Source.Statuses, status)
	}

	category := func(values string) models.CategoryFilter {
		return models.CategoryFilter{Values: splitList(values), IncludeOther: !*noOther}
	}
	cfg.VerbFilter = models.VerbFilter{
		Tense:  category(*tense),
		Mood:   category(*mood),
		Voice:  category(*voice),
		Person: category(*person),
		Number: category(*number),
	}
	return cfg, nil
}

func (a *app) count(ctx context.Context, args []string) error {
	cfg, err := parseQuizConfig("count", args)
	if err != nil {
		return err
	}
	n, err := a.quiz.AvailableCount(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d question(s) available\n", n)
	return nil
}

func (a *app) runQuiz(ctx context.Context, args []string) error {
	cfg, err := parseQuizConfig("quiz", args)
	if err != nil {
		return err
	}
	session, err := a.quiz.Start(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Loading quiz...")
	if err := session.Wait(ctx); err != nil {
		return err
	}

	in := bufio.NewScanner(a.in)
	for session.State() == quiz.StateInProgress {
		q, err := session.Current()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "\n[%d/%d] %s\n", session.Index()+1, session.Len(), q.Prompt)

		resp, err := a.ask(in, cfg, q, session)
		if err != nil {
			return err
		}
		if resp.Correct {
			fmt.Fprintln(a.out, "Correct!")
		} else {
			fmt.Fprintf(a.out, "Incorrect. Answer: %s\n", q.Answer)
		}
		if err := session.Advance(); err != nil {
			return err
		}
	}

	report, err := session.Report()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nScore: %d/%d\n", report.Correct, report.Total)
	for _, item := range report.Items {
		if item.Response == nil || !item.Response.Correct {
			fmt.Fprintf(a.out, "  missed: %s -> %s\n", item.Question.Prompt, item.Question.Answer)
		}
	}
	return nil
}

func readLine(in *bufio.Scanner) (string, error) {
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("quiz abandoned")
	}
	return in.Text(), nil
}

func (a *app) ask(in *bufio.Scanner, cfg models.QuizConfig, q models.QuizQuestion, session *quiz.Session) (models.QuizResponse, error) {
	switch {
	case cfg.AnswerType == models.AnswerFlashCard:
		fmt.Fprint(a.out, "Press Enter to reveal...")
		if _, err := readLine(in); err != nil {
			return models.QuizResponse{}, err
		}
		fmt.Fprintf(a.out, "%s\nDid you know it? [y/n] ", q.Answer)
		line, err := readLine(in)
		if err != nil {
			return models.QuizResponse{}, err
		}
		return session.SubmitSelfReport(strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y"))

	case cfg.Kind == models.QuizPrincipalParts:
		fmt.Fprint(a.out, "Principal parts, comma separated: ")
		line, err := readLine(in)
		if err != nil {
			return models.QuizResponse{}, err
		}
		return session.SubmitParts(quiz.SplitParts(line))

	case cfg.AnswerType == models.AnswerMultipleChoice:
		for i, opt := range q.Options {
			fmt.Fprintf(a.out, "  %d) %s\n", i+1, opt)
		}
		fmt.Fprint(a.out, "> ")
		line, err := readLine(in)
		if err != nil {
			return models.QuizResponse{}, err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= len(q.Options) {
			line = q.Options[n-1]
		}
		return session.SubmitText(line)
	}

	fmt.Fprint(a.out, "> ")
	line, err := readLine(in)
	if err != nil {
		return models.QuizResponse{}, err
	}
	return session.SubmitText(line)
}
