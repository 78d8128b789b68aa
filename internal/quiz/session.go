package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"oraia/internal/models"
)

// Session errors
var (
	ErrNoQuestions        = errors.New("quiz has no questions")
	ErrInvalidTransition  = errors.New("invalid quiz state transition")
	ErrNotComplete        = errors.New("quiz is not complete")
	ErrNoCurrentQuestion  = errors.New("no current question")
	ErrAnswerTypeMismatch = errors.New("answer does not match the quiz answer type")
)

// State is the lifecycle stage of a session
type State int

const (
	StateSetup State = iota
	StateLoading
	StateInProgress
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in-progress"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is one run of a quiz. Questions are held in order and
// responses are keyed by question id, one per question.
type Session struct {
	mu sync.Mutex

	id        string
	config    models.QuizConfig
	state     State
	err       error
	questions []models.QuizQuestion
	index     int
	responses map[string]models.QuizResponse
	feedback  bool

	loaded chan struct{}
}

// NewSession creates a session in Setup
func NewSession(cfg models.QuizConfig) *Session {
	return &Session{
		id:        uuid.NewString(),
		config:    cfg,
		state:     StateSetup,
		responses: make(map[string]models.QuizResponse),
		loaded:    make(chan struct{}),
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Config returns the configuration the session was created with
func (s *Session) Config() models.QuizConfig { return s.config }

// State returns the current lifecycle stage
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the load failure of a Failed session
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// BeginLoading moves Setup to Loading
func (s *Session) BeginLoading() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSetup {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.state, StateLoading)
	}
	s.state = StateLoading
	return nil
}

// Loaded installs the generated questions and starts the quiz. An empty
// question set fails the session with ErrNoQuestions.
func (s *Session) Loaded(questions []models.QuizQuestion) error {
	if len(questions) == 0 {
		return s.Fail(ErrNoQuestions)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.state, StateInProgress)
	}
	s.questions = questions
	s.index = 0
	s.state = StateInProgress
	close(s.loaded)
	return nil
}

// Fail ends loading with err. The session never advances afterwards.
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.state, StateFailed)
	}
	s.state = StateFailed
	s.err = err
	close(s.loaded)
	return nil
}

// Wait blocks until loading finishes and returns the load error, if any
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.loaded:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of questions
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// Index returns the zero-based position of the current question
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the question being answered
func (s *Session) Current() (models.QuizQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *Session) current() (models.QuizQuestion, error) {
	if s.state != StateInProgress || s.index >= len(s.questions) {
		return models.QuizQuestion{}, ErrNoCurrentQuestion
	}
	return s.questions[s.index], nil
}

// FeedbackShown reports whether the current question has been answered
// and is waiting for Advance
func (s *Session) FeedbackShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// SubmitText answers the current question by typed text or a chosen option
func (s *Session) SubmitText(answer string) (models.QuizResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.AnswerType == models.AnswerFlashCard || s.config.Kind == models.QuizPrincipalParts {
		return models.QuizResponse{}, ErrAnswerTypeMismatch
	}
	q, err := s.current()
	if err != nil {
		return models.QuizResponse{}, err
	}
	return s.record(models.QuizResponse{QuestionID: q.ID, Answer: answer, Correct: CheckText(q, answer)}), nil
}

// SubmitParts answers a principal parts question
func (s *Session) SubmitParts(parts []string) (models.QuizResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.AnswerType == models.AnswerFlashCard || s.config.Kind != models.QuizPrincipalParts {
		return models.QuizResponse{}, ErrAnswerTypeMismatch
	}
	q, err := s.current()
	if err != nil {
		return models.QuizResponse{}, err
	}
	resp := models.QuizResponse{
		QuestionID: q.ID,
		Answer:     strings.Join(parts, PartsSeparator),
		Parts:      append([]string(nil), parts...),
		Correct:    CheckParts(q, parts),
	}
	return s.record(resp), nil
}

// SubmitSelfReport records a flash card answer as known or unknown
func (s *Session) SubmitSelfReport(known bool) (models.QuizResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.AnswerType != models.AnswerFlashCard {
		return models.QuizResponse{}, ErrAnswerTypeMismatch
	}
	q, err := s.current()
	if err != nil {
		return models.QuizResponse{}, err
	}
	return s.record(models.QuizResponse{QuestionID: q.ID, Correct: known}), nil
}

// record replaces any earlier response to the same question
func (s *Session) record(resp models.QuizResponse) models.QuizResponse {
	s.responses[resp.QuestionID] = resp
	s.feedback = true
	return resp
}

// Advance moves to the next question. Advancing past the last question
// completes the session.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, s.state)
	}
	s.feedback = false
	s.index++
	if s.index >= len(s.questions) {
		s.state = StateComplete
	}
	return nil
}

// Response returns the recorded response to a question
func (s *Session) Response(questionID string) (models.QuizResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[questionID]
	return r, ok
}

// ResponseCount returns how many questions have a recorded response
func (s *Session) ResponseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

// ReportItem pairs a question with its response, if any
type ReportItem struct {
	Question models.QuizQuestion
	Response *models.QuizResponse
}

// Report summarises a completed session
type Report struct {
	Items   []ReportItem
	Correct int
	Total   int
}

// Report returns every question with its response. It is only available
// once the session is Complete.
func (s *Session) Report() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete {
		return Report{}, ErrNotComplete
	}
	rep := Report{Total: len(s.questions), Items: make([]ReportItem, 0, len(s.questions))}
	for _, q := range s.questions {
		item := ReportItem{Question: q}
		if r, ok := s.responses[q.ID]; ok {
			item.Response = &r
			if r.Correct {
				rep.Correct++
			}
		}
		rep.Items = append(rep.Items, item)
	}
	return rep, nil
}
