package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"oraia/internal/models"
	"oraia/internal/quiz"
	"oraia/internal/utils"
)

// QuizStore is the data a quiz draws from
type QuizStore interface {
	// CandidateIDs returns the lemma ids selected by a quiz source
	CandidateIDs(ctx context.Context, src models.QuizSource) ([]int64, error)

	// VocabularyCandidates returns id, headword and first gloss per lemma
	VocabularyCandidates(ctx context.Context, ids []int64) ([]models.VocabularyCandidate, error)

	// VerbFormsFor returns every verb form of the given lemmas
	VerbFormsFor(ctx context.Context, ids []int64) ([]models.VerbForm, error)
}

// QuizService sizes and starts quiz sessions
type QuizService struct {
	store   QuizStore
	logger  *zap.Logger
	newRand func() *rand.Rand

	mu      sync.Mutex
	current *quiz.Session
}

// NewQuizService creates a quiz service seeded from the clock
func NewQuizService(store QuizStore, logger *zap.Logger) *QuizService {
	return &QuizService{
		store:  store,
		logger: logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// loadPool fetches only what cfg.Kind needs
func (s *QuizService) loadPool(ctx context.Context, cfg models.QuizConfig) (quiz.Pool, error) {
	var pool quiz.Pool
	ids, err := s.store.CandidateIDs(ctx, cfg.Source)
	if err != nil || len(ids) == 0 {
		return pool, err
	}
	if cfg.Kind.IsVerb() {
		pool.VerbForms, err = s.store.VerbFormsFor(ctx, ids)
	} else {
		pool.Vocabulary, err = s.store.VocabularyCandidates(ctx, ids)
	}
	return pool, err
}

// AvailableCount previews how many questions cfg would produce. An empty
// source yields zero without touching the store.
func (s *QuizService) AvailableCount(ctx context.Context, cfg models.QuizConfig) (int, error) {
	if cfg.Source.IsEmpty() {
		return 0, nil
	}
	pool, err := s.loadPool(ctx, cfg)
	if err != nil {
		s.logger.Error("failed to count quiz questions", zap.Stringer("kind", cfg.Kind), zap.Error(err))
		return 0, err
	}
	return quiz.AvailableCount(cfg, pool), nil
}

// Start validates cfg and returns a session in Loading. Questions are
// generated in the background; use Session.Wait to block until ready.
// The new session replaces the one returned by Current.
func (s *QuizService) Start(ctx context.Context, cfg models.QuizConfig) (*quiz.Session, error) {
	if err := utils.ValidateQuizConfig(cfg); err != nil {
		return nil, err
	}
	session := quiz.NewSession(cfg)
	if err := session.BeginLoading(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	gen := quiz.NewGenerator(s.newRand())
	go s.load(ctx, session, gen)
	return session, nil
}

func (s *QuizService) load(ctx context.Context, session *quiz.Session, gen *quiz.Generator) {
	cfg := session.Config()
	logger := s.logger.With(zap.String("session", session.ID()), zap.Stringer("kind", cfg.Kind))

	pool, err := s.loadPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to load quiz", zap.Error(err))
		_ = session.Fail(err)
		return
	}
	questions, err := gen.Generate(cfg, pool)
	if err != nil {
		logger.Error("failed to generate quiz", zap.Error(err))
		_ = session.Fail(err)
		return
	}
	if err := session.Loaded(questions); err != nil {
		logger.Error("failed to start quiz", zap.Error(err))
		return
	}
	if len(questions) == 0 {
		logger.Warn("quiz has no questions")
		return
	}
	logger.Info("quiz loaded", zap.Int("questions", len(questions)))
}

// Current returns the most recently started session, or nil
func (s *QuizService) Current() *quiz.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
