package service

import (
	"context"
	"sync"
	"time"

	"oraia/internal/models"
)

// LemmaSearcher runs one search against the store
type LemmaSearcher interface {
	Search(ctx context.Context, p models.SearchParams) ([]models.LemmaSummary, error)
}

// SearchResult is what a Searcher publishes for a completed search. On
// failure Lemmas is empty and Err is set.
type SearchResult struct {
	Params models.SearchParams
	Lemmas []models.LemmaSummary
	Err    error
}

// Searcher implements search-as-you-type. Each Submit cancels the search
// before it and waits out the debounce delay, so only the last request of
// a burst reaches the store and only the newest result is published.
type Searcher struct {
	store   LemmaSearcher
	delay   time.Duration
	publish func(SearchResult)

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
	wg         sync.WaitGroup
}

// NewSearcher creates a searcher. publish is called from a background
// goroutine and must not call Submit.
func NewSearcher(store LemmaSearcher, delay time.Duration, publish func(SearchResult)) *Searcher {
	return &Searcher{store: store, delay: delay, publish: publish}
}

// Submit schedules a search for p, superseding any pending one
func (s *Searcher) Submit(ctx context.Context, p models.SearchParams) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, gen, p)
	}()
}

func (s *Searcher) run(ctx context.Context, gen uint64, p models.SearchParams) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	if ctx.Err() != nil {
		return
	}

	lemmas, err := s.store.Search(ctx, p)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		lemmas = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.publish(SearchResult{Params: p, Lemmas: lemmas, Err: err})
}

// Cancel drops any pending or running search without publishing it
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
}

// Wait blocks until every submitted search has finished or been dropped
func (s *Searcher) Wait() {
	s.wg.Wait()
}
