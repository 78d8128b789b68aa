package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraia/internal/models"
)

type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (r *recordingSearcher) Search(ctx context.Context, p models.SearchParams) ([]models.LemmaSummary, error) {
	r.mu.Lock()
	r.queries = append(r.queries, p.Query)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return []models.LemmaSummary{{ID: 1, Headword: p.Query}}, nil
}

func (r *recordingSearcher) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

type resultLog struct {
	mu      sync.Mutex
	results []SearchResult
}

func (l *resultLog) publish(r SearchResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

func (l *resultLog) all() []SearchResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SearchResult(nil), l.results...)
}

func TestSearcherPublishesOnlyLastOfBurst(t *testing.T) {
	store := &recordingSearcher{}
	var log resultLog
	s := NewSearcher(store, 50*time.Millisecond, log.publish)

	for _, q := range []string{"λ", "λό", "λόγ"} {
		s.Submit(context.Background(), models.SearchParams{Query: q})
	}
	s.Wait()

	assert.Equal(t, []string{"λόγ"}, store.seen(), "superseded searches never reach the store")
	results := log.all()
	require.Len(t, results, 1)
	assert.Equal(t, "λόγ", results[0].Params.Query)
	assert.NoError(t, results[0].Err)
	require.Len(t, results[0].Lemmas, 1)
}

func TestSearcherCancel(t *testing.T) {
	store := &recordingSearcher{}
	var log resultLog
	s := NewSearcher(store, 50*time.Millisecond, log.publish)

	s.Submit(context.Background(), models.SearchParams{Query: "λ"})
	s.Cancel()
	s.Wait()

	assert.Empty(t, store.seen())
	assert.Empty(t, log.all())
}

func TestSearcherPublishesErrors(t *testing.T) {
	boom := errors.New("dataset missing")
	var log resultLog
	s := NewSearcher(&recordingSearcher{err: boom}, 0, log.publish)

	s.Submit(context.Background(), models.SearchParams{Query: "λ"})
	s.Wait()

	results := log.all()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.Empty(t, results[0].Lemmas)
}

func TestSearcherRespectsCallerContext(t *testing.T) {
	store := &recordingSearcher{}
	var log resultLog
	s := NewSearcher(store, 50*time.Millisecond, log.publish)

	ctx, cancel := context.WithCancel(context.Background())
	s.Submit(ctx, models.SearchParams{Query: "λ"})
	cancel()
	s.Wait()

	assert.Empty(t, store.seen())
	assert.Empty(t, log.all())
}
