package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookworld/internal/logger"
)

type scriptedSearcher struct {
	mu      sync.Mutex
	results map[string]SearchResult
	errs    map[string]error
	calls   []BrowseQuery
}

func (s *scriptedSearcher) Search(_ context.Context, q BrowseQuery) (SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, q)
	subject := q.Genres[0]
	if err := s.errs[subject]; err != nil {
		return SearchResult{}, err
	}
	return s.results[subject], nil
}

func (s *scriptedSearcher) attempts(subject string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.calls {
		if q.Genres[0] == subject {
			n++
		}
	}
	return n
}

func books(keys ...string) []Book {
	out := make([]Book, len(keys))
	for i, k := range keys {
		out[i] = Book{Key: "/works/" + k}
	}
	return out
}

func newTestSampler(s Searcher) (*Sampler, *[]time.Duration) {
	sampler := NewSampler(s, NewMemoryCache(), logger.Discard())
	var slept []time.Duration
	sampler.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return sampler, &slept
}

func TestSampler_ShortCircuitsOnFirstNonEmpty(t *testing.T) {
	s := &scriptedSearcher{results: map[string]SearchResult{
		"a": {},
		"b": {Books: []Book{}},
		"c": {Books: books("C1", "C2", "C3"), Total: 3},
		"d": {Books: books("D1"), Total: 1},
	}}
	sampler, slept := newTestSampler(s)

	got := sampler.Sample(context.Background(), Policy{Name: "t", Candidates: []string{"a", "b", "c", "d"}}, 20)

	assert.Equal(t, books("C1", "C2", "C3"), got)
	assert.Equal(t, 1, s.attempts("a"))
	assert.Equal(t, 1, s.attempts("b"))
	assert.Equal(t, 1, s.attempts("c"))
	assert.Equal(t, 0, s.attempts("d"))
	assert.Empty(t, *slept)

	for _, q := range s.calls {
		assert.Equal(t, SortRelevance, q.Sort)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 20, q.Limit)
		assert.Equal(t, q.Genres[0], q.ProviderParams().Q)
	}
}

func TestSampler_BacksOffAfterErrors(t *testing.T) {
	s := &scriptedSearcher{
		errs:    map[string]error{"a": ErrCatalogUnavailable},
		results: map[string]SearchResult{"b": {Books: books("B1")}},
	}
	sampler, slept := newTestSampler(s)

	got := sampler.Sample(context.Background(), Policy{Candidates: []string{"a", "b"}}, 5)

	assert.Equal(t, books("B1"), got)
	assert.Equal(t, []time.Duration{DefaultBackoff}, *slept)
}

func TestSampler_StopsOnInvalidQuery(t *testing.T) {
	s := &scriptedSearcher{
		results: map[string]SearchResult{"b": {Books: books("B1"), Total: 1}},
		errs:    map[string]error{"a": ErrInvalidQuery},
	}
	sampler, slept := newTestSampler(s)

	got := sampler.Sample(context.Background(), Policy{Name: "t", Candidates: []string{"a", "b"}}, 20)

	assert.Empty(t, got)
	assert.Equal(t, 0, s.attempts("b"))
	assert.Empty(t, *slept)
}

func TestSampler_HomeRejectsNonPositiveLimit(t *testing.T) {
	s := &scriptedSearcher{}
	sampler, slept := newTestSampler(s)

	_, err := sampler.Home(context.Background(), 0)

	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.NotErrorIs(t, err, ErrCatalogUnavailable)
	assert.Empty(t, s.calls)
	assert.Empty(t, *slept)
}

func TestSampler_ExhaustedIsEmptyNotError(t *testing.T) {
	s := &scriptedSearcher{errs: map[string]error{
		"a": ErrCatalogUnavailable,
		"b": ErrCatalogUnavailable,
	}}
	sampler, slept := newTestSampler(s)

	got := sampler.Sample(context.Background(), Policy{Candidates: []string{"a", "b"}}, 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Len(t, *slept, 1)
}

func TestSampler_StopsWhenContextCancelled(t *testing.T) {
	s := &scriptedSearcher{errs: map[string]error{
		"a": ErrCatalogUnavailable,
		"b": ErrCatalogUnavailable,
	}}
	sampler, _ := newTestSampler(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := sampler.Sample(ctx, Policy{Candidates: []string{"a", "b"}}, 5)

	assert.Empty(t, got)
	assert.Equal(t, 0, s.attempts("b"))
}

func TestSampler_ShufflesRandomPolicy(t *testing.T) {
	s := &scriptedSearcher{results: map[string]SearchResult{"mystery": {Books: books("M1")}}}
	sampler, _ := newTestSampler(s)
	sampler.shuffle = func(c []string) {
		for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
			c[i], c[j] = c[j], c[i]
		}
	}

	got := sampler.Sample(context.Background(), Random, 5)

	assert.Equal(t, books("M1"), got)
	require.Len(t, s.calls, 1)
	assert.Equal(t, []string{"adventure", "fantasy", "science_fiction", "romance", "thriller", "mystery"}, Random.Candidates)
}

func TestSampler_Home(t *testing.T) {
	ctx := context.Background()

	t.Run("uses cached section when fresh one is empty", func(t *testing.T) {
		s := &scriptedSearcher{results: map[string]SearchResult{
			"love":    {Books: books("T1")},
			"history": {Books: books("H1")},
		}}
		sampler, _ := newTestSampler(s)
		sampler.shuffle = func([]string) {}
		require.NoError(t, sampler.cache.Write(ctx, "home:random", SearchResult{Books: books("R0")}))

		home, err := sampler.Home(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, books("T1"), home.Trending)
		assert.Equal(t, books("H1"), home.TopRated)
		assert.Equal(t, books("R0"), home.Random)

		cached, ok, _ := sampler.cache.Read(ctx, "home:trending")
		require.True(t, ok)
		assert.Equal(t, books("T1"), cached.Books)
	})

	t.Run("fails only when everything is empty", func(t *testing.T) {
		sampler, _ := newTestSampler(&scriptedSearcher{})

		_, err := sampler.Home(ctx, 10)
		assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	})
}
