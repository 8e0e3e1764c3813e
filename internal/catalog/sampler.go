package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBackoff is the pause after a failed candidate before trying the next one.
const DefaultBackoff = 250 * time.Millisecond

// Searcher runs a single browse query.
type Searcher interface {
	Search(ctx context.Context, q BrowseQuery) (SearchResult, error)
}

// Policy is an ordered list of candidate subjects tried until one yields books.
type Policy struct {
	Name       string
	Candidates []string
	Shuffle    bool
}

var (
	Trending = Policy{
		Name:       "trending",
		Candidates: []string{"love", "fiction", "thriller", "adventure", "fantasy"},
	}
	TopRated = Policy{
		Name:       "top_rated",
		Candidates: []string{"history", "classic_literature", "biography", "science"},
	}
	Random = Policy{
		Name:       "random",
		Candidates: []string{"adventure", "fantasy", "science_fiction", "romance", "thriller", "mystery"},
		Shuffle:    true,
	}
)

// Sampler walks a Policy's candidates and returns the first non-empty result.
type Sampler struct {
	searcher Searcher
	cache    ResultCache
	backoff  time.Duration
	logger   *slog.Logger

	shuffle func([]string)
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewSampler(searcher Searcher, cache ResultCache, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		searcher: searcher,
		cache:    cache,
		backoff:  DefaultBackoff,
		logger:   logger,
		shuffle: func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// Sample tries each candidate as both the query term and the subject filter. Results are
// never merged across subjects. An exhausted policy yields an empty slice, not an error.
func (s *Sampler) Sample(ctx context.Context, p Policy, limit int) []Book {
	candidates := slices.Clone(p.Candidates)
	if p.Shuffle {
		s.shuffle(candidates)
	}

	for i, subject := range candidates {
		res, err := s.searcher.Search(ctx, BrowseQuery{
			Genres: []string{subject},
			Sort:   SortRelevance,
			Page:   1,
			Limit:  limit,
		})
		if err == nil {
			if len(res.Books) > 0 {
				return res.Books
			}
			continue
		}

		if errors.Is(err, ErrInvalidQuery) {
			s.logger.Warn("sampler query rejected", "policy", p.Name, "error", err)
			break
		}
		s.logger.Debug("subject candidate failed", "policy", p.Name, "subject", subject, "error", err)
		if i == len(candidates)-1 {
			break
		}
		if err := s.sleep(ctx, s.backoff); err != nil {
			break
		}
	}
	return []Book{}
}

// HomeSections are the curated lists shown on the landing page.
type HomeSections struct {
	Trending []Book `json:"trending"`
	TopRated []Book `json:"top_rated"`
	Random   []Book `json:"random"`
}

// Home samples all three sections concurrently. An empty section is replaced by the last
// non-empty value cached for it. It fails only when every section ends up empty.
func (s *Sampler) Home(ctx context.Context, limit int) (HomeSections, error) {
	if limit < 1 {
		return HomeSections{}, fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidQuery, limit)
	}
	var out HomeSections
	sections := []struct {
		policy Policy
		dst    *[]Book
	}{
		{Trending, &out.Trending},
		{TopRated, &out.TopRated},
		{Random, &out.Random},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sec := range sections {
		g.Go(func() error {
			*sec.dst = s.Sample(gctx, sec.policy, limit)
			return nil
		})
	}
	_ = g.Wait()

	found := false
	for _, sec := range sections {
		key := "home:" + sec.policy.Name
		if len(*sec.dst) > 0 {
			found = true
			if err := s.cache.Write(ctx, key, SearchResult{Books: *sec.dst, Total: len(*sec.dst)}); err != nil {
				s.logger.Warn("home section cache write failed", "section", sec.policy.Name, "error", err)
			}
			continue
		}

		s.logger.Warn("home section empty", "section", sec.policy.Name)
		cached, ok, err := s.cache.Read(ctx, key)
		if err != nil {
			s.logger.Warn("home section cache read failed", "section", sec.policy.Name, "error", err)
		}
		if ok && len(cached.Books) > 0 {
			*sec.dst = cached.Books
			found = true
		}
	}

	if !found {
		return out, fmt.Errorf("%w: every home section is empty", ErrCatalogUnavailable)
	}
	return out, nil
}
