// Package browse drives the paginated discovery view: filters, infinite scroll and the
// curated default batch shown before any filter is touched.
package browse

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"bookworld/internal/catalog"
)

const (
	PageSize        = 40
	DefaultViewSize = 50
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	LoadingMore
	Exhausted
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadingMore:
		return "loading_more"
	case Exhausted:
		return "exhausted"
	case Error:
		return "error"
	}
	return "unknown"
}

// Sampler yields the default view batch.
type Sampler interface {
	Sample(ctx context.Context, p catalog.Policy, limit int) []catalog.Book
}

// State is a snapshot of a Session.
type State struct {
	Query       catalog.BrowseQuery
	Results     []catalog.Book
	Total       int
	Page        int
	Phase       Phase
	HasMore     bool
	DefaultView bool
	Err         error
}

type Session struct {
	searcher catalog.Searcher
	sampler  Sampler
	logger   *slog.Logger

	mu  sync.Mutex
	st  State
	gen uint64
}

func NewSession(searcher catalog.Searcher, sampler Sampler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		searcher: searcher,
		sampler:  sampler,
		logger:   logger,
		st: State{
			Query:       catalog.BrowseQuery{Sort: catalog.SortRelevance, Page: 1, Limit: PageSize},
			Phase:       Idle,
			DefaultView: true,
		},
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.st
	st.Results = slices.Clone(s.st.Results)
	return st
}

// Start loads the default view batch. It does nothing once the session has left the
// default view, while the batch is loading, or when a non-empty batch is already loaded.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	loaded := s.st.Phase == Exhausted && len(s.st.Results) > 0
	if !s.st.DefaultView || s.st.Phase == Loading || loaded {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.st.Phase = Loading
	s.st.Err = nil
	s.mu.Unlock()

	books := s.sampler.Sample(ctx, catalog.Trending, DefaultViewSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.st.Results = books
	s.st.Total = len(books)
	s.st.Page = 1
	s.st.HasMore = false
	s.st.Phase = Exhausted
}

// SetFilters leaves the default view for good and reloads from page 1. Re-applying the
// filters already in effect is a no-op.
func (s *Session) SetFilters(ctx context.Context, text string, genres []string, sort catalog.Sort) error {
	q := catalog.BrowseQuery{Text: text, Genres: genres, Sort: sort, Page: 1, Limit: PageSize}.Normalized()

	s.mu.Lock()
	if !s.st.DefaultView && sameFilters(s.st.Query, q) && s.st.Phase != Error {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.st = State{
		Query:   q,
		Phase:   Loading,
		HasMore: true,
	}
	s.mu.Unlock()

	return s.fetch(ctx, gen, q)
}

// LoadMore fetches the next page. It reports false without fetching when there is nothing
// more to load or a fetch is already running.
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.st.DefaultView || !s.st.HasMore || s.st.Phase == Loading || s.st.Phase == LoadingMore {
		s.mu.Unlock()
		return false, nil
	}
	q := s.st.Query
	q.Page = s.st.Page + 1
	s.st.Phase = LoadingMore
	gen := s.gen
	s.mu.Unlock()

	return true, s.fetch(ctx, gen, q)
}

func (s *Session) fetch(ctx context.Context, gen uint64, q catalog.BrowseQuery) error {
	res, err := s.searcher.Search(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("stale browse response dropped", "signature", q.Signature())
		return nil
	}

	if err != nil {
		s.st.HasMore = false
		s.st.Err = err
		if q.Page == 1 {
			s.st.Results = nil
			s.st.Total = 0
			s.st.Phase = Error
		} else {
			s.st.Phase = Exhausted
		}
		s.logger.Warn("browse fetch failed", "page", q.Page, "error", err)
		return err
	}

	if q.Page == 1 {
		s.st.Results = slices.Clone(res.Books)
	} else {
		s.st.Results = append(s.st.Results, res.Books...)
	}
	s.st.Total = res.Total
	if limit := min(res.Total, catalog.MaxResults); len(s.st.Results) > limit {
		s.st.Results = s.st.Results[:limit]
	}
	s.st.Page = q.Page
	s.st.Err = nil

	n := len(s.st.Results)
	s.st.HasMore = n < s.st.Total && n < catalog.MaxResults && len(res.Books) > 0
	if s.st.HasMore {
		s.st.Phase = Loaded
	} else {
		s.st.Phase = Exhausted
	}
	return nil
}

func sameFilters(a, b catalog.BrowseQuery) bool {
	return a.Text == b.Text && a.Sort == b.Sort && slices.Equal(a.Genres, b.Genres)
}
