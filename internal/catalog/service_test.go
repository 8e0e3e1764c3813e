package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookworld/internal/logger"
	"bookworld/internal/platform/openlibrary"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Search(ctx context.Context, p openlibrary.SearchParams) (*openlibrary.SearchResponse, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.SearchResponse), args.Error(1)
}

func (m *mockProvider) Work(ctx context.Context, workID string) (*openlibrary.Work, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.Work), args.Error(1)
}

func (m *mockProvider) Editions(ctx context.Context, workID string, limit int) (*openlibrary.EditionsResponse, error) {
	args := m.Called(ctx, workID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.EditionsResponse), args.Error(1)
}

func (m *mockProvider) Author(ctx context.Context, authorKey string) (*openlibrary.AuthorRecord, error) {
	args := m.Called(ctx, authorKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.AuthorRecord), args.Error(1)
}

func intPtr(v int) *int { return &v }

var errProviderDown = fmt.Errorf("%w: status 503", openlibrary.ErrUnavailable)

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	q := BrowseQuery{Text: "dune", Page: 1, Limit: 40}

	t.Run("drops keyless docs and writes through", func(t *testing.T) {
		p := new(mockProvider)
		cache := NewMemoryCache()
		s := NewService(p, cache, logger.Discard())

		p.On("Search", ctx, q.ProviderParams()).Return(&openlibrary.SearchResponse{
			NumFound: 3,
			Docs: []openlibrary.SearchDoc{
				{Key: "/works/OL1W", Title: "Dune", CoverID: intPtr(1)},
				{Title: "Keyless"},
				{Key: "/works/OL2W", Title: "Dune Messiah"},
			},
		}, nil)

		res, err := s.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		require.Len(t, res.Books, 2)
		for _, b := range res.Books {
			assert.NotEmpty(t, b.Key)
		}

		cached, ok, _ := cache.Read(ctx, q.Signature())
		require.True(t, ok)
		assert.Equal(t, res, cached)
		p.AssertExpectations(t)
	})

	t.Run("falls back to cache on failure", func(t *testing.T) {
		p := new(mockProvider)
		cache := NewMemoryCache()
		s := NewService(p, cache, logger.Discard())

		stale := SearchResult{Books: []Book{{Key: "/works/OL9W", Title: "Cached"}}, Total: 1}
		require.NoError(t, cache.Write(ctx, q.Signature(), stale))
		p.On("Search", ctx, mock.Anything).Return(nil, errProviderDown)

		res, err := s.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, stale, res)
	})

	t.Run("prefers fresh data over cache", func(t *testing.T) {
		p := new(mockProvider)
		cache := NewMemoryCache()
		s := NewService(p, cache, logger.Discard())

		require.NoError(t, cache.Write(ctx, q.Signature(), SearchResult{Books: []Book{{Key: "/works/OLOLDW"}}, Total: 1}))
		p.On("Search", ctx, mock.Anything).Return(&openlibrary.SearchResponse{
			NumFound: 1, Docs: []openlibrary.SearchDoc{{Key: "/works/OLNEWW"}},
		}, nil)

		res, err := s.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, "/works/OLNEWW", res.Books[0].Key)
	})

	t.Run("unavailable without cache", func(t *testing.T) {
		p := new(mockProvider)
		s := NewService(p, NewMemoryCache(), logger.Discard())
		p.On("Search", ctx, mock.Anything).Return(nil, errProviderDown)

		_, err := s.Search(ctx, q)
		assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	})

	t.Run("invalid query never reaches provider", func(t *testing.T) {
		p := new(mockProvider)
		s := NewService(p, NewMemoryCache(), logger.Discard())

		_, err := s.Search(ctx, BrowseQuery{Text: "x", Page: 0, Limit: 40})
		assert.True(t, errors.Is(err, ErrInvalidQuery))
		p.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}

func TestService_BookDetails(t *testing.T) {
	ctx := context.Background()

	work := &openlibrary.Work{
		Key:         "/works/OL1W",
		Title:       "A Wizard of Earthsea",
		Description: &openlibrary.Text{Kind: openlibrary.RichText, Value: "Ged learns magic."},
		Subjects:    []string{"Fantasy"},
		Authors: []openlibrary.WorkRef{
			workRef("/authors/OL1A"),
			workRef("/authors/OL2A"),
		},
	}

	t.Run("enriches with edition and first author", func(t *testing.T) {
		p := new(mockProvider)
		s := NewService(p, NewMemoryCache(), logger.Discard())

		p.On("Work", ctx, "OL1W").Return(work, nil)
		p.On("Editions", ctx, "OL1W", 1).Return(&openlibrary.EditionsResponse{Entries: []openlibrary.Edition{{
			Covers: []int{77},
			Identifiers: map[string][]string{
				"goodreads": {"13642"},
				"amazon":    {"0553383043"},
			},
		}}}, nil)
		p.On("Author", ctx, "/authors/OL1A").Return(&openlibrary.AuthorRecord{
			Name: "Ursula K. Le Guin",
			Bio:  &openlibrary.Text{Kind: openlibrary.PlainText, Value: "American author."},
		}, nil)

		book, err := s.BookDetails(ctx, "/works/OL1W")
		require.NoError(t, err)

		assert.Equal(t, "Ged learns magic.", book.Description)
		require.NotNil(t, book.CoverID)
		assert.Equal(t, 77, *book.CoverID)
		assert.Equal(t, "https://www.goodreads.com/book/show/13642", book.ExternalLinks["goodreads"])
		assert.Equal(t, "https://www.amazon.com/dp/0553383043", book.ExternalLinks["amazon"])
		assert.NotContains(t, book.ExternalLinks, "google")
		assert.Equal(t, []string{"Ursula K. Le Guin"}, book.AuthorNames)
		require.NotNil(t, book.AuthorDetails)
		assert.Equal(t, "American author.", book.AuthorDetails.Bio)
		p.AssertNotCalled(t, "Author", ctx, "/authors/OL2A")
	})

	t.Run("enrichment failures are soft", func(t *testing.T) {
		p := new(mockProvider)
		s := NewService(p, NewMemoryCache(), logger.Discard())

		p.On("Work", ctx, "OL1W").Return(work, nil)
		p.On("Editions", ctx, "OL1W", 1).Return(nil, errProviderDown)
		p.On("Author", ctx, "/authors/OL1A").Return(nil, errProviderDown)

		book, err := s.BookDetails(ctx, "OL1W")
		require.NoError(t, err)
		assert.Equal(t, "A Wizard of Earthsea", book.Title)
		assert.Nil(t, book.AuthorDetails)
		assert.Nil(t, book.AuthorNames)
		assert.Nil(t, book.ExternalLinks)
	})

	t.Run("not found is distinct", func(t *testing.T) {
		p := new(mockProvider)
		s := NewService(p, NewMemoryCache(), logger.Discard())
		p.On("Work", ctx, "OL404W").Return(nil, &openlibrary.Error{Op: "work", Err: openlibrary.ErrNotFound})

		_, err := s.BookDetails(ctx, "OL404W")
		assert.True(t, errors.Is(err, ErrBookNotFound))
		assert.False(t, errors.Is(err, ErrCatalogUnavailable))
	})

	t.Run("other work failures are unavailable", func(t *testing.T) {
		p := new(mockProvider)
		s := NewService(p, NewMemoryCache(), logger.Discard())
		p.On("Work", ctx, "OL1W").Return(nil, errProviderDown)

		_, err := s.BookDetails(ctx, "OL1W")
		assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	})
}

func workRef(key string) openlibrary.WorkRef {
	var ref openlibrary.WorkRef
	ref.Author.Key = key
	return ref
}
