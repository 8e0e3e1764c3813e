package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bookworld/internal/platform/openlibrary"
)

// Provider is the subset of the Open Library client the catalog depends on.
type Provider interface {
	Search(ctx context.Context, p openlibrary.SearchParams) (*openlibrary.SearchResponse, error)
	Work(ctx context.Context, workID string) (*openlibrary.Work, error)
	Editions(ctx context.Context, workID string, limit int) (*openlibrary.EditionsResponse, error)
	Author(ctx context.Context, authorKey string) (*openlibrary.AuthorRecord, error)
}

// Service answers browse and detail requests against the provider, falling back to the
// result cache when the provider fails.
type Service struct {
	provider Provider
	cache    ResultCache
	logger   *slog.Logger
}

func NewService(provider Provider, cache ResultCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, cache: cache, logger: logger}
}

// Search returns one page of books for q. Successful results are written to the cache;
// on failure the last good result for the same signature is returned instead.
func (s *Service) Search(ctx context.Context, q BrowseQuery) (SearchResult, error) {
	q = q.Normalized()
	if err := q.Validate(); err != nil {
		return SearchResult{}, err
	}
	signature := q.Signature()

	res, err := s.provider.Search(ctx, q.ProviderParams())
	if err == nil {
		result := SearchResult{Books: booksFromDocs(res.Docs), Total: res.NumFound}
		if werr := s.cache.Write(ctx, signature, result); werr != nil {
			s.logger.Warn("catalog cache write failed", "signature", signature, "error", werr)
		}
		return result, nil
	}
	if errors.Is(err, context.Canceled) {
		return SearchResult{}, err
	}

	cached, ok, cerr := s.cache.Read(ctx, signature)
	if cerr != nil {
		s.logger.Warn("catalog cache read failed", "signature", signature, "error", cerr)
	}
	if ok {
		s.logger.Warn("catalog search failed, serving cached result", "signature", signature, "error", err)
		return cached, nil
	}
	return SearchResult{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}

// BookDetails fetches a work and enriches it with its first edition and first author.
// Only the work lookup can fail the call; enrichment failures are logged and ignored.
func (s *Service) BookDetails(ctx context.Context, workID string) (Book, error) {
	workID = strings.TrimSpace(WorkIDFromKey(workID))
	if workID == "" {
		return Book{}, fmt.Errorf("%w: empty work id", ErrBookNotFound)
	}

	work, err := s.provider.Work(ctx, workID)
	if err != nil {
		if openlibrary.IsNotFound(err) {
			return Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, workID)
		}
		return Book{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	book := bookFromWork(workID, work)
	s.enrichFromEdition(ctx, workID, &book)
	if len(book.AuthorKeys) > 0 {
		s.enrichAuthor(ctx, book.AuthorKeys[0], &book)
	}
	return book, nil
}

func (s *Service) enrichFromEdition(ctx context.Context, workID string, book *Book) {
	res, err := s.provider.Editions(ctx, workID, 1)
	if err != nil {
		s.logger.Warn("edition lookup failed", "work_id", workID, "error", err)
		return
	}
	if len(res.Entries) == 0 {
		return
	}
	edition := res.Entries[0]
	if len(edition.Covers) > 0 {
		cover := edition.Covers[0]
		book.CoverID = &cover
	}
	if links := externalLinks(edition.Identifiers); len(links) > 0 {
		book.ExternalLinks = links
	}
}

func (s *Service) enrichAuthor(ctx context.Context, authorKey string, book *Book) {
	rec, err := s.provider.Author(ctx, authorKey)
	if err != nil {
		s.logger.Warn("author lookup failed", "author_key", authorKey, "error", err)
		return
	}
	if rec.Name == "" {
		return
	}
	book.AuthorNames = []string{rec.Name}
	book.AuthorDetails = &Author{
		Name:      rec.Name,
		Bio:       rec.Bio.String(),
		BirthDate: rec.BirthDate,
		DeathDate: rec.DeathDate,
		Photos:    rec.Photos,
	}
}

var linkTemplates = []struct {
	name, identifier, prefix string
}{
	{"goodreads", "goodreads", "https://www.goodreads.com/book/show/"},
	{"amazon", "amazon", "https://www.amazon.com/dp/"},
	{"google", "google", "https://books.google.com/books?id="},
}

func externalLinks(identifiers map[string][]string) map[string]string {
	links := make(map[string]string)
	for _, t := range linkTemplates {
		if ids := identifiers[t.identifier]; len(ids) > 0 && ids[0] != "" {
			links[t.name] = t.prefix + ids[0]
		}
	}
	return links
}

// booksFromDocs maps search hits to books, dropping hits without a key.
func booksFromDocs(docs []openlibrary.SearchDoc) []Book {
	books := make([]Book, 0, len(docs))
	for _, d := range docs {
		if d.Key == "" {
			continue
		}
		books = append(books, Book{
			Key:              d.Key,
			Title:            d.Title,
			AuthorNames:      d.AuthorNames,
			CoverID:          d.CoverID,
			FirstPublishYear: d.FirstPublishYear,
			Subjects:         d.Subject,
		})
	}
	return books
}

func bookFromWork(workID string, w *openlibrary.Work) Book {
	key := w.Key
	if key == "" {
		key = WorkKey(workID)
	}
	book := Book{
		Key:         key,
		Title:       w.Title,
		Description: w.Description.String(),
		Subjects:    w.Subjects,
	}
	if len(w.Covers) > 0 {
		cover := w.Covers[0]
		book.CoverID = &cover
	}
	for _, ref := range w.Authors {
		if ref.Author.Key != "" {
			book.AuthorKeys = append(book.AuthorKeys, ref.Author.Key)
		}
	}
	return book
}
