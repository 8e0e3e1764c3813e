package catalog

import (
	"errors"
	"strings"
)

var (
	// ErrCatalogUnavailable means the provider failed and no cached result could stand in.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrBookNotFound means the provider reported that the work does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrInvalidQuery is returned for a query that violates page/limit constraints.
	ErrInvalidQuery = errors.New("invalid browse query")
)

// Book is a catalog work as shown to the reader.
type Book struct {
	Key              string            `json:"key"`
	Title            string            `json:"title"`
	AuthorNames      []string          `json:"author_name"`
	CoverID          *int              `json:"cover_i,omitempty"`
	FirstPublishYear *int              `json:"first_publish_year,omitempty"`
	Description      string            `json:"description,omitempty"`
	Subjects         []string          `json:"subjects,omitempty"`
	AuthorKeys       []string          `json:"author_keys,omitempty"`
	AuthorDetails    *Author           `json:"author_details,omitempty"`
	ExternalLinks    map[string]string `json:"external_links,omitempty"`
}

// WorkID returns the identifier part of a "/works/{workId}" key.
func (b Book) WorkID() string {
	return WorkIDFromKey(b.Key)
}

// WorkIDFromKey strips the "/works/" prefix from a catalog key.
func WorkIDFromKey(key string) string {
	return strings.TrimPrefix(key, "/works/")
}

// WorkKey builds the catalog key for a workId.
func WorkKey(workID string) string {
	return "/works/" + WorkIDFromKey(workID)
}

// Author is the lazily fetched detail of a book's first author.
type Author struct {
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	DeathDate string `json:"death_date,omitempty"`
	Photos    []int  `json:"photos,omitempty"`
}

// SearchResult is one page of search hits plus the provider's match count.
type SearchResult struct {
	Books []Book `json:"books"`
	Total int    `json:"total"`
}

// MaxResults is the deepest position the provider returns reliably.
const MaxResults = 1000
