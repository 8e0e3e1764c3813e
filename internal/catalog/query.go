package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"bookworld/internal/platform/openlibrary"
)

// Sort is the ordering requested from the provider.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortNew       Sort = "new"
	SortOld       Sort = "old"
	SortTitle     Sort = "title"
)

// ParseSort maps user input to a Sort. Empty input means relevance.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRelevance:
		return SortRelevance, nil
	case SortNew:
		return SortNew, nil
	case SortOld:
		return SortOld, nil
	case SortTitle:
		return SortTitle, nil
	default:
		return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, s)
	}
}

// Genres offered by the browse filter.
var Genres = []string{
	"Fantasy", "Science Fiction", "Mystery", "Thriller", "Romance", "Horror", "History",
	"Biography", "Children", "Young Adult", "Adventure", "Dystopian", "Humor",
}

// NormalizeSubject turns a display genre into a provider subject:
// "Science Fiction" becomes "science_fiction".
func NormalizeSubject(genre string) string {
	// cases.Caser is stateful, so each call gets its own.
	s := cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(genre)))
	return strings.Join(strings.Fields(s), "_")
}

// BrowseQuery is the reader's current search selection.
type BrowseQuery struct {
	Text   string
	Genres []string
	Sort   Sort
	Page   int
	Limit  int
}

// Normalized returns a copy with trimmed text, normalized deduplicated sorted genres
// and a defaulted sort.
func (q BrowseQuery) Normalized() BrowseQuery {
	out := q
	out.Text = strings.TrimSpace(q.Text)
	if out.Sort == "" {
		out.Sort = SortRelevance
	}
	genres := make([]string, 0, len(q.Genres))
	for _, g := range q.Genres {
		if s := NormalizeSubject(g); s != "" {
			genres = append(genres, s)
		}
	}
	slices.Sort(genres)
	out.Genres = slices.Compact(genres)
	return out
}

// Validate checks the page and limit constraints.
func (q BrowseQuery) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidQuery, q.Page)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidQuery, q.Limit)
	}
	if _, err := ParseSort(string(q.Sort)); err != nil {
		return err
	}
	return nil
}

// Offset is the number of results skipped before this page.
func (q BrowseQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Signature is the canonical cache key of the query.
func (q BrowseQuery) Signature() string {
	n := q.Normalized()
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(strconv.Quote(n.Text))
	b.WriteString("|genres=")
	b.WriteString(strings.Join(n.Genres, ","))
	b.WriteString("|sort=")
	b.WriteString(string(n.Sort))
	b.WriteString("|page=")
	b.WriteString(strconv.Itoa(n.Page))
	b.WriteString("|limit=")
	b.WriteString(strconv.Itoa(n.Limit))
	return b.String()
}

// ProviderParams builds the search.json parameters.
//
// The provider rejects an empty free-text query combined with a subject filter, so when
// no text is given the first genre doubles as the free-text term.
func (q BrowseQuery) ProviderParams() openlibrary.SearchParams {
	n := q.Normalized()
	p := openlibrary.SearchParams{
		Q:        n.Text,
		Subjects: n.Genres,
		Offset:   n.Offset(),
		Limit:    n.Limit,
	}
	if p.Q == "" && len(n.Genres) > 0 {
		p.Q = n.Genres[0]
	}
	if n.Sort != SortRelevance {
		p.Sort = string(n.Sort)
	}
	return p
}
