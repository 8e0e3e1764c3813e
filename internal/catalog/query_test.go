package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowseQuery_Offset(t *testing.T) {
	for page := 1; page <= 30; page++ {
		for _, limit := range []int{1, 7, 20, 40, 100} {
			q := BrowseQuery{Page: page, Limit: limit}
			assert.Equal(t, (page-1)*limit, q.Offset())
			assert.Equal(t, (page-1)*limit, q.ProviderParams().Offset)
		}
	}
}

func TestBrowseQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       BrowseQuery
		wantErr bool
	}{
		{"valid", BrowseQuery{Page: 1, Limit: 40}, false},
		{"zero page", BrowseQuery{Page: 0, Limit: 40}, true},
		{"zero limit", BrowseQuery{Page: 1, Limit: 0}, true},
		{"bad sort", BrowseQuery{Page: 1, Limit: 40, Sort: "rating"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidQuery))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBrowseQuery_SingleGenreSubstitutesText(t *testing.T) {
	for _, genre := range Genres {
		q := BrowseQuery{Genres: []string{genre}, Page: 1, Limit: 40}
		p := q.ProviderParams()

		subject := NormalizeSubject(genre)
		assert.NotEmpty(t, p.Q)
		assert.NotEqual(t, "*", p.Q)
		assert.Equal(t, subject, p.Q)
		assert.Equal(t, []string{subject}, p.Subjects)
	}
}

func TestBrowseQuery_ProviderParams(t *testing.T) {
	t.Run("text wins over genres", func(t *testing.T) {
		p := BrowseQuery{Text: "  dune ", Genres: []string{"Fantasy"}, Page: 2, Limit: 40}.ProviderParams()
		assert.Equal(t, "dune", p.Q)
		assert.Equal(t, []string{"fantasy"}, p.Subjects)
		assert.Equal(t, 40, p.Offset)
	})

	t.Run("all genres sent as subjects", func(t *testing.T) {
		p := BrowseQuery{Genres: []string{"Young Adult", "Science Fiction"}, Page: 1, Limit: 40}.ProviderParams()
		assert.Equal(t, []string{"science_fiction", "young_adult"}, p.Subjects)
		assert.Equal(t, "science_fiction", p.Q)
	})

	t.Run("relevance sort is omitted", func(t *testing.T) {
		assert.Equal(t, "", BrowseQuery{Text: "x", Sort: SortRelevance, Page: 1, Limit: 1}.ProviderParams().Sort)
		assert.Equal(t, "new", BrowseQuery{Text: "x", Sort: SortNew, Page: 1, Limit: 1}.ProviderParams().Sort)
	})
}

func TestBrowseQuery_Signature(t *testing.T) {
	a := BrowseQuery{Text: "dune", Genres: []string{"Fantasy", "Science Fiction"}, Page: 1, Limit: 40}
	b := BrowseQuery{Text: " dune", Genres: []string{"science_fiction", "fantasy", "Fantasy"}, Sort: SortRelevance, Page: 1, Limit: 40}
	c := BrowseQuery{Text: "dune", Genres: []string{"Fantasy"}, Page: 1, Limit: 40}
	d := BrowseQuery{Text: "dune", Genres: []string{"Fantasy", "Science Fiction"}, Page: 2, Limit: 40}

	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Signature(), c.Signature())
	assert.NotEqual(t, a.Signature(), d.Signature())
	assert.Equal(t, `q="dune"|genres=fantasy,science_fiction|sort=relevance|page=1|limit=40`, a.Signature())
}

func TestNormalizeSubject(t *testing.T) {
	assert.Equal(t, "science_fiction", NormalizeSubject("Science Fiction"))
	assert.Equal(t, "young_adult", NormalizeSubject("  Young   Adult "))
	assert.Equal(t, "classic_literature", NormalizeSubject("classic_literature"))
	assert.Equal(t, "", NormalizeSubject("   "))
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("")
	assert.NoError(t, err)
	assert.Equal(t, SortRelevance, s)

	s, err = ParseSort("Title")
	assert.NoError(t, err)
	assert.Equal(t, SortTitle, s)

	_, err = ParseSort("popular")
	assert.Error(t, err)
}

func TestWorkIDFromKey(t *testing.T) {
	assert.Equal(t, "OL45883W", WorkIDFromKey("/works/OL45883W"))
	assert.Equal(t, "OL45883W", WorkIDFromKey("OL45883W"))
	assert.Equal(t, "/works/OL45883W", WorkKey("OL45883W"))
	assert.Equal(t, "OL1W", Book{Key: "/works/OL1W"}.WorkID())
}
