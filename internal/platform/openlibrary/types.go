package openlibrary

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SearchResponse matches search.json.
type SearchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []SearchDoc `json:"docs"`
}

// SearchDoc is one search.json hit, restricted to SearchFields.
type SearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	CoverID          *int     `json:"cover_i"`
	FirstPublishYear *int     `json:"first_publish_year"`
	Subject          []string `json:"subject"`
}

// Work matches works/{id}.json.
type Work struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description *Text     `json:"description"`
	Subjects    []string  `json:"subjects"`
	Covers      []int     `json:"covers"`
	Authors     []WorkRef `json:"authors"`
}

// WorkRef is the {"author": {"key": ...}} wrapper used by works.
type WorkRef struct {
	Author struct {
		Key string `json:"key"`
	} `json:"author"`
}

// EditionsResponse matches works/{id}/editions.json.
type EditionsResponse struct {
	Size    int       `json:"size"`
	Entries []Edition `json:"entries"`
}

// Edition carries the fields used for detail enrichment.
type Edition struct {
	Key         string              `json:"key"`
	Covers      []int               `json:"covers"`
	Identifiers map[string][]string `json:"identifiers"`
}

// AuthorRecord matches authors/{key}.json.
type AuthorRecord struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Bio       *Text  `json:"bio"`
	BirthDate string `json:"birth_date"`
	DeathDate string `json:"death_date"`
	Photos    []int  `json:"photos"`
}

// TextKind tells which shape a Text value had on the wire.
type TextKind int

const (
	PlainText TextKind = iota
	RichText
)

// Text is a description or bio. Open Library sends either a bare string or
// {"type": "/type/text", "value": "..."} depending on the record.
type Text struct {
	Kind  TextKind
	Value string
}

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text{Kind: PlainText, Value: s}
		return nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return fmt.Errorf("openlibrary: text is neither string nor object: %w", err)
	}
	*t = Text{Kind: RichText, Value: wrapped.Value}
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.Kind == RichText {
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}{"/type/text", t.Value})
	}
	return json.Marshal(t.Value)
}

// String returns the plain text regardless of the wire shape. Nil-safe.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return t.Value
}
