// Package readinglist is the authoritative per-user book list store.
package readinglist

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

type Status string

const (
	StatusReading    Status = "Reading"
	StatusCompleted  Status = "Completed"
	StatusPlanToRead Status = "Plan to Read"
	StatusOnHold     Status = "On Hold"
	StatusDropped    Status = "Dropped"
)

var Statuses = []Status{StatusReading, StatusCompleted, StatusPlanToRead, StatusOnHold, StatusDropped}

func (s Status) Valid() bool {
	switch s {
	case StatusReading, StatusCompleted, StatusPlanToRead, StatusOnHold, StatusDropped:
		return true
	}
	return false
}

// BookSummary is the slice of book data stored next to an entry so the list renders
// without a catalog round trip.
type BookSummary struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	CoverID    *int     `json:"cover_i"`
}

// Entry is one book on a reader's list, as the client sees it.
type Entry struct {
	Book      BookSummary `json:"book"`
	Status    Status      `json:"status"`
	Rating    *int        `json:"rating"`
	Review    *string     `json:"review"`
	AddedDate time.Time   `json:"addedDate"`
}

type BookDetails struct {
	Title      string   `json:"title" validate:"max=500"`
	AuthorName []string `json:"author_name"`
	CoverID    *int     `json:"cover_i"`
}

// UpsertRequest is the full document sent for every add or update.
type UpsertRequest struct {
	WorkID      string      `json:"workId" validate:"required,max=64"`
	Status      Status      `json:"status" validate:"required,oneof=Reading Completed 'Plan to Read' 'On Hold' Dropped"`
	Rating      *int        `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Review      *string     `json:"review" validate:"omitempty,max=10000"`
	BookDetails BookDetails `json:"bookDetails"`
}

// Record is the stored row.
type Record struct {
	UserID      string
	WorkID      string
	Status      Status
	Rating      *int
	Review      *string
	Title       string
	AuthorNames []string
	CoverID     *int
	AddedDate   time.Time
	UpdatedAt   time.Time
}

func (r Record) Entry() Entry {
	title := r.Title
	if title == "" {
		title = "No Title"
	}
	authors := r.AuthorNames
	if len(authors) == 0 {
		authors = []string{"Unknown Author"}
	}
	return Entry{
		Book: BookSummary{
			Key:        "/works/" + r.WorkID,
			Title:      title,
			AuthorName: authors,
			CoverID:    r.CoverID,
		},
		Status:    r.Status,
		Rating:    r.Rating,
		Review:    r.Review,
		AddedDate: r.AddedDate,
	}
}

// NormalizeWorkID accepts either a bare work id or a /works/{id} key.
func NormalizeWorkID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "/works/")
}

//go:generate mockgen -source=readinglist.go -destination=mock_repository.go -package=readinglist

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	Upsert(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, userID, workID string) error
}
