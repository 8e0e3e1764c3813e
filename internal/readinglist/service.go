package readinglist

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the reader's entries keyed by work id.
func (s *Service) List(ctx context.Context, userID string) (map[string]Entry, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make(map[string]Entry, len(records))
	for _, rec := range records {
		out[rec.WorkID] = rec.Entry()
	}
	return out, nil
}

// Upsert replaces the whole entry for (userID, workId). The original added date is kept.
func (s *Service) Upsert(ctx context.Context, userID string, req UpsertRequest) (Entry, error) {
	if !req.Status.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return Entry{}, ErrInvalidRating
	}

	rec := &Record{
		UserID:      userID,
		WorkID:      NormalizeWorkID(req.WorkID),
		Status:      req.Status,
		Rating:      req.Rating,
		Review:      req.Review,
		Title:       req.BookDetails.Title,
		AuthorNames: req.BookDetails.AuthorName,
		CoverID:     req.BookDetails.CoverID,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return Entry{}, fmt.Errorf("upsert entry %s: %w", rec.WorkID, err)
	}
	return rec.Entry(), nil
}

func (s *Service) Remove(ctx context.Context, userID, workID string) error {
	if err := s.repo.Delete(ctx, userID, NormalizeWorkID(workID)); err != nil {
		return fmt.Errorf("remove entry %s: %w", workID, err)
	}
	return nil
}
