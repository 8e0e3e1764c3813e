// Package listsync keeps the signed-in reader's book list in memory and mirrors every
// change to the authoritative list store.
package listsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"bookworld/internal/catalog"
	"bookworld/internal/readinglist"
)

var (
	ErrAuthRequired = errors.New("listsync: sign-in required")
	ErrRemoteStore  = errors.New("listsync: remote store error")
	// ErrEntryNotFound is returned by a Remote when the entry does not exist server side.
	ErrEntryNotFound = errors.New("listsync: entry not found")
)

// Remote is the authoritative list store.
type Remote interface {
	List(ctx context.Context) (map[string]readinglist.Entry, error)
	Upsert(ctx context.Context, req readinglist.UpsertRequest) (readinglist.Entry, error)
	Delete(ctx context.Context, workID string) error
}

// IdentityProvider reports the signed-in user, or "" when signed out.
type IdentityProvider interface {
	UserID() string
}

// Changes is a partial edit. Nil fields are left as they are.
type Changes struct {
	Status *readinglist.Status
	Rating *int
	Review *string
}

func (c Changes) validate() error {
	if c.Status != nil && !c.Status.Valid() {
		return fmt.Errorf("%w: %q", readinglist.ErrInvalidStatus, *c.Status)
	}
	if c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5) {
		return readinglist.ErrInvalidRating
	}
	return nil
}

func (c Changes) apply(e readinglist.Entry) readinglist.Entry {
	if c.Status != nil {
		e.Status = *c.Status
	}
	if c.Rating != nil {
		e.Rating = c.Rating
	}
	if c.Review != nil {
		e.Review = c.Review
	}
	return e
}

type Store struct {
	remote   Remote
	identity IdentityProvider
	logger   *slog.Logger
	now      func() time.Time

	strictRemove bool

	mu      sync.Mutex
	owner   string
	epoch   uint64
	entries map[string]readinglist.Entry
	revs    map[string]uint64
	rev     uint64
}

// Option configures a Store.
type Option func(*Store)

// WithStrictRemove makes Remove fail with ErrEntryNotFound when the server has no such
// entry, leaving the local mapping untouched. By default that case counts as removed.
func WithStrictRemove() Option {
	return func(s *Store) { s.strictRemove = true }
}

func NewStore(remote Remote, identity IdentityProvider, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		remote:   remote,
		identity: identity,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[string]readinglist.Entry),
		revs:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the local mapping with the remote one for the signed-in user.
// Signed out, it just empties the mapping.
func (s *Store) Load(ctx context.Context) error {
	user := s.identity.UserID()
	if user == "" {
		s.Clear()
		return nil
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	remote, err := s.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrRemoteStore, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.owner = user
	s.entries = make(map[string]readinglist.Entry, len(remote))
	s.revs = make(map[string]uint64, len(remote))
	for id, e := range remote {
		s.entries[readinglist.NormalizeWorkID(id)] = e
	}
	s.logger.Debug("list loaded", "user_id", user, "entries", len(remote))
	return nil
}

// SyncIdentity reacts to a sign-in or sign-out. A new user triggers a full load; signing
// out clears the mapping. Entries are never carried from one user to another.
func (s *Store) SyncIdentity(ctx context.Context) error {
	user := s.identity.UserID()

	s.mu.Lock()
	owner := s.owner
	s.mu.Unlock()

	switch {
	case user == "":
		if owner != "" {
			s.Clear()
		}
		return nil
	case user != owner:
		s.Clear()
		return s.Load(ctx)
	}
	return nil
}

// Clear drops every local entry. In-flight mutations from before the clear are discarded.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = ""
	s.epoch++
	s.entries = make(map[string]readinglist.Entry)
	s.revs = make(map[string]uint64)
}

func (s *Store) Get(workID string) (readinglist.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[readinglist.NormalizeWorkID(workID)]
	return e, ok
}

// Entries returns a snapshot of the local mapping.
func (s *Store) Entries() map[string]readinglist.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.entries)
}

// Add inserts entry locally, then upserts the full document remotely.
func (s *Store) Add(ctx context.Context, workID string, entry readinglist.Entry) error {
	if s.identity.UserID() == "" {
		return ErrAuthRequired
	}
	if err := (Changes{Status: &entry.Status, Rating: entry.Rating}).validate(); err != nil {
		return err
	}
	workID = readinglist.NormalizeWorkID(workID)
	if entry.AddedDate.IsZero() {
		entry.AddedDate = s.now().UTC()
	}
	if entry.Book.Key == "" {
		entry.Book.Key = catalog.WorkKey(workID)
	}

	s.mu.Lock()
	prev, had := s.entries[workID]
	s.entries[workID] = entry
	m := s.bump(workID, prev, had)
	s.mu.Unlock()

	return s.push(ctx, workID, entry, m)
}

// Update merges changes into an existing entry and upserts the merged document.
// An unknown workID is a no-op.
func (s *Store) Update(ctx context.Context, workID string, changes Changes) error {
	if s.identity.UserID() == "" {
		return ErrAuthRequired
	}
	if err := changes.validate(); err != nil {
		return err
	}
	workID = readinglist.NormalizeWorkID(workID)

	s.mu.Lock()
	prev, ok := s.entries[workID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	merged := changes.apply(prev)
	s.entries[workID] = merged
	m := s.bump(workID, prev, true)
	s.mu.Unlock()

	return s.push(ctx, workID, merged, m)
}

// Remove deletes remotely first and only then locally. Unless WithStrictRemove is set, an
// entry the server no longer has is removed locally too.
func (s *Store) Remove(ctx context.Context, workID string) error {
	if s.identity.UserID() == "" {
		return ErrAuthRequired
	}
	workID = readinglist.NormalizeWorkID(workID)

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.remote.Delete(ctx, workID); err != nil {
		if !errors.Is(err, ErrEntryNotFound) {
			return fmt.Errorf("%w: delete %s: %w", ErrRemoteStore, workID, err)
		}
		if s.strictRemove {
			return fmt.Errorf("delete %s: %w", workID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		delete(s.entries, workID)
		s.rev++
		s.revs[workID] = s.rev
	}
	return nil
}

// mutation remembers what a key looked like before an optimistic write.
type mutation struct {
	rev   uint64
	epoch uint64
	prev  readinglist.Entry
	had   bool
}

// bump must be called with s.mu held.
func (s *Store) bump(workID string, prev readinglist.Entry, had bool) mutation {
	s.rev++
	s.revs[workID] = s.rev
	return mutation{rev: s.rev, epoch: s.epoch, prev: prev, had: had}
}

func (s *Store) push(ctx context.Context, workID string, entry readinglist.Entry, m mutation) error {
	saved, err := s.remote.Upsert(ctx, UpsertRequestFor(workID, entry))

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.epoch == m.epoch && s.revs[workID] == m.rev

	if err != nil {
		if current {
			if m.had {
				s.entries[workID] = m.prev
			} else {
				delete(s.entries, workID)
			}
		}
		s.logger.Warn("list upsert failed", "work_id", workID, "rolled_back", current, "error", err)
		return fmt.Errorf("%w: upsert %s: %w", ErrRemoteStore, workID, err)
	}

	if current && !saved.AddedDate.IsZero() {
		s.entries[workID] = saved
	}
	return nil
}

// UpsertRequestFor builds the full document the list store expects for entry.
func UpsertRequestFor(workID string, e readinglist.Entry) readinglist.UpsertRequest {
	return readinglist.UpsertRequest{
		WorkID: readinglist.NormalizeWorkID(workID),
		Status: e.Status,
		Rating: e.Rating,
		Review: e.Review,
		BookDetails: readinglist.BookDetails{
			Title:      e.Book.Title,
			AuthorName: e.Book.AuthorName,
			CoverID:    e.Book.CoverID,
		},
	}
}

// EntryFromBook starts a list entry for a catalog book.
func EntryFromBook(b catalog.Book, status readinglist.Status) readinglist.Entry {
	return readinglist.Entry{
		Book: readinglist.BookSummary{
			Key:        b.Key,
			Title:      b.Title,
			AuthorName: b.AuthorNames,
			CoverID:    b.CoverID,
		},
		Status: status,
	}
}
