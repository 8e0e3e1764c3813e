package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bookworld/internal/auth"
)

// OpenSQLite opens (or creates) the client state database at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const identitySchema = `
CREATE TABLE IF NOT EXISTS identity (
	slot     INTEGER PRIMARY KEY CHECK (slot = 1),
	user_id  TEXT NOT NULL,
	name     TEXT NOT NULL,
	email    TEXT NOT NULL,
	token    TEXT NOT NULL,
	saved_at TEXT NOT NULL
)`

// IdentityStore persists the single signed-in identity across restarts.
type IdentityStore struct {
	db *sql.DB
}

func NewIdentityStore(ctx context.Context, db *sql.DB) (*IdentityStore, error) {
	if _, err := db.ExecContext(ctx, identitySchema); err != nil {
		return nil, fmt.Errorf("create identity table: %w", err)
	}
	return &IdentityStore{db: db}, nil
}

func (s *IdentityStore) Save(ctx context.Context, id auth.Identity) error {
	const q = `
	INSERT INTO identity (slot, user_id, name, email, token, saved_at)
	VALUES (1, ?, ?, ?, ?, ?)
	ON CONFLICT(slot) DO UPDATE SET
		user_id = excluded.user_id,
		name = excluded.name,
		email = excluded.email,
		token = excluded.token,
		saved_at = excluded.saved_at`
	_, err := s.db.ExecContext(ctx, q, id.ID, id.Name, id.Email, id.Token, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Load returns the stored identity. ok is false when nobody is signed in.
func (s *IdentityStore) Load(ctx context.Context) (id auth.Identity, ok bool, err error) {
	const q = `SELECT user_id, name, email, token FROM identity WHERE slot = 1`
	err = s.db.QueryRowContext(ctx, q).Scan(&id.ID, &id.Name, &id.Email, &id.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return id, true, nil
}

func (s *IdentityStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM identity WHERE slot = 1`)
	return err
}
