package readinglist

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	const listSQL = `
		SELECT user_id, work_id, status, rating, review, title, author_names, cover_id, added_date, updated_at
		FROM book_list_entries
		WHERE user_id = $1
		ORDER BY added_date DESC
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, listSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.UserID, &rec.WorkID, &rec.Status, &rec.Rating, &rec.Review,
			&rec.Title, &rec.AuthorNames, &rec.CoverID, &rec.AddedDate, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PostgresRepo) Upsert(ctx context.Context, rec *Record) error {
	const upsertSQL = `
		INSERT INTO book_list_entries (user_id, work_id, status, rating, review, title, author_names, cover_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, work_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			rating = EXCLUDED.rating,
			review = EXCLUDED.review,
			title = EXCLUDED.title,
			author_names = EXCLUDED.author_names,
			cover_id = EXCLUDED.cover_id,
			updated_at = NOW()
		RETURNING added_date, updated_at
	`
	authors := rec.AuthorNames
	if authors == nil {
		authors = []string{}
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, upsertSQL,
		rec.UserID, rec.WorkID, string(rec.Status), rec.Rating, rec.Review,
		rec.Title, authors, rec.CoverID,
	).Scan(&rec.AddedDate, &rec.UpdatedAt)
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, workID string) error {
	const deleteSQL = `DELETE FROM book_list_entries WHERE user_id = $1 AND work_id = $2`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, deleteSQL, userID, workID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
