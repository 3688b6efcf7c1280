package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrProgressNotFound = errors.New("reading progress not found")

type Progress struct {
	Username  string
	BookID    string
	Text      float64
	UpdatedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, username, bookID string) (Progress, error) {
	p := Progress{Username: username, BookID: bookID}
	err := r.db.QueryRowContext(ctx, `
		SELECT text, updated_at
		FROM read_history
		WHERE username = $1 AND bookid = $2
	`, username, bookID).Scan(&p.Text, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Progress{}, ErrProgressNotFound
		}
		return Progress{}, fmt.Errorf("query read history: %w", err)
	}

	return p, nil
}

// Put inserts or overwrites the progress stored for (username, bookID).
func (r *Repository) Put(ctx context.Context, p Progress) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO read_history (username, bookid, text, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username, bookid)
		DO UPDATE SET
			text = EXCLUDED.text,
			updated_at = EXCLUDED.updated_at
	`, p.Username, p.BookID, p.Text, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert read history: %w", err)
	}

	return nil
}
