package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"accountapi/internal/db"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) GetAccount(ctx context.Context, username string) (Account, error) {
	var account Account
	err := r.db.QueryRowContext(ctx, `
		SELECT username, password, salt, created_at
		FROM accounts
		WHERE username = $1
	`, username).Scan(&account.Username, &account.Password, &account.Salt, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query account: %w", err)
	}

	return account, nil
}

// CreateAccount stores a new account together with its first session. The
// accounts table is locked for the count so concurrent registrations cannot
// overshoot maxAccounts.
func (r *Repository) CreateAccount(ctx context.Context, account Account, session Session, maxAccounts int) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE accounts IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if count >= maxAccounts {
			return ErrAccountQuota
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (username, password, salt, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING
		`, account.Username, account.Password, account.Salt, account.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("account rows affected: %w", err)
		}
		if affected == 0 {
			return ErrAccountExists
		}

		return insertSession(ctx, tx, session)
	})
}

// CreateSession adds a session for an existing account unless the account
// already holds limit live sessions. The account row is locked while counting.
func (r *Repository) CreateSession(ctx context.Context, session Session, limit int, now time.Time) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		var username string
		err := tx.QueryRowContext(ctx, `
			SELECT username
			FROM accounts
			WHERE username = $1
			FOR UPDATE
		`, session.Username).Scan(&username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account row: %w", err)
		}

		var count int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM sessions
			WHERE username = $1 AND expire > $2
		`, session.Username, now.UTC()).Scan(&count)
		if err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		if count >= limit {
			return ErrSessionQuota
		}

		return insertSession(ctx, tx, session)
	})
}

func insertSession(ctx context.Context, tx db.DBTX, session Session) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (session, username, expire)
		VALUES ($1, $2, $3)
	`, session.Token, session.Username, session.Expire.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token string) (Session, error) {
	session := Session{Token: token}
	err := r.db.QueryRowContext(ctx, `
		SELECT username, expire
		FROM sessions
		WHERE session = $1
	`, token).Scan(&session.Username, &session.Expire)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("query session: %w", err)
	}

	return session, nil
}

// RenewSession moves the expiry forward to expire. An expiry already later
// than expire is left alone, as is a token with no row.
func (r *Repository) RenewSession(ctx context.Context, token string, expire time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET expire = GREATEST(expire, $2)
		WHERE session = $1
	`, token, expire.UTC())
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}

	return nil
}

func (r *Repository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE expire <= $1
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}

	return affected, nil
}
