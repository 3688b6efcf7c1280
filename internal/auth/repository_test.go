package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewRepository(database), mock
}

var (
	testNow     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testAccount = Account{Username: "alice", Password: "hash", Salt: "salt", CreatedAt: testNow}
	testSession = Session{Token: "tok", Username: "alice", Expire: testNow.Add(7 * 24 * time.Hour)}
)

func TestGetAccount_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+username,\s*password,\s*salt,\s*created_at\s+FROM\s+accounts\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password", "salt", "created_at"}).
			AddRow("alice", "hash", "salt", testNow))

	got, err := repo.GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, testAccount, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+accounts`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetAccount_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+accounts`).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.GetAccount(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query account: db down")
}

func TestCreateAccount_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE accounts IN SHARE ROW EXCLUSIVE MODE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`(?s)INSERT INTO accounts \(username, password, salt, created_at\).*ON CONFLICT \(username\) DO NOTHING`).
		WithArgs("alice", "hash", "salt", testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)INSERT INTO sessions \(session, username, expire\)`).
		WithArgs("tok", "alice", testSession.Expire).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateAccount(context.Background(), testAccount, testSession, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_QuotaReached(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.CreateAccount(context.Background(), testAccount, testSession, 2)
	assert.ErrorIs(t, err, ErrAccountQuota)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_AlreadyExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateAccount(context.Background(), testAccount, testSession, 2)
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT\s+username\s+FROM\s+accounts\s+WHERE\s+username\s*=\s*\$1\s+FOR UPDATE`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("alice"))
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\)\s+FROM sessions\s+WHERE username = \$1 AND expire > \$2`).
		WithArgs("alice", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("tok", "alice", testSession.Expire).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateSession(context.Background(), testSession, 2, testNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession_QuotaReached(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("alice"))
	mock.ExpectQuery(`FROM sessions`).WithArgs("alice", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.CreateSession(context.Background(), testSession, 2, testNow)
	assert.ErrorIs(t, err, ErrSessionQuota)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession_UnknownAccount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("alice").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.CreateSession(context.Background(), testSession, 2, testNow)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSession(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+username,\s*expire\s+FROM\s+sessions\s+WHERE\s+session\s*=\s*\$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"username", "expire"}).AddRow("alice", testSession.Expire))

	got, err := repo.GetSession(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, testSession, got)
}

func TestGetSession_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+sessions`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRenewSession_NeverShortens(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	expire := testNow.Add(7 * 24 * time.Hour)
	mock.ExpectExec(`(?s)UPDATE sessions\s+SET expire = GREATEST\(expire, \$2\)\s+WHERE session = \$1`).
		WithArgs("tok", expire).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RenewSession(context.Background(), "tok", expire))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewSession_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE sessions`).WillReturnError(errors.New("db down"))

	err := repo.RenewSession(context.Background(), "tok", testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renew session")
}

func TestPurgeExpiredSessions(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)DELETE FROM sessions\s+WHERE expire <= \$1`).
		WithArgs(testNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := repo.PurgeExpiredSessions(context.Background(), testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 3, purged)
}
