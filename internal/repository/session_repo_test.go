package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/smaphregi/internal/models"
	"github.com/Cheertaboi/smaphregi/internal/session"
)

func newMock(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(db, time.Hour), mock
}

func TestSessionRepo_Get(t *testing.T) {
	repo, mock := newMock(t)
	s := session.New("ja", "tok")
	s.Items = []models.ScannedItem{{Barcode: "123", Price: 100}}
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload")).
		WithArgs(s.ID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(raw))

	got, err := repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Items, got.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload")).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionRepo_GetDBError(t *testing.T) {
	repo, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload")).
		WithArgs("x", sqlmock.AnyArg()).
		WillReturnError(boom)

	_, err := repo.Get(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, session.ErrNotFound)
}

func TestSessionRepo_Save(t *testing.T) {
	repo, mock := newMock(t)
	s := session.New("en", "")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO smaphregi_sessions")).
		WithArgs(s.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_DeleteAndPurge(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM smaphregi_sessions WHERE id = $1")).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM smaphregi_sessions WHERE updated_at <= $1")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Delete(context.Background(), "abc"))
	n, err := repo.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_EnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS smaphregi_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
