package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"regenerate-thumbnails/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const (
	utilityID    = "regenerate-thumbnails"
	consumeQuery = `^UPDATE notices SET consumed = true WHERE key = \$1 AND NOT consumed RETURNING key, level, body, created_at$`
	noticeBody   = `<div class="notice notice-warning is-dismissible"><p>No images uploaded found.</p></div>`
)

func newTestRepository(t *testing.T) (*UtilityRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUtilityRepository(&dbpg.DB{Master: db}, retry.Strategy{Attempts: 1}), mock
}

func TestActivate(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(`^INSERT INTO active_utilities \(id, activated_at\) VALUES \(\$1, \$2\) ON CONFLICT \(id\) DO NOTHING$`).
		WithArgs(utilityID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Activate(context.Background(), utilityID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivate(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "was active", affected: 1, want: true},
		{name: "already inactive", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepository(t)

			mock.ExpectExec(`^DELETE FROM active_utilities WHERE id = \$1$`).
				WithArgs(utilityID).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Deactivate(context.Background(), utilityID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeactivateError(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectExec(`DELETE FROM active_utilities`).WillReturnError(errors.New("read-only transaction"))

	_, err := repo.Deactivate(context.Background(), utilityID)
	assert.ErrorContains(t, err, "read-only transaction")
}

func TestListActive(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`^SELECT id FROM active_utilities ORDER BY position$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow("akismet").
			AddRow(utilityID).
			AddRow("hello-dolly"))

	ids, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"akismet", utilityID, "hello-dolly"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveEmpty(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`^SELECT id FROM active_utilities ORDER BY position$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSaveNotice(t *testing.T) {
	repo, mock := newTestRepository(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`^INSERT INTO notices \(key, level, body, consumed, created_at\) VALUES \(\$1, \$2, \$3, false, \$4\) ON CONFLICT \(key\) DO UPDATE SET .*consumed = false`).
		WithArgs(domain.NoticeKey, "warning", noticeBody, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveNotice(context.Background(), &domain.Notice{
		Key:       domain.NoticeKey,
		Level:     domain.NoticeWarning,
		Body:      noticeBody,
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNoticeStampsCreatedAt(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(`INSERT INTO notices`).
		WithArgs(domain.NoticeKey, "success", "body", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	notice := &domain.Notice{Key: domain.NoticeKey, Level: domain.NoticeSuccess, Body: "body"}
	require.NoError(t, repo.SaveNotice(context.Background(), notice))
	assert.False(t, notice.CreatedAt.IsZero())
}

func TestConsumeNotice(t *testing.T) {
	repo, mock := newTestRepository(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(consumeQuery).
		WithArgs(domain.NoticeKey).
		WillReturnRows(sqlmock.NewRows([]string{"key", "level", "body", "created_at"}).
			AddRow(domain.NoticeKey, "warning", noticeBody, created))

	notice, err := repo.ConsumeNotice(context.Background(), domain.NoticeKey)
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, domain.NoticeKey, notice.Key)
	assert.Equal(t, domain.NoticeWarning, notice.Level)
	assert.Equal(t, noticeBody, notice.Body)
	assert.Equal(t, created, notice.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeNoticeAlreadyConsumed(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(consumeQuery).
		WithArgs(domain.NoticeKey).
		WillReturnRows(sqlmock.NewRows([]string{"key", "level", "body", "created_at"}))

	notice, err := repo.ConsumeNotice(context.Background(), domain.NoticeKey)
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeNoticeError(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(consumeQuery).
		WithArgs(domain.NoticeKey).
		WillReturnError(errors.New("relation \"notices\" does not exist"))

	notice, err := repo.ConsumeNotice(context.Background(), domain.NoticeKey)
	assert.Error(t, err)
	assert.Nil(t, notice)
}

func TestDeleteNotice(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(`^DELETE FROM notices WHERE key = \$1$`).
		WithArgs(domain.NoticeKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteNotice(context.Background(), domain.NoticeKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}
