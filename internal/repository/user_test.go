package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Search matches username, display name, and email.
func TestUserRepository_Search_MatchesEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username ILIKE $1 OR name ILIKE $2 OR email ILIKE $3 ORDER BY created_at DESC LIMIT $4`)).
		WithArgs("%ada%", "%ada%", "%ada%", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	users, err := repo.Search(ctx, "ada", 20, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
