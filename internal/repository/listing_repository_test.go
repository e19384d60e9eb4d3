package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketplace/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

var listingColumns = []string{"id", "user_id", "first_name", "last_name", "title", "description", "price", "category", "photo", "version", "created_at", "updated_at"}

func listingRow(id, owner uuid.UUID, title string) []driver.Value {
	now := time.Now()
	return []driver.Value{id.String(), owner.String(), "Ada", "Lovelace", title, "desc", "50.00", "furniture", "/uploads/p.png", 1, now, now}
}

func TestListingRepository_ListExcludesViewer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)
	viewer := uuid.New()
	other := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `listings` WHERE user_id <> ? AND category = ? ORDER BY created_at DESC")).
		WithArgs(viewer.String(), "furniture").
		WillReturnRows(sqlmock.NewRows(listingColumns).AddRow(listingRow(uuid.New(), other, "Desk")...))

	listings, err := repo.List(context.Background(), ListFilter{Exclude: &viewer, Category: "furniture"})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, other, listings[0].UserID)
	assert.True(t, decimal.RequireFromString("50").Equal(listings[0].Price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_SearchAppliesExclusionInQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)
	viewer := uuid.New()

	pattern := regexp.QuoteMeta("MATCH(first_name, last_name, title, description) AGAINST(? IN NATURAL LANGUAGE MODE)") +
		".*" + regexp.QuoteMeta("user_id <> ?")
	mock.ExpectQuery(pattern).
		WithArgs("desk", viewer.String()).
		WillReturnRows(sqlmock.NewRows(listingColumns))

	listings, err := repo.Search(context.Background(), "desk", ListFilter{Exclude: &viewer})
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `listings` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(listingColumns))

	listing, err := repo.FindByID(context.Background(), uuid.New())
	assert.Nil(t, listing)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_UpdateVersioned(t *testing.T) {
	tests := []struct {
		name        string
		affected    int64
		wantErr     error
		wantVersion int
	}{
		{"current version", 1, nil, 3},
		{"stale version", 0, ErrStaleVersion, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewListingRepository(db)
			listing := &model.Listing{ID: uuid.New(), Title: "Desk", Price: decimal.NewFromInt(50), Version: 2}

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("UPDATE `listings` SET")).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			err := repo.UpdateVersioned(context.Background(), listing, 2)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantVersion, listing.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListingRepository_DeleteRemovesComments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `comments` WHERE listing_id = ?")).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `listings` WHERE id = ?")).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicate(&mysqldriver.MySQLError{Number: 1146}))
	assert.False(t, IsDuplicate(errors.New("boom")))
}
