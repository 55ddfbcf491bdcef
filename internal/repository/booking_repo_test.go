package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargeslot/internal/models"
)

func TestTransitionCompareAndSwap(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)

	t.Run("wins when prior status holds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE bookings").
			WithArgs("bk-1", models.BookingStatusCheckedIn, now, models.BookingStatusApproved).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := NewBookingRepository(db).MarkCheckedIn(context.Background(), "bk-1", now)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses when another actor moved the booking", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE bookings").
			WithArgs("bk-1", models.BookingStatusNoShow, now, models.BookingStatusApproved).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := NewBookingRepository(db).MarkNoShow(context.Background(), "bk-1", now)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkApprovedStoresHash(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)
	expiry := now.Add(2 * time.Hour)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE bookings").
		WithArgs("bk-1", models.BookingStatusApproved, "hash-1", expiry, now, int64(7), models.BookingStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := NewBookingRepository(db).MarkApproved(context.Background(), "bk-1", "hash-1", expiry, 7, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = NewBookingRepository(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
