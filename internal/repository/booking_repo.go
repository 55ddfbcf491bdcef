package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargeslot/internal/models"
)

// ErrBookingNotFound indicates an unknown booking id or QR hash.
var ErrBookingNotFound = errors.New("booking not found")

const bookingColumns = `
	id, code, owner_id, station_id, slot_start, slot_end, slot_local_date,
	slot_local_time, duration_minutes, status, notes, qr_token_hash,
	qr_expires_at, created_at, created_by, updated_at, approved_at, approved_by,
	rejected_at, rejected_by, cancelled_at, cancelled_by
`

// BookingRepository persists bookings. Every status mutation is a conditional
// compare-and-swap on the expected prior status; an affected count of zero
// means another actor already moved the booking.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository returns repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new pending booking.
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	const query = `
		INSERT INTO bookings (
			id, code, owner_id, station_id, slot_start, slot_end, slot_local_date,
			slot_local_time, duration_minutes, status, notes, created_at, created_by, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.Code,
		b.OwnerID,
		b.StationID,
		b.SlotStart.UTC(),
		b.SlotEnd.UTC(),
		b.SlotLocalDate,
		b.SlotLocalTime,
		b.DurationMinutes,
		b.Status,
		b.Notes,
		b.CreatedAt.UTC(),
		b.CreatedBy,
	)
	return err
}

// GetByID returns one booking, or ErrBookingNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByQRHash returns the booking holding the given token hash, or ErrBookingNotFound.
func (r *BookingRepository) GetByQRHash(ctx context.Context, hash string) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE qr_token_hash = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, hash))
}

// MarkApproved transitions pending -> approved and stores the fresh QR hash.
func (r *BookingRepository) MarkApproved(ctx context.Context, id, qrHash string, qrExpiry time.Time, actorID int64, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET status = $2,
		    qr_token_hash = $3,
		    qr_expires_at = $4,
		    approved_at = $5,
		    approved_by = $6,
		    updated_at = $5
		WHERE id = $1 AND status = $7
	`
	return r.exec(ctx, query, id, models.BookingStatusApproved, qrHash, qrExpiry.UTC(), now.UTC(), actorID, models.BookingStatusPending)
}

// ReplaceQR overwrites the stored token hash on an approved booking,
// invalidating the previously issued token.
func (r *BookingRepository) ReplaceQR(ctx context.Context, id, qrHash string, qrExpiry, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET qr_token_hash = $2,
		    qr_expires_at = $3,
		    updated_at = $4
		WHERE id = $1 AND status = $5
	`
	return r.exec(ctx, query, id, qrHash, qrExpiry.UTC(), now.UTC(), models.BookingStatusApproved)
}

// MarkRejected transitions pending -> rejected.
func (r *BookingRepository) MarkRejected(ctx context.Context, id string, actorID int64, reason string, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET status = $2,
		    notes = CASE WHEN $3 = '' THEN notes ELSE $3 END,
		    rejected_at = $4,
		    rejected_by = $5,
		    updated_at = $4
		WHERE id = $1 AND status = $6
	`
	return r.exec(ctx, query, id, models.BookingStatusRejected, reason, now.UTC(), actorID, models.BookingStatusPending)
}

// MarkCancelled transitions from the expected prior status to cancelled.
func (r *BookingRepository) MarkCancelled(ctx context.Context, id string, from models.BookingStatus, actorID int64, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET status = $2,
		    cancelled_at = $3,
		    cancelled_by = $4,
		    updated_at = $3
		WHERE id = $1 AND status = $5
	`
	return r.exec(ctx, query, id, models.BookingStatusCancelled, now.UTC(), actorID, from)
}

// MarkCheckedIn transitions approved -> checked_in.
func (r *BookingRepository) MarkCheckedIn(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.transition(ctx, id, models.BookingStatusApproved, models.BookingStatusCheckedIn, now)
}

// MarkCompleted transitions checked_in -> completed.
func (r *BookingRepository) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.transition(ctx, id, models.BookingStatusCheckedIn, models.BookingStatusCompleted, now)
}

// MarkAborted transitions checked_in -> aborted.
func (r *BookingRepository) MarkAborted(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.transition(ctx, id, models.BookingStatusCheckedIn, models.BookingStatusAborted, now)
}

// MarkNoShow transitions approved -> no_show.
func (r *BookingRepository) MarkNoShow(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.transition(ctx, id, models.BookingStatusApproved, models.BookingStatusNoShow, now)
}

// MarkExpired transitions pending -> expired.
func (r *BookingRepository) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.transition(ctx, id, models.BookingStatusPending, models.BookingStatusExpired, now)
}

func (r *BookingRepository) transition(ctx context.Context, id string, from, to models.BookingStatus, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET status = $2,
		    updated_at = $3
		WHERE id = $1 AND status = $4
	`
	return r.exec(ctx, query, id, to, now.UTC(), from)
}

// ListByOwner returns the owner's most recent bookings.
func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE owner_id = $1
		ORDER BY slot_start DESC
		LIMIT $2
	`
	return r.list(ctx, query, ownerID, limit)
}

// ListStatusStartedBefore returns bookings in the given status whose slot has
// already started. Cheap prefilter for the sweeper; precise eligibility is
// applied by the caller.
func (r *BookingRepository) ListStatusStartedBefore(ctx context.Context, status models.BookingStatus, before time.Time, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND slot_start < $2
		ORDER BY slot_start
		LIMIT $3
	`
	return r.list(ctx, query, status, before.UTC(), limit)
}

func (r *BookingRepository) exec(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) scanOne(row *sql.Row) (*models.Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b      models.Booking
		notes  sql.NullString
		qrHash sql.NullString
	)
	err := row.Scan(
		&b.ID,
		&b.Code,
		&b.OwnerID,
		&b.StationID,
		&b.SlotStart,
		&b.SlotEnd,
		&b.SlotLocalDate,
		&b.SlotLocalTime,
		&b.DurationMinutes,
		&b.Status,
		&notes,
		&qrHash,
		&b.QRExpiresAt,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.UpdatedAt,
		&b.ApprovedAt,
		&b.ApprovedBy,
		&b.RejectedAt,
		&b.RejectedBy,
		&b.CancelledAt,
		&b.CancelledBy,
	)
	if err != nil {
		return nil, err
	}
	b.Notes = notes.String
	b.QRTokenHash = qrHash.String
	return &b, nil
}
