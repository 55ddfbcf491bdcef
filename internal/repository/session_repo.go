package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargeslot/internal/models"
)

// ErrSessionNotFound indicates no session exists for the booking.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists charging sessions. A session is created once at
// check-in and finalized exactly once; the finalize statement is conditional
// on completed_at being unset.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts the session row opened at check-in.
func (r *SessionRepository) Create(ctx context.Context, s *models.ChargingSession) error {
	const query = `
		INSERT INTO charging_sessions (id, booking_id, station_id, owner_id, checked_in_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.BookingID,
		s.StationID,
		s.OwnerID,
		s.CheckedInAt.UTC(),
		s.Status,
	)
	return err
}

// GetByBookingID returns the session tied to a booking, or ErrSessionNotFound.
func (r *SessionRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.ChargingSession, error) {
	const query = `
		SELECT id, booking_id, station_id, owner_id, checked_in_at, completed_at,
		       energy_kwh, unit_price, total, status, notes
		FROM charging_sessions
		WHERE booking_id = $1
	`
	var (
		s     models.ChargingSession
		notes sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(
		&s.ID,
		&s.BookingID,
		&s.StationID,
		&s.OwnerID,
		&s.CheckedInAt,
		&s.CompletedAt,
		&s.EnergyKWh,
		&s.UnitPrice,
		&s.Total,
		&s.Status,
		&notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Notes = notes.String
	return &s, nil
}

// Finalize writes the terminal session fields, guarded against double
// finalization. Returns false when the session was already finalized.
func (r *SessionRepository) Finalize(ctx context.Context, bookingID string, completedAt time.Time, energyKWh, unitPrice, total float64, notes string) (bool, error) {
	const query = `
		UPDATE charging_sessions
		SET completed_at = $2,
		    energy_kwh = $3,
		    unit_price = $4,
		    total = $5,
		    notes = CASE WHEN $6 = '' THEN notes ELSE $6 END,
		    status = $7
		WHERE booking_id = $1 AND completed_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, bookingID, completedAt.UTC(), energyKWh, unitPrice, total, notes, models.SessionStatusCompleted)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Abort closes an unfinalized session without charging it.
func (r *SessionRepository) Abort(ctx context.Context, bookingID string, abortedAt time.Time) (bool, error) {
	const query = `
		UPDATE charging_sessions
		SET completed_at = $2,
		    status = $3
		WHERE booking_id = $1 AND completed_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, bookingID, abortedAt.UTC(), models.SessionStatusAborted)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
