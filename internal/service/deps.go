package service

import (
	"context"
	"time"

	"chargeslot/internal/models"
	"chargeslot/internal/notify"
)

// Ledger is the slot inventory contract the orchestrator reserves and
// releases against.
type Ledger interface {
	Reserve(ctx context.Context, stationID string, slotStart time.Time) (bool, error)
	Release(ctx context.Context, stationID string, slotStart time.Time) error
}

// SlotStore is the persistence contract behind the ledger.
type SlotStore interface {
	EnsureSlot(ctx context.Context, stationID string, slotStart, slotEnd time.Time, capacity int) (bool, error)
	TryReserve(ctx context.Context, stationID string, slotStart time.Time) (bool, error)
	Release(ctx context.Context, stationID string, slotStart time.Time) error
	HealRange(ctx context.Context, stationID string, from, to time.Time, target int) (int64, error)
	GetSlot(ctx context.Context, stationID string, slotStart time.Time) (*models.SlotInventory, error)
}

// BookingStore is the persistence contract for bookings. The Mark* methods are
// compare-and-swap transitions: false means the expected prior status no
// longer held.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByQRHash(ctx context.Context, hash string) (*models.Booking, error)
	MarkApproved(ctx context.Context, id, qrHash string, qrExpiry time.Time, actorID int64, now time.Time) (bool, error)
	ReplaceQR(ctx context.Context, id, qrHash string, qrExpiry, now time.Time) (bool, error)
	MarkRejected(ctx context.Context, id string, actorID int64, reason string, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id string, from models.BookingStatus, actorID int64, now time.Time) (bool, error)
	MarkCheckedIn(ctx context.Context, id string, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error)
	MarkAborted(ctx context.Context, id string, now time.Time) (bool, error)
	MarkNoShow(ctx context.Context, id string, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string, now time.Time) (bool, error)
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Booking, error)
	ListStatusStartedBefore(ctx context.Context, status models.BookingStatus, before time.Time, limit int) ([]models.Booking, error)
}

// SessionStore is the persistence contract for charging sessions.
type SessionStore interface {
	Create(ctx context.Context, s *models.ChargingSession) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.ChargingSession, error)
	Finalize(ctx context.Context, bookingID string, completedAt time.Time, energyKWh, unitPrice, total float64, notes string) (bool, error)
	Abort(ctx context.Context, bookingID string, abortedAt time.Time) (bool, error)
}

// StationProvider reads station metadata and schedules.
type StationProvider interface {
	GetByID(ctx context.Context, id string) (*models.Station, error)
	ListActive(ctx context.Context, afterID string, limit int) ([]models.Station, error)
}

// AuditSink records state transitions, fire-and-forget.
type AuditSink interface {
	Record(ctx context.Context, entityType, entityID, action string, actorID int64, actorRole string, payload map[string]interface{}) error
}

// Notifier enqueues owner-facing notifications, fire-and-forget.
type Notifier interface {
	Enqueue(ctx context.Context, n notify.Notification) error
}
