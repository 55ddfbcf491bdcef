package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargeslot/internal/models"
)

// ErrSlotNotFound is returned when no ledger row exists for the window.
var ErrSlotNotFound = errors.New("slot not found")

// InventoryRepository is the slot inventory ledger. Every mutation is a single
// conditional statement so concurrent callers can never over-subscribe a slot
// or drive reserved below zero.
type InventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository returns repository.
func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// EnsureSlot creates the ledger row if absent. Existing rows are left
// untouched, so re-running regeneration never clobbers live counters.
// Returns true when a new row was created.
func (r *InventoryRepository) EnsureSlot(ctx context.Context, stationID string, slotStart, slotEnd time.Time, capacity int) (bool, error) {
	const query = `
		INSERT INTO slot_inventory (station_id, slot_start, slot_end, capacity, reserved, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		ON CONFLICT (station_id, slot_start) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, stationID, slotStart.UTC(), slotEnd.UTC(), capacity)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// TryReserve atomically increments reserved only while reserved < capacity.
// Returns false without mutation when the slot is full or missing.
func (r *InventoryRepository) TryReserve(ctx context.Context, stationID string, slotStart time.Time) (bool, error) {
	const query = `
		UPDATE slot_inventory
		SET reserved = reserved + 1,
		    updated_at = NOW()
		WHERE station_id = $1 AND slot_start = $2 AND reserved < capacity
	`
	result, err := r.db.ExecContext(ctx, query, stationID, slotStart.UTC())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Release atomically decrements reserved, floored at 0.
func (r *InventoryRepository) Release(ctx context.Context, stationID string, slotStart time.Time) error {
	const query = `
		UPDATE slot_inventory
		SET reserved = GREATEST(reserved - 1, 0),
		    updated_at = NOW()
		WHERE station_id = $1 AND slot_start = $2
	`
	_, err := r.db.ExecContext(ctx, query, stationID, slotStart.UTC())
	return err
}

// HealRange raises capacity to max(target, reserved) for every row in
// [from, to). Capacity is never reduced below already-committed reservations.
func (r *InventoryRepository) HealRange(ctx context.Context, stationID string, from, to time.Time, target int) (int64, error) {
	const query = `
		UPDATE slot_inventory
		SET capacity = GREATEST($4, reserved),
		    updated_at = NOW()
		WHERE station_id = $1 AND slot_start >= $2 AND slot_start < $3
		  AND capacity <> GREATEST($4, reserved)
	`
	result, err := r.db.ExecContext(ctx, query, stationID, from.UTC(), to.UTC(), target)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetSlot returns one ledger row, or ErrSlotNotFound.
func (r *InventoryRepository) GetSlot(ctx context.Context, stationID string, slotStart time.Time) (*models.SlotInventory, error) {
	const query = `
		SELECT station_id, slot_start, slot_end, capacity, reserved, updated_at
		FROM slot_inventory
		WHERE station_id = $1 AND slot_start = $2
	`
	var row models.SlotInventory
	err := r.db.QueryRowContext(ctx, query, stationID, slotStart.UTC()).Scan(
		&row.StationID,
		&row.SlotStart,
		&row.SlotEnd,
		&row.Capacity,
		&row.Reserved,
		&row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
