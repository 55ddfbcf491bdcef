package models

import "time"

// Charging session status values, mirroring the tail of the booking state machine.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAborted   = "aborted"
)

// ChargingSession is the physical charging occurrence tied 1:1 to a booking
// once checked in. It is finalized exactly once and immutable thereafter.
type ChargingSession struct {
	ID          string     `db:"id" json:"id"`
	BookingID   string     `db:"booking_id" json:"booking_id"`
	StationID   string     `db:"station_id" json:"station_id"`
	OwnerID     int64      `db:"owner_id" json:"owner_id"`
	CheckedInAt time.Time  `db:"checked_in_at" json:"checked_in_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	EnergyKWh   float64    `db:"energy_kwh" json:"energy_kwh"`
	UnitPrice   float64    `db:"unit_price" json:"unit_price"`
	Total       float64    `db:"total" json:"total"`
	Status      string     `db:"status" json:"status"`
	Notes       string     `db:"notes" json:"notes,omitempty"`
}
