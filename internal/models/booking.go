package models

import "time"

// BookingStatus is one node of the booking state machine.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
	BookingStatusAborted   BookingStatus = "aborted"
	BookingStatusExpired   BookingStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusCheckedIn:
		return false
	}
	return true
}

// HoldsCapacity reports whether a booking in this status holds one reserved
// unit in the slot inventory ledger.
func (s BookingStatus) HoldsCapacity() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusCheckedIn:
		return true
	}
	return false
}

// Booking is one reservation attempt by an owner for one station slot.
// Terminal bookings are final records and never hard-deleted.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	Code            string        `db:"code" json:"code"`
	OwnerID         int64         `db:"owner_id" json:"owner_id"`
	StationID       string        `db:"station_id" json:"station_id"`
	SlotStart       time.Time     `db:"slot_start" json:"slot_start"`
	SlotEnd         time.Time     `db:"slot_end" json:"slot_end"`
	SlotLocalDate   string        `db:"slot_local_date" json:"slot_local_date"`
	SlotLocalTime   string        `db:"slot_local_time" json:"slot_local_time"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Status          BookingStatus `db:"status" json:"status"`
	Notes           string        `db:"notes" json:"notes,omitempty"`
	QRTokenHash     string        `db:"qr_token_hash" json:"-"`
	QRExpiresAt     *time.Time    `db:"qr_expires_at" json:"qr_expires_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	CreatedBy       int64         `db:"created_by" json:"created_by"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
	ApprovedAt      *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy      *int64        `db:"approved_by" json:"approved_by,omitempty"`
	RejectedAt      *time.Time    `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectedBy      *int64        `db:"rejected_by" json:"rejected_by,omitempty"`
	CancelledAt     *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy     *int64        `db:"cancelled_by" json:"cancelled_by,omitempty"`
}
