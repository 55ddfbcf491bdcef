package models

import "time"

// SlotInventory is the capacity ledger entry for one station at one discrete
// slot window. Reserved stays within [0, capacity]; the reserve operation is
// conditional on reserved < capacity.
type SlotInventory struct {
	StationID string    `db:"station_id" json:"station_id"`
	SlotStart time.Time `db:"slot_start" json:"slot_start"`
	SlotEnd   time.Time `db:"slot_end" json:"slot_end"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Reserved  int       `db:"reserved" json:"reserved"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Available returns the number of free connectors in the window.
func (s *SlotInventory) Available() int {
	free := s.Capacity - s.Reserved
	if free < 0 {
		return 0
	}
	return free
}

// Full reports whether the slot has no free connectors left.
func (s *SlotInventory) Full() bool {
	return s.Available() == 0
}
