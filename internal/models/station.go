package models

import "time"

// Station status values.
const (
	StationStatusActive   = "active"
	StationStatusInactive = "inactive"
)

// Station describes a charging station as supplied by the station-management
// collaborator. The booking engine only reads it.
type Station struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Status             string    `db:"status" json:"status"`
	Connectors         int       `db:"connectors" json:"connectors"`
	DefaultSlotMinutes int       `db:"default_slot_minutes" json:"default_slot_minutes"`
	Timezone           string    `db:"timezone" json:"timezone"`
	Schedule           Schedule  `db:"schedule" json:"schedule"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Active reports whether the station accepts bookings.
func (s *Station) Active() bool {
	return s.Status == StationStatusActive
}

// Location resolves the station's configured IANA time zone.
func (s *Station) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}
