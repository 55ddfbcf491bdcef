// Package policy encodes every time-window business rule of the booking
// lifecycle as pure, side-effect-free predicates. Comparisons against a
// station's notion of "today" must be fed station-local times; comparisons
// against absolute slot instants take UTC.
package policy

import (
	"time"

	"chargeslot/internal/faults"
	"chargeslot/internal/models"
)

// Violation codes.
const (
	CodePastDate   = "PastDate"
	CodeTooFar     = "TooFar"
	CodeLockWindow = "LockWindow"
	CodeTooEarly   = "TooEarly"
	CodeTooLate    = "TooLate"
)

// Rules holds the configured time-window knobs.
type Rules struct {
	MaxHorizonDays         int
	ModifyLockHours        int
	EarliestCheckInMinutes int
	GraceMinutes           int
}

// CheckBookingHorizon validates a requested slot start against the booking
// horizon. Both arguments must be in the station's local zone. The boundary
// day (exactly MaxHorizonDays ahead) is accepted.
func (r Rules) CheckBookingHorizon(localNow, requestedLocalStart time.Time) error {
	if requestedLocalStart.Before(localNow) {
		return faults.New(faults.Policy, CodePastDate, "requested slot start is in the past")
	}
	if daysBetween(localNow, requestedLocalStart) > r.MaxHorizonDays {
		return faults.Newf(faults.Policy, CodeTooFar, "requested slot start exceeds the %d-day booking horizon", r.MaxHorizonDays)
	}
	return nil
}

// CheckOwnerModifyAllowed rejects owner-initiated modification once the lock
// window before slot start has opened.
func (r Rules) CheckOwnerModifyAllowed(now, slotStart time.Time) error {
	return r.checkLockWindow(now, slotStart)
}

// CheckOwnerCancelAllowed rejects owner-initiated cancellation once the lock
// window before slot start has opened.
func (r Rules) CheckOwnerCancelAllowed(now, slotStart time.Time) error {
	return r.checkLockWindow(now, slotStart)
}

func (r Rules) checkLockWindow(now, slotStart time.Time) error {
	lockFrom := slotStart.Add(-time.Duration(r.ModifyLockHours) * time.Hour)
	if !now.Before(lockFrom) {
		return faults.Newf(faults.Policy, CodeLockWindow, "booking is locked within %dh of slot start", r.ModifyLockHours)
	}
	return nil
}

// CheckEarliestCheckIn rejects a check-in attempted before the window opens.
func (r Rules) CheckEarliestCheckIn(now, slotStart time.Time) error {
	opensAt := slotStart.Add(-time.Duration(r.EarliestCheckInMinutes) * time.Minute)
	if now.Before(opensAt) {
		return faults.Newf(faults.Policy, CodeTooEarly, "check-in opens %dm before slot start", r.EarliestCheckInMinutes)
	}
	return nil
}

// CheckLatestCheckIn rejects a check-in attempted after the grace window closed.
func (r Rules) CheckLatestCheckIn(now, slotStart time.Time, durationMinutes int) error {
	if now.After(r.LatestCheckInInstant(slotStart, durationMinutes)) {
		return faults.Newf(faults.Policy, CodeTooLate, "check-in window closed %dm after slot end", r.GraceMinutes)
	}
	return nil
}

// CheckCheckInWindow combines the earliest and latest check-in rules.
func (r Rules) CheckCheckInWindow(now, slotStart time.Time, durationMinutes int) error {
	if err := r.CheckEarliestCheckIn(now, slotStart); err != nil {
		return err
	}
	return r.CheckLatestCheckIn(now, slotStart, durationMinutes)
}

// LatestCheckInInstant derives slotStart + duration + grace, the last instant
// at which a check-in is still accepted.
func (r Rules) LatestCheckInInstant(slotStart time.Time, durationMinutes int) time.Time {
	return slotStart.
		Add(time.Duration(durationMinutes) * time.Minute).
		Add(time.Duration(r.GraceMinutes) * time.Minute)
}

// IsNoShowEligible reports whether an approved booking has missed its check-in
// window. False for every other status regardless of time.
func (r Rules) IsNoShowEligible(booking *models.Booking, now time.Time) bool {
	if booking == nil || booking.Status != models.BookingStatusApproved {
		return false
	}
	return !now.Before(r.LatestCheckInInstant(booking.SlotStart, booking.DurationMinutes))
}

// daysBetween counts whole calendar days from a to b in their own location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}
