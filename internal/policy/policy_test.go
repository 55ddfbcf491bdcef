package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargeslot/internal/faults"
	"chargeslot/internal/models"
)

var testRules = Rules{
	MaxHorizonDays:         14,
	ModifyLockHours:        2,
	EarliestCheckInMinutes: 15,
	GraceMinutes:           15,
}

func TestCheckBookingHorizon(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	now := time.Date(2024, 5, 10, 9, 30, 0, 0, loc)

	t.Run("past start rejected", func(t *testing.T) {
		err := testRules.CheckBookingHorizon(now, now.Add(-time.Minute))
		require.Error(t, err)
		assert.Equal(t, CodePastDate, faults.CodeOf(err))
	})

	t.Run("same day accepted", func(t *testing.T) {
		assert.NoError(t, testRules.CheckBookingHorizon(now, now.Add(2*time.Hour)))
	})

	t.Run("boundary day at local midnight accepted", func(t *testing.T) {
		boundary := time.Date(2024, 5, 24, 0, 0, 0, 0, loc) // exactly 14 days ahead
		assert.NoError(t, testRules.CheckBookingHorizon(now, boundary))
	})

	t.Run("one day past boundary rejected", func(t *testing.T) {
		tooFar := time.Date(2024, 5, 25, 0, 0, 0, 0, loc)
		err := testRules.CheckBookingHorizon(now, tooFar)
		require.Error(t, err)
		assert.Equal(t, CodeTooFar, faults.CodeOf(err))
	})
}

func TestCheckOwnerCancelAllowed(t *testing.T) {
	slotStart := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)

	t.Run("before lock window", func(t *testing.T) {
		now := slotStart.Add(-3 * time.Hour)
		assert.NoError(t, testRules.CheckOwnerCancelAllowed(now, slotStart))
	})

	t.Run("exactly at lock boundary rejected", func(t *testing.T) {
		now := slotStart.Add(-2 * time.Hour)
		err := testRules.CheckOwnerCancelAllowed(now, slotStart)
		require.Error(t, err)
		assert.Equal(t, CodeLockWindow, faults.CodeOf(err))
	})

	t.Run("inside lock window rejected", func(t *testing.T) {
		err := testRules.CheckOwnerCancelAllowed(slotStart.Add(-30*time.Minute), slotStart)
		require.Error(t, err)
		assert.Equal(t, CodeLockWindow, faults.CodeOf(err))
	})
}

func TestCheckCheckInWindow(t *testing.T) {
	slotStart := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	const duration = 60

	cases := []struct {
		name     string
		now      time.Time
		wantCode string
	}{
		{"too early", slotStart.Add(-16 * time.Minute), CodeTooEarly},
		{"window opens", slotStart.Add(-15 * time.Minute), ""},
		{"during slot", slotStart.Add(30 * time.Minute), ""},
		{"inside grace", slotStart.Add(74 * time.Minute), ""},
		{"grace boundary", slotStart.Add(75 * time.Minute), ""},
		{"after grace", slotStart.Add(76 * time.Minute), CodeTooLate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := testRules.CheckCheckInWindow(tc.now, slotStart, duration)
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, faults.CodeOf(err))
		})
	}
}

func TestLatestCheckInInstant(t *testing.T) {
	slotStart := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	got := testRules.LatestCheckInInstant(slotStart, 60)
	assert.Equal(t, slotStart.Add(75*time.Minute), got)
}

func TestIsNoShowEligible(t *testing.T) {
	slotStart := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	booking := func(status models.BookingStatus) *models.Booking {
		return &models.Booking{Status: status, SlotStart: slotStart, DurationMinutes: 60}
	}
	deadline := slotStart.Add(75 * time.Minute)

	assert.False(t, testRules.IsNoShowEligible(booking(models.BookingStatusApproved), deadline.Add(-time.Minute)))
	assert.True(t, testRules.IsNoShowEligible(booking(models.BookingStatusApproved), deadline))
	assert.True(t, testRules.IsNoShowEligible(booking(models.BookingStatusApproved), deadline.Add(time.Minute)))

	for _, status := range []models.BookingStatus{
		models.BookingStatusPending,
		models.BookingStatusCheckedIn,
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
		models.BookingStatusRejected,
		models.BookingStatusNoShow,
		models.BookingStatusExpired,
	} {
		assert.False(t, testRules.IsNoShowEligible(booking(status), deadline.Add(time.Hour)), string(status))
	}
	assert.False(t, testRules.IsNoShowEligible(nil, deadline.Add(time.Hour)))
}
