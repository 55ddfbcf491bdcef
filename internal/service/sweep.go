package service

import (
	"context"

	"go.uber.org/zap"

	"chargeslot/internal/models"
)

// SweepNoShows forces approved bookings whose check-in window has fully
// passed into no_show and releases their ledger units. Each booking is its
// own unit of work: a failure is logged and the sweep continues. Returns the
// number of bookings transitioned.
func (s *BookingService) SweepNoShows(ctx context.Context, pageSize int) (int, error) {
	now := s.now()
	candidates, err := s.bookings.ListStatusStartedBefore(ctx, models.BookingStatusApproved, now, pageSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range candidates {
		booking := &candidates[i]
		if !s.rules.IsNoShowEligible(booking, now) {
			continue
		}
		ok, err := s.bookings.MarkNoShow(ctx, booking.ID, now)
		if err != nil {
			s.logger.Warn("no-show transition failed", zap.String("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if !ok {
			// Lost the race against a concurrent check-in or cancel.
			continue
		}
		booking.Status = models.BookingStatusNoShow
		s.releaseSlot(ctx, booking)
		s.emit(ctx, booking, "booking.no_show", 0, "system", nil)
		s.push(ctx, booking, "booking_no_show", "Booking missed",
			"Booking "+booking.Code+" was marked as a no-show.")
		swept++
	}
	return swept, nil
}

// ExpireStalePending expires pending bookings that were never decided before
// their check-in window closed, releasing their ledger units. Returns the
// number of bookings expired.
func (s *BookingService) ExpireStalePending(ctx context.Context, pageSize int) (int, error) {
	now := s.now()
	candidates, err := s.bookings.ListStatusStartedBefore(ctx, models.BookingStatusPending, now, pageSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		booking := &candidates[i]
		if now.Before(s.rules.LatestCheckInInstant(booking.SlotStart, booking.DurationMinutes)) {
			continue
		}
		ok, err := s.bookings.MarkExpired(ctx, booking.ID, now)
		if err != nil {
			s.logger.Warn("expire transition failed", zap.String("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		booking.Status = models.BookingStatusExpired
		s.releaseSlot(ctx, booking)
		s.emit(ctx, booking, "booking.expired", 0, "system", nil)
		expired++
	}
	return expired, nil
}
