package worker

import (
	"context"

	"go.uber.org/zap"

	"chargeslot/internal/service"
)

// Sweeper reconciles missed check-ins: approved bookings past their grace
// window become no-shows and undecided pending bookings past the same instant
// expire, each releasing its held ledger unit.
type Sweeper struct {
	bookings *service.BookingService
	pageSize int
	logger   *zap.Logger
}

// NewSweeper builds the sweep pass.
func NewSweeper(bookings *service.BookingService, pageSize int, logger *zap.Logger) *Sweeper {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Sweeper{bookings: bookings, pageSize: pageSize, logger: logger}
}

// RunPass executes one sweep.
func (s *Sweeper) RunPass(ctx context.Context) {
	swept, err := s.bookings.SweepNoShows(ctx, s.pageSize)
	if err != nil {
		s.logger.Error("no-show sweep failed", zap.Error(err))
	} else if swept > 0 {
		s.logger.Info("swept no-show bookings", zap.Int("count", swept))
	}

	expired, err := s.bookings.ExpireStalePending(ctx, s.pageSize)
	if err != nil {
		s.logger.Error("pending expiry sweep failed", zap.Error(err))
	} else if expired > 0 {
		s.logger.Info("expired stale pending bookings", zap.Int("count", expired))
	}
}
