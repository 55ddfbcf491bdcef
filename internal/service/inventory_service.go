package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chargeslot/internal/faults"
	"chargeslot/internal/models"
	"chargeslot/internal/repository"
)

const minSlotMinutes = 15

// InventoryService is the slot inventory ledger: atomic reserve/release plus
// the regeneration and healing passes that keep future slots materialized.
type InventoryService struct {
	slots  SlotStore
	logger *zap.Logger
}

// NewInventoryService builds the ledger over its persistence.
func NewInventoryService(slots SlotStore, logger *zap.Logger) *InventoryService {
	return &InventoryService{slots: slots, logger: logger}
}

// Reserve atomically takes one unit of capacity, returning false when the
// slot is full or missing.
func (s *InventoryService) Reserve(ctx context.Context, stationID string, slotStart time.Time) (bool, error) {
	return s.slots.TryReserve(ctx, stationID, slotStart)
}

// Release returns one unit of capacity, floored at zero.
func (s *InventoryService) Release(ctx context.Context, stationID string, slotStart time.Time) error {
	return s.slots.Release(ctx, stationID, slotStart)
}

// SlotStatus returns the ledger row for one window. Readers use
// SlotInventory.Available and Full on the result; the counters are a snapshot
// and only TryReserve decides admission.
func (s *InventoryService) SlotStatus(ctx context.Context, stationID string, slotStart time.Time) (*models.SlotInventory, error) {
	slot, err := s.slots.GetSlot(ctx, stationID, slotStart)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return nil, faults.New(faults.NotFound, "SlotNotFound", "no inventory exists for the requested window")
		}
		return nil, err
	}
	return slot, nil
}

// RegenerateForStation materializes ledger rows for the next horizonDays local
// calendar days from the station's weekly schedule, exceptions and capacity
// overrides. fromLocalDate must be a station-local midnight. Returns the
// number of windows visited. Exception days still produce capacity-0 rows so
// a later un-closing heals upward instead of recreating rows.
func (s *InventoryService) RegenerateForStation(ctx context.Context, station *models.Station, fromLocalDate time.Time, horizonDays int) (int, error) {
	loc, err := station.Location()
	if err != nil {
		return 0, fmt.Errorf("station %s: load timezone %q: %w", station.ID, station.Timezone, err)
	}

	slotMinutes := station.DefaultSlotMinutes
	if slotMinutes < minSlotMinutes {
		slotMinutes = minSlotMinutes
	}
	slotLen := time.Duration(slotMinutes) * time.Minute

	touched := 0
	for d := 0; d < horizonDays; d++ {
		day := fromLocalDate.AddDate(0, 0, d)
		dateKey := day.Format("2006-01-02")
		capacity := station.Schedule.EffectiveCapacity(dateKey, station.Connectors)

		for _, window := range station.Schedule.RangesFor(day.Weekday()) {
			open, err := localClock(day, window.Start, loc)
			if err != nil {
				return touched, fmt.Errorf("station %s: schedule range start %q: %w", station.ID, window.Start, err)
			}
			close, err := localClock(day, window.End, loc)
			if err != nil {
				return touched, fmt.Errorf("station %s: schedule range end %q: %w", station.ID, window.End, err)
			}

			for start := open; !start.Add(slotLen).After(close); start = start.Add(slotLen) {
				end := start.Add(slotLen)
				if _, err := s.slots.EnsureSlot(ctx, station.ID, start.UTC(), end.UTC(), capacity); err != nil {
					return touched, err
				}
				touched++
			}
		}
	}
	return touched, nil
}

// HealDayCapacities raises capacity toward the resolved target for every
// existing row on one station-local day, never below committed reservations.
// Returns the number of rows adjusted.
func (s *InventoryService) HealDayCapacities(ctx context.Context, station *models.Station, localDate time.Time, targetCapacity int) (int64, error) {
	loc, err := station.Location()
	if err != nil {
		return 0, fmt.Errorf("station %s: load timezone %q: %w", station.ID, station.Timezone, err)
	}

	y, m, d := localDate.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	adjusted, err := s.slots.HealRange(ctx, station.ID, dayStart.UTC(), dayEnd.UTC(), targetCapacity)
	if err != nil {
		return 0, err
	}
	if adjusted > 0 {
		s.logger.Info("healed slot capacities",
			zap.String("station_id", station.ID),
			zap.String("date", dayStart.Format("2006-01-02")),
			zap.Int("target", targetCapacity),
			zap.Int64("rows", adjusted),
		)
	}
	return adjusted, nil
}

// localClock anchors a "15:04" wall-clock value to the given local day.
func localClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}
