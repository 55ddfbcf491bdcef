package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chargeslot/internal/models"
	"chargeslot/internal/service"
)

const stationPageSize = 50

// Regenerator keeps future slot inventory materialized ahead of demand. One
// pass walks every active station, regenerates its horizon and optionally
// heals each day toward the freshly resolved capacity. A failure on one
// station never aborts the pass for the others.
type Regenerator struct {
	stations    service.StationProvider
	inventory   *service.InventoryService
	horizonDays int
	heal        bool
	logger      *zap.Logger
}

// NewRegenerator builds the regeneration pass.
func NewRegenerator(stations service.StationProvider, inventory *service.InventoryService, horizonDays int, heal bool, logger *zap.Logger) *Regenerator {
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &Regenerator{
		stations:    stations,
		inventory:   inventory,
		horizonDays: horizonDays,
		heal:        heal,
		logger:      logger,
	}
}

// RunPass regenerates inventory for every active station, paginated.
func (r *Regenerator) RunPass(ctx context.Context) {
	afterID := ""
	for {
		stations, err := r.stations.ListActive(ctx, afterID, stationPageSize)
		if err != nil {
			r.logger.Error("failed to list stations for regeneration", zap.Error(err))
			return
		}
		if len(stations) == 0 {
			return
		}
		for i := range stations {
			station := &stations[i]
			if err := r.processStation(ctx, station); err != nil {
				r.logger.Warn("station regeneration failed",
					zap.String("station_id", station.ID), zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
		if len(stations) < stationPageSize {
			return
		}
		afterID = stations[len(stations)-1].ID
	}
}

func (r *Regenerator) processStation(ctx context.Context, station *models.Station) error {
	loc, err := station.Location()
	if err != nil {
		return err
	}
	localNow := time.Now().In(loc)
	y, m, d := localNow.Date()
	localToday := time.Date(y, m, d, 0, 0, 0, 0, loc)

	touched, err := r.inventory.RegenerateForStation(ctx, station, localToday, r.horizonDays)
	if err != nil {
		return err
	}
	r.logger.Debug("regenerated station inventory",
		zap.String("station_id", station.ID), zap.Int("slots", touched))

	if !r.heal {
		return nil
	}
	for day := 0; day < r.horizonDays; day++ {
		localDate := localToday.AddDate(0, 0, day)
		target := station.Schedule.EffectiveCapacity(localDate.Format("2006-01-02"), station.Connectors)
		if _, err := r.inventory.HealDayCapacities(ctx, station, localDate, target); err != nil {
			return err
		}
	}
	return nil
}
