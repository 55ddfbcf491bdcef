package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"chargeslot/internal/models"
)

// ErrStationNotFound indicates an unknown station id.
var ErrStationNotFound = errors.New("station not found")

// StationRepository reads station metadata and schedules supplied by the
// station-management collaborator. The engine never writes here.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `
	id, name, status, connectors, default_slot_minutes, timezone, schedule, created_at, updated_at
`

// GetByID returns one station, or ErrStationNotFound.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	station, err := scanStation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return station, nil
}

// ListActive pages through active stations ordered by id. Pass the last seen
// id as afterID to fetch the next page; "" starts from the beginning.
func (r *StationRepository) ListActive(ctx context.Context, afterID string, limit int) ([]models.Station, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE status = $1 AND id > $2
		ORDER BY id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, models.StationStatusActive, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *station)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

func scanStation(row rowScanner) (*models.Station, error) {
	var (
		s        models.Station
		schedule []byte
	)
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Status,
		&s.Connectors,
		&s.DefaultSlotMinutes,
		&s.Timezone,
		&schedule,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &s.Schedule); err != nil {
			return nil, fmt.Errorf("station %s: decode schedule: %w", s.ID, err)
		}
	}
	return &s, nil
}
