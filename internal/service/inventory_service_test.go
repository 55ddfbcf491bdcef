package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargeslot/internal/faults"
	"chargeslot/internal/models"
	"chargeslot/internal/repository"
)

type ensuredSlot struct {
	stationID string
	start     time.Time
	end       time.Time
	capacity  int
}

type healedRange struct {
	stationID string
	from      time.Time
	to        time.Time
	target    int
}

// fakeSlotStore records every materialization and heal call.
type fakeSlotStore struct {
	mu      sync.Mutex
	ensured []ensuredSlot
	healed  []healedRange
}

func (f *fakeSlotStore) EnsureSlot(_ context.Context, stationID string, slotStart, slotEnd time.Time, capacity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.ensured {
		if s.stationID == stationID && s.start.Equal(slotStart) {
			return false, nil
		}
	}
	f.ensured = append(f.ensured, ensuredSlot{stationID: stationID, start: slotStart, end: slotEnd, capacity: capacity})
	return true, nil
}

func (f *fakeSlotStore) TryReserve(context.Context, string, time.Time) (bool, error) { return true, nil }

func (f *fakeSlotStore) Release(context.Context, string, time.Time) error { return nil }

func (f *fakeSlotStore) HealRange(_ context.Context, stationID string, from, to time.Time, target int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healed = append(f.healed, healedRange{stationID: stationID, from: from, to: to, target: target})
	return 1, nil
}

func (f *fakeSlotStore) GetSlot(_ context.Context, stationID string, slotStart time.Time) (*models.SlotInventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.ensured {
		if s.stationID == stationID && s.start.Equal(slotStart) {
			return &models.SlotInventory{
				StationID: s.stationID,
				SlotStart: s.start,
				SlotEnd:   s.end,
				Capacity:  s.capacity,
			}, nil
		}
	}
	return nil, repository.ErrSlotNotFound
}

func berlinStation() *models.Station {
	return &models.Station{
		ID:                 "st-berlin",
		Status:             models.StationStatusActive,
		Connectors:         4,
		DefaultSlotMinutes: 60,
		Timezone:           "Europe/Berlin",
		Schedule: models.Schedule{
			Weekly: map[string][]models.TimeRange{
				"mon": {{Start: "08:00", End: "12:00"}},
				"tue": {{Start: "08:00", End: "10:00"}, {Start: "14:00", End: "16:00"}},
			},
		},
	}
}

func TestRegenerateForStation(t *testing.T) {
	station := berlinStation()
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	// Monday 2024-05-06 and Tuesday 2024-05-07.
	from := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	touched, err := svc.RegenerateForStation(context.Background(), station, from, 2)
	require.NoError(t, err)

	// Monday 08-12 yields 4 hourly windows, Tuesday 2+2.
	assert.Equal(t, 8, touched)
	require.Len(t, store.ensured, 8)

	first := store.ensured[0]
	assert.Equal(t, station.ID, first.stationID)
	// 08:00 CEST is 06:00 UTC.
	assert.Equal(t, time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC), first.start)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC), first.end)
	assert.Equal(t, 4, first.capacity)
	assert.Equal(t, time.UTC, first.start.Location())
}

func TestRegenerateIsIdempotent(t *testing.T) {
	station := berlinStation()
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	from := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	_, err = svc.RegenerateForStation(context.Background(), station, from, 2)
	require.NoError(t, err)
	_, err = svc.RegenerateForStation(context.Background(), station, from, 2)
	require.NoError(t, err)

	assert.Len(t, store.ensured, 8)
}

func TestRegenerateExceptionDay(t *testing.T) {
	station := berlinStation()
	station.Schedule.ExceptionDates = []string{"2024-05-06"}
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	from := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	_, err = svc.RegenerateForStation(context.Background(), station, from, 1)
	require.NoError(t, err)

	// Rows still materialize on a closed day, just with zero capacity.
	require.Len(t, store.ensured, 4)
	for _, s := range store.ensured {
		assert.Zero(t, s.capacity)
	}
}

func TestRegenerateCapacityOverride(t *testing.T) {
	station := berlinStation()
	station.Schedule.CapacityOverrides = map[string]int{"2024-05-07": 2}
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	from := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	_, err = svc.RegenerateForStation(context.Background(), station, from, 2)
	require.NoError(t, err)

	byDay := map[int][]int{}
	for _, s := range store.ensured {
		byDay[s.start.Day()] = append(byDay[s.start.Day()], s.capacity)
	}
	for _, c := range byDay[6] {
		assert.Equal(t, 4, c)
	}
	for _, c := range byDay[7] {
		assert.Equal(t, 2, c)
	}
}

func TestRegenerateSkipsPartialTrailingWindow(t *testing.T) {
	station := berlinStation()
	station.Schedule.Weekly = map[string][]models.TimeRange{
		"mon": {{Start: "08:00", End: "09:30"}},
	}
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	from := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	touched, err := svc.RegenerateForStation(context.Background(), station, from, 1)
	require.NoError(t, err)

	// Only 08:00-09:00 fits; the half window at 09:00 is dropped.
	assert.Equal(t, 1, touched)
}

func TestSlotStatus(t *testing.T) {
	station := berlinStation()
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	from := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	_, err = svc.RegenerateForStation(context.Background(), station, from, 1)
	require.NoError(t, err)

	slot, err := svc.SlotStatus(context.Background(), station.ID, time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 4, slot.Available())
	assert.False(t, slot.Full())

	_, err = svc.SlotStatus(context.Background(), station.ID, time.Date(2024, 5, 6, 23, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, "SlotNotFound", faults.CodeOf(err))
}

func TestHealDayCapacities(t *testing.T) {
	station := berlinStation()
	store := &fakeSlotStore{}
	svc := NewInventoryService(store, zap.NewNop())
	loc, err := station.Location()
	require.NoError(t, err)

	day := time.Date(2024, 5, 6, 15, 30, 0, 0, loc)
	adjusted, err := svc.HealDayCapacities(context.Background(), station, day, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), adjusted)

	require.Len(t, store.healed, 1)
	h := store.healed[0]
	assert.Equal(t, 6, h.target)
	// Local midnight to next local midnight, expressed in UTC.
	assert.Equal(t, time.Date(2024, 5, 5, 22, 0, 0, 0, time.UTC), h.from)
	assert.Equal(t, time.Date(2024, 5, 6, 22, 0, 0, 0, time.UTC), h.to)
}
