package service

import (
	"context"
	"sync"
	"time"

	"chargeslot/internal/models"
	"chargeslot/internal/notify"
	"chargeslot/internal/repository"
)

func slotKey(stationID string, slotStart time.Time) string {
	return stationID + "|" + slotStart.UTC().Format(time.RFC3339)
}

type fakeSlot struct {
	capacity int
	reserved int
}

// fakeLedger mirrors the conditional-update semantics of the SQL ledger.
type fakeLedger struct {
	mu    sync.Mutex
	slots map[string]*fakeSlot
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{slots: make(map[string]*fakeSlot)}
}

func (l *fakeLedger) add(stationID string, slotStart time.Time, capacity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[slotKey(stationID, slotStart)] = &fakeSlot{capacity: capacity}
}

func (l *fakeLedger) reserved(stationID string, slotStart time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[slotKey(stationID, slotStart)]; ok {
		return s.reserved
	}
	return 0
}

func (l *fakeLedger) Reserve(_ context.Context, stationID string, slotStart time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[slotKey(stationID, slotStart)]
	if !ok || slot.reserved >= slot.capacity {
		return false, nil
	}
	slot.reserved++
	return true, nil
}

func (l *fakeLedger) Release(_ context.Context, stationID string, slotStart time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slot, ok := l.slots[slotKey(stationID, slotStart)]; ok && slot.reserved > 0 {
		slot.reserved--
	}
	return nil
}

// fakeBookingStore mirrors the compare-and-swap transition semantics of the
// SQL booking repository.
type fakeBookingStore struct {
	mu   sync.Mutex
	byID map[string]*models.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{byID: make(map[string]*models.Booking)}
}

func (s *fakeBookingStore) Create(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *b
	s.byID[b.ID] = &clone
	return nil
}

func (s *fakeBookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *fakeBookingStore) GetByQRHash(_ context.Context, hash string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.byID {
		if b.QRTokenHash == hash && hash != "" {
			clone := *b
			return &clone, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (s *fakeBookingStore) MarkApproved(_ context.Context, id, qrHash string, qrExpiry time.Time, actorID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok || b.Status != models.BookingStatusPending {
		return false, nil
	}
	expiry := qrExpiry
	b.Status = models.BookingStatusApproved
	b.QRTokenHash = qrHash
	b.QRExpiresAt = &expiry
	b.ApprovedAt = &now
	b.ApprovedBy = &actorID
	b.UpdatedAt = now
	return true, nil
}

func (s *fakeBookingStore) ReplaceQR(_ context.Context, id, qrHash string, qrExpiry, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok || b.Status != models.BookingStatusApproved {
		return false, nil
	}
	expiry := qrExpiry
	b.QRTokenHash = qrHash
	b.QRExpiresAt = &expiry
	b.UpdatedAt = now
	return true, nil
}

func (s *fakeBookingStore) MarkRejected(_ context.Context, id string, actorID int64, reason string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok || b.Status != models.BookingStatusPending {
		return false, nil
	}
	b.Status = models.BookingStatusRejected
	if reason != "" {
		b.Notes = reason
	}
	b.RejectedAt = &now
	b.RejectedBy = &actorID
	b.UpdatedAt = now
	return true, nil
}

func (s *fakeBookingStore) MarkCancelled(_ context.Context, id string, from models.BookingStatus, actorID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &now
	b.CancelledBy = &actorID
	b.UpdatedAt = now
	return true, nil
}

func (s *fakeBookingStore) cas(id string, from, to models.BookingStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = now
	return true, nil
}

func (s *fakeBookingStore) MarkCheckedIn(_ context.Context, id string, now time.Time) (bool, error) {
	return s.cas(id, models.BookingStatusApproved, models.BookingStatusCheckedIn, now)
}

func (s *fakeBookingStore) MarkCompleted(_ context.Context, id string, now time.Time) (bool, error) {
	return s.cas(id, models.BookingStatusCheckedIn, models.BookingStatusCompleted, now)
}

func (s *fakeBookingStore) MarkAborted(_ context.Context, id string, now time.Time) (bool, error) {
	return s.cas(id, models.BookingStatusCheckedIn, models.BookingStatusAborted, now)
}

func (s *fakeBookingStore) MarkNoShow(_ context.Context, id string, now time.Time) (bool, error) {
	return s.cas(id, models.BookingStatusApproved, models.BookingStatusNoShow, now)
}

func (s *fakeBookingStore) MarkExpired(_ context.Context, id string, now time.Time) (bool, error) {
	return s.cas(id, models.BookingStatusPending, models.BookingStatusExpired, now)
}

func (s *fakeBookingStore) ListByOwner(_ context.Context, ownerID int64, limit int) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.byID {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) ListStatusStartedBefore(_ context.Context, status models.BookingStatus, before time.Time, limit int) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.byID {
		if b.Status == status && b.SlotStart.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

// fakeSessionStore mirrors the finalize-once semantics of the SQL session
// repository.
type fakeSessionStore struct {
	mu        sync.Mutex
	byBooking map[string]*models.ChargingSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byBooking: make(map[string]*models.ChargingSession)}
}

func (s *fakeSessionStore) Create(_ context.Context, sess *models.ChargingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sess
	s.byBooking[sess.BookingID] = &clone
	return nil
}

func (s *fakeSessionStore) GetByBookingID(_ context.Context, bookingID string) (*models.ChargingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byBooking[bookingID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *fakeSessionStore) Finalize(_ context.Context, bookingID string, completedAt time.Time, energyKWh, unitPrice, total float64, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byBooking[bookingID]
	if !ok || sess.CompletedAt != nil {
		return false, nil
	}
	done := completedAt
	sess.CompletedAt = &done
	sess.EnergyKWh = energyKWh
	sess.UnitPrice = unitPrice
	sess.Total = total
	sess.Status = models.SessionStatusCompleted
	if notes != "" {
		sess.Notes = notes
	}
	return true, nil
}

func (s *fakeSessionStore) Abort(_ context.Context, bookingID string, abortedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byBooking[bookingID]
	if !ok || sess.CompletedAt != nil {
		return false, nil
	}
	done := abortedAt
	sess.CompletedAt = &done
	sess.Status = models.SessionStatusAborted
	return true, nil
}

type fakeStationProvider struct {
	byID map[string]*models.Station
}

func (p *fakeStationProvider) GetByID(_ context.Context, id string) (*models.Station, error) {
	st, ok := p.byID[id]
	if !ok {
		return nil, repository.ErrStationNotFound
	}
	clone := *st
	return &clone, nil
}

func (p *fakeStationProvider) ListActive(_ context.Context, afterID string, limit int) ([]models.Station, error) {
	var out []models.Station
	for _, st := range p.byID {
		if st.Active() && st.ID > afterID {
			out = append(out, *st)
		}
	}
	return out, nil
}

type sentNotification struct {
	n notify.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Enqueue(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{n: n})
	return nil
}
