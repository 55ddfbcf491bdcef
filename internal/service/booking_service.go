package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chargeslot/internal/faults"
	"chargeslot/internal/models"
	"chargeslot/internal/notify"
	"chargeslot/internal/policy"
	"chargeslot/internal/qr"
	"chargeslot/internal/repository"
)

// Actor roles accepted on mutating operations.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// BookingService drives the booking state machine. Every capacity-mutating
// transition pairs with exactly one ledger reserve or release; audit and
// notification emission is best-effort and never rolls back a committed
// transition.
type BookingService struct {
	stations StationProvider
	bookings BookingStore
	sessions SessionStore
	ledger   Ledger
	tokens   *qr.Service
	audit    AuditSink
	notifier Notifier
	rules    policy.Rules
	logger   *zap.Logger

	now func() time.Time
}

// NewBookingService builds the orchestrator.
func NewBookingService(
	stations StationProvider,
	bookings BookingStore,
	sessions SessionStore,
	ledger Ledger,
	tokens *qr.Service,
	audit AuditSink,
	notifier Notifier,
	rules policy.Rules,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		stations: stations,
		bookings: bookings,
		sessions: sessions,
		ledger:   ledger,
		tokens:   tokens,
		audit:    audit,
		notifier: notifier,
		rules:    rules,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBookingInput is the owner-facing reservation request. Date and start
// time are station-local wall-clock values.
type CreateBookingInput struct {
	OwnerID         int64
	StationID       string
	LocalDate       string // "2006-01-02"
	LocalStartTime  string // "15:04"
	DurationMinutes int
	Notes           string
}

// CreateBooking reserves one slot unit and persists a pending booking. On a
// full slot the call fails with a capacity conflict and performs no writes.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if input.OwnerID == 0 {
		return nil, faults.New(faults.Validation, "OwnerRequired", "owner id is required")
	}
	if strings.TrimSpace(input.StationID) == "" {
		return nil, faults.New(faults.Validation, "StationRequired", "station id is required")
	}

	station, err := s.stations.GetByID(ctx, input.StationID)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			return nil, faults.New(faults.NotFound, "StationNotFound", "unknown station")
		}
		return nil, err
	}
	if !station.Active() {
		return nil, faults.New(faults.Validation, "StationInactive", "station is not accepting bookings")
	}
	if input.DurationMinutes != station.DefaultSlotMinutes {
		return nil, faults.Newf(faults.Validation, "DurationMismatch", "slot duration must be %dm for this station", station.DefaultSlotMinutes)
	}

	loc, err := station.Location()
	if err != nil {
		return nil, faults.Newf(faults.Validation, "BadTimezone", "station has unusable timezone %q", station.Timezone)
	}
	localStart, err := time.ParseInLocation("2006-01-02 15:04", input.LocalDate+" "+input.LocalStartTime, loc)
	if err != nil {
		return nil, faults.New(faults.Validation, "BadSlotTime", "slot date/time must be YYYY-MM-DD and HH:MM")
	}

	now := s.now()
	if err := s.rules.CheckBookingHorizon(now.In(loc), localStart); err != nil {
		return nil, err
	}

	slotStart := localStart.UTC()
	slotEnd := slotStart.Add(time.Duration(input.DurationMinutes) * time.Minute)

	reserved, err := s.ledger.Reserve(ctx, station.ID, slotStart)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, faults.New(faults.Capacity, "SlotFull", "no capacity left for the requested slot")
	}

	booking := &models.Booking{
		ID:              uuid.NewString(),
		Code:            newBookingCode(),
		OwnerID:         input.OwnerID,
		StationID:       station.ID,
		SlotStart:       slotStart,
		SlotEnd:         slotEnd,
		SlotLocalDate:   input.LocalDate,
		SlotLocalTime:   input.LocalStartTime,
		DurationMinutes: input.DurationMinutes,
		Status:          models.BookingStatusPending,
		Notes:           input.Notes,
		CreatedAt:       now,
		CreatedBy:       input.OwnerID,
		UpdatedAt:       now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		// Reservation is already committed; undo it so the slot self-corrects
		// immediately instead of waiting for the next heal pass.
		if relErr := s.ledger.Release(ctx, station.ID, slotStart); relErr != nil {
			s.logger.Warn("failed to release slot after booking insert failure",
				zap.String("station_id", station.ID), zap.Error(relErr))
		}
		return nil, err
	}

	s.emit(ctx, booking, "booking.created", input.OwnerID, RoleOwner, map[string]interface{}{
		"slot_start": slotStart,
		"code":       booking.Code,
	})
	s.push(ctx, booking, "booking_created", "Booking received",
		"Your charging slot request "+booking.Code+" is awaiting approval.")
	return booking, nil
}

// ApprovalResult carries the one-time live QR token next to the booking.
type ApprovalResult struct {
	Booking  *models.Booking
	QRToken  string
	QRExpiry time.Time
}

// ApproveBooking transitions pending -> approved and mints the single-use
// check-in token. The live token is returned exactly once.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID string, actorID int64) (*ApprovalResult, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, faults.New(faults.StateConflict, "NotPending", "only pending bookings can be approved")
	}

	now := s.now()
	expiry := s.rules.LatestCheckInInstant(booking.SlotStart, booking.DurationMinutes)
	token, hash, err := s.tokens.Issue(booking.ID, booking.StationID, booking.SlotStart, expiry)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookings.MarkApproved(ctx, booking.ID, hash, expiry, actorID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}

	booking.Status = models.BookingStatusApproved
	booking.QRTokenHash = hash
	booking.QRExpiresAt = &expiry
	booking.ApprovedAt = &now
	booking.ApprovedBy = &actorID

	s.emit(ctx, booking, "booking.approved", actorID, RoleStaff, map[string]interface{}{"qr_expiry": expiry})
	s.push(ctx, booking, "booking_approved", "Booking approved",
		"Booking "+booking.Code+" is approved. Present your QR code at the station.")
	return &ApprovalResult{Booking: booking, QRToken: token, QRExpiry: expiry}, nil
}

// ReissueQR mints a replacement token for an approved booking. The stored
// hash is overwritten, which invalidates the previously issued token.
func (s *BookingService) ReissueQR(ctx context.Context, bookingID string, actorID int64) (*ApprovalResult, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusApproved {
		return nil, faults.New(faults.StateConflict, "NotApproved", "only approved bookings can re-issue a qr token")
	}

	now := s.now()
	expiry := s.rules.LatestCheckInInstant(booking.SlotStart, booking.DurationMinutes)
	token, hash, err := s.tokens.Issue(booking.ID, booking.StationID, booking.SlotStart, expiry)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookings.ReplaceQR(ctx, booking.ID, hash, expiry, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}

	booking.QRTokenHash = hash
	booking.QRExpiresAt = &expiry
	s.emit(ctx, booking, "booking.qr_reissued", actorID, RoleStaff, nil)
	return &ApprovalResult{Booking: booking, QRToken: token, QRExpiry: expiry}, nil
}

// RejectBooking transitions pending -> rejected and releases the held unit.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID string, actorID int64, reason string) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, faults.New(faults.StateConflict, "NotPending", "only pending bookings can be rejected")
	}

	now := s.now()
	ok, err := s.bookings.MarkRejected(ctx, booking.ID, actorID, reason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}

	booking.Status = models.BookingStatusRejected
	booking.RejectedAt = &now
	booking.RejectedBy = &actorID
	s.releaseSlot(ctx, booking)
	s.emit(ctx, booking, "booking.rejected", actorID, RoleStaff, map[string]interface{}{"reason": reason})
	s.push(ctx, booking, "booking_rejected", "Booking rejected",
		"Booking "+booking.Code+" was rejected.")
	return booking, nil
}

// CancelBooking cancels a pending or approved booking and releases the held
// unit. Owner-initiated cancellation is refused inside the lock window and
// for bookings the actor does not own.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string, actorID int64, actorRole string) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// Checked-in bookings have started charging; terminal ones no longer
	// hold a ledger unit to return.
	if booking.Status == models.BookingStatusCheckedIn || !booking.Status.HoldsCapacity() {
		return nil, faults.New(faults.StateConflict, "NotCancellable", "booking can no longer be cancelled")
	}

	now := s.now()
	if actorRole == RoleOwner {
		if booking.OwnerID != actorID {
			return nil, faults.New(faults.Forbidden, "NotBookingOwner", "booking belongs to another owner")
		}
		if err := s.rules.CheckOwnerCancelAllowed(now, booking.SlotStart); err != nil {
			return nil, err
		}
	}

	ok, err := s.bookings.MarkCancelled(ctx, booking.ID, booking.Status, actorID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}

	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = &actorID
	s.releaseSlot(ctx, booking)
	s.emit(ctx, booking, "booking.cancelled", actorID, actorRole, nil)
	s.push(ctx, booking, "booking_cancelled", "Booking cancelled",
		"Booking "+booking.Code+" was cancelled.")
	return booking, nil
}

// CheckIn verifies the presented token, enforces the check-in window and
// transitions approved -> checked_in, opening the charging session. The
// conditional transition loses deterministically against a racing sweep or
// cancel.
func (s *BookingService) CheckIn(ctx context.Context, token, expectedBookingID string) (*models.Booking, *models.ChargingSession, error) {
	claims, hash, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	booking, err := s.bookings.GetByQRHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, nil, faults.New(faults.Validation, qr.CodeInvalid, "qr token does not match any booking")
		}
		return nil, nil, err
	}
	if expectedBookingID != "" && expectedBookingID != booking.ID {
		return nil, nil, faults.New(faults.Validation, "BookingMismatch", "qr token belongs to a different booking")
	}
	if booking.ID != claims.BookingID {
		return nil, nil, faults.New(faults.Validation, qr.CodeInvalid, "qr token does not match any booking")
	}
	if booking.Status != models.BookingStatusApproved {
		return nil, nil, faults.New(faults.StateConflict, "NotApproved", "booking is not awaiting check-in")
	}

	now := s.now()
	if booking.QRExpiresAt != nil && now.After(*booking.QRExpiresAt) {
		return nil, nil, faults.New(faults.Validation, qr.CodeExpired, "qr token has expired")
	}
	if err := s.rules.CheckCheckInWindow(now, booking.SlotStart, booking.DurationMinutes); err != nil {
		return nil, nil, err
	}

	ok, err := s.bookings.MarkCheckedIn(ctx, booking.ID, now)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}
	booking.Status = models.BookingStatusCheckedIn

	session := &models.ChargingSession{
		ID:          uuid.NewString(),
		BookingID:   booking.ID,
		StationID:   booking.StationID,
		OwnerID:     booking.OwnerID,
		CheckedInAt: now,
		Status:      models.SessionStatusActive,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	s.emit(ctx, booking, "booking.checked_in", booking.OwnerID, RoleOwner, map[string]interface{}{"session_id": session.ID})
	s.push(ctx, booking, "booking_checked_in", "Checked in",
		"You are checked in for booking "+booking.Code+". Charging may begin.")
	return booking, session, nil
}

// Verification is the read-only answer to a QR validity check.
type Verification struct {
	Valid     bool                 `json:"valid"`
	Reason    string               `json:"reason,omitempty"`
	BookingID string               `json:"booking_id,omitempty"`
	StationID string               `json:"station_id,omitempty"`
	Expiry    *time.Time           `json:"expiry,omitempty"`
	Status    models.BookingStatus `json:"status,omitempty"`
}

// VerifyQR reports whether a presented token would currently be accepted for
// check-in. It mutates nothing.
func (s *BookingService) VerifyQR(ctx context.Context, token string) (*Verification, error) {
	claims, hash, err := s.tokens.Verify(token)
	if err != nil {
		if code := faults.CodeOf(err); code != "" {
			return &Verification{Valid: false, Reason: code}, nil
		}
		return nil, err
	}

	booking, err := s.bookings.GetByQRHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return &Verification{Valid: false, Reason: qr.CodeInvalid}, nil
		}
		return nil, err
	}

	result := &Verification{
		BookingID: booking.ID,
		StationID: claims.StationID,
		Expiry:    booking.QRExpiresAt,
		Status:    booking.Status,
	}
	switch {
	case booking.Status.Terminal():
		result.Reason = "BookingClosed"
	case booking.Status != models.BookingStatusApproved:
		result.Reason = "NotApproved"
	case booking.QRExpiresAt != nil && s.now().After(*booking.QRExpiresAt):
		result.Reason = qr.CodeExpired
	default:
		result.Valid = true
	}
	return result, nil
}

// FinalizeSession computes the receipt and transitions checked_in ->
// completed. Finalization is idempotency-guarded: a second call fails with
// AlreadyFinalized and never double-charges.
func (s *BookingService) FinalizeSession(ctx context.Context, bookingID string, energyKWh, unitPrice float64, notes string, actorID int64) (*models.ChargingSession, error) {
	if energyKWh < 0 {
		return nil, faults.New(faults.Validation, "NegativeEnergy", "energy must not be negative")
	}
	if unitPrice < 0 {
		return nil, faults.New(faults.Validation, "NegativePrice", "unit price must not be negative")
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch booking.Status {
	case models.BookingStatusCheckedIn:
	case models.BookingStatusCompleted:
		return nil, faults.New(faults.StateConflict, "AlreadyFinalized", "session was already finalized")
	default:
		return nil, faults.New(faults.StateConflict, "NotCheckedIn", "booking has no active session to finalize")
	}

	session, err := s.sessions.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, faults.New(faults.NotFound, "SessionNotFound", "no session exists for the booking")
		}
		return nil, err
	}
	if session.CompletedAt != nil {
		return nil, faults.New(faults.StateConflict, "AlreadyFinalized", "session was already finalized")
	}

	now := s.now()
	total := math.Round(energyKWh*unitPrice*100) / 100

	ok, err := s.bookings.MarkCompleted(ctx, booking.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}
	finalized, err := s.sessions.Finalize(ctx, bookingID, now, energyKWh, unitPrice, total, notes)
	if err != nil {
		return nil, err
	}
	if !finalized {
		return nil, faults.New(faults.StateConflict, "AlreadyFinalized", "session was already finalized")
	}

	booking.Status = models.BookingStatusCompleted
	session.CompletedAt = &now
	session.EnergyKWh = energyKWh
	session.UnitPrice = unitPrice
	session.Total = total
	session.Status = models.SessionStatusCompleted
	if notes != "" {
		session.Notes = notes
	}

	s.emit(ctx, booking, "session.finalized", actorID, RoleStaff, map[string]interface{}{
		"energy_kwh": energyKWh,
		"unit_price": unitPrice,
		"total":      total,
	})
	s.push(ctx, booking, "session_finalized", "Charging complete",
		"Your charging session for booking "+booking.Code+" is complete.")
	return session, nil
}

// AbortSession transitions checked_in -> aborted and closes the session
// without charging it. The slot window is already consumed, so no capacity is
// released.
func (s *BookingService) AbortSession(ctx context.Context, bookingID string, actorID int64, reason string) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCheckedIn {
		return nil, faults.New(faults.StateConflict, "NotCheckedIn", "only checked-in bookings can be aborted")
	}

	now := s.now()
	ok, err := s.bookings.MarkAborted(ctx, booking.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.New(faults.StateConflict, "TransitionConflict", "booking was modified by another actor")
	}
	if _, err := s.sessions.Abort(ctx, bookingID, now); err != nil {
		s.logger.Warn("failed to close aborted session", zap.String("booking_id", bookingID), zap.Error(err))
	}

	booking.Status = models.BookingStatusAborted
	s.emit(ctx, booking, "booking.aborted", actorID, RoleStaff, map[string]interface{}{"reason": reason})
	return booking, nil
}

// GetBooking returns one booking.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.getBooking(ctx, bookingID)
}

// ListOwnerBookings returns the owner's booking history.
func (s *BookingService) ListOwnerBookings(ctx context.Context, ownerID int64, limit int) ([]models.Booking, error) {
	return s.bookings.ListByOwner(ctx, ownerID, limit)
}

func (s *BookingService) getBooking(ctx context.Context, id string) (*models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, faults.New(faults.Validation, "BookingRequired", "booking id is required")
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, faults.New(faults.NotFound, "BookingNotFound", "unknown booking")
		}
		return nil, err
	}
	return booking, nil
}

// releaseSlot returns the booking's ledger unit, best-effort. Failure is
// logged and swallowed; the heal pass corrects the counter later.
func (s *BookingService) releaseSlot(ctx context.Context, booking *models.Booking) {
	if err := s.ledger.Release(ctx, booking.StationID, booking.SlotStart); err != nil {
		s.logger.Warn("failed to release slot capacity",
			zap.String("booking_id", booking.ID),
			zap.String("station_id", booking.StationID),
			zap.Time("slot_start", booking.SlotStart),
			zap.Error(err),
		)
	}
}

func (s *BookingService) emit(ctx context.Context, booking *models.Booking, action string, actorID int64, actorRole string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, "booking", booking.ID, action, actorID, actorRole, payload); err != nil {
		s.logger.Warn("failed to record audit entry",
			zap.String("booking_id", booking.ID), zap.String("action", action), zap.Error(err))
	}
}

func (s *BookingService) push(ctx context.Context, booking *models.Booking, notifType, subject, message string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Enqueue(ctx, notify.Notification{
		Type:        notifType,
		RecipientID: booking.OwnerID,
		Subject:     subject,
		Message:     message,
		Payload: map[string]interface{}{
			"booking_id": booking.ID,
			"code":       booking.Code,
			"status":     booking.Status,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("booking_id", booking.ID), zap.String("type", notifType), zap.Error(err))
	}
}

func newBookingCode() string {
	return "CB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
