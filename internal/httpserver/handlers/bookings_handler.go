package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"chargeslot/internal/service"
)

// BookingsHandler holds the owner- and staff-facing booking endpoints.
type BookingsHandler struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewBookingsHandler builds handler set.
func NewBookingsHandler(svc *service.BookingService, logger *zap.Logger) *BookingsHandler {
	return &BookingsHandler{svc: svc, logger: logger}
}

type createBookingRequest struct {
	StationID       string `json:"station_id"`
	LocalDate       string `json:"local_date"`
	LocalStartTime  string `json:"local_start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// HandleCreate handles POST /bookings.
func (h *BookingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "MissingActor", "missing user id header")
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return
	}

	booking, err := h.svc.CreateBooking(r.Context(), service.CreateBookingInput{
		OwnerID:         actorID,
		StationID:       req.StationID,
		LocalDate:       req.LocalDate,
		LocalStartTime:  req.LocalStartTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"booking": booking})
}

// HandleMine handles GET /bookings/me.
func (h *BookingsHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "MissingActor", "missing user id header")
		return
	}

	bookings, err := h.svc.ListOwnerBookings(r.Context(), actorID, 50)
	if err != nil {
		h.logger.Error("failed to fetch bookings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal", "failed to fetch bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

type decisionRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

// HandleApprove handles POST /bookings/approve.
func (h *BookingsHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	actorID, req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ApproveBooking(r.Context(), req.BookingID, actorID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"booking":   result.Booking,
		"qr_token":  result.QRToken,
		"qr_expiry": result.QRExpiry,
	})
}

// HandleReissueQR handles POST /bookings/reissue-qr.
func (h *BookingsHandler) HandleReissueQR(w http.ResponseWriter, r *http.Request) {
	actorID, req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ReissueQR(r.Context(), req.BookingID, actorID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"booking":   result.Booking,
		"qr_token":  result.QRToken,
		"qr_expiry": result.QRExpiry,
	})
}

// HandleReject handles POST /bookings/reject.
func (h *BookingsHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	actorID, req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}

	booking, err := h.svc.RejectBooking(r.Context(), req.BookingID, actorID, req.Reason)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": booking})
}

// HandleCancel handles POST /bookings/cancel.
func (h *BookingsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "MissingActor", "missing user id header")
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return
	}

	booking, err := h.svc.CancelBooking(r.Context(), req.BookingID, actorID, role)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": booking})
}

func (h *BookingsHandler) decodeDecision(w http.ResponseWriter, r *http.Request) (int64, *decisionRequest, bool) {
	actorID, role, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "MissingActor", "missing user id header")
		return 0, nil, false
	}
	if role != service.RoleStaff {
		writeError(w, http.StatusForbidden, "StaffOnly", "staff role required")
		return 0, nil, false
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return 0, nil, false
	}
	return actorID, &req, true
}
