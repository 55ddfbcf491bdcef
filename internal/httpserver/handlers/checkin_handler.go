package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"chargeslot/internal/service"
)

// CheckInHandler holds the station-side endpoints: QR verification, check-in
// and session finalization.
type CheckInHandler struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewCheckInHandler builds handler set.
func NewCheckInHandler(svc *service.BookingService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{svc: svc, logger: logger}
}

type checkInRequest struct {
	QRToken           string `json:"qr_token"`
	ExpectedBookingID string `json:"expected_booking_id"`
}

// HandleCheckIn handles POST /checkin.
func (h *CheckInHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return
	}
	if req.QRToken == "" {
		writeError(w, http.StatusBadRequest, "TokenRequired", "qr_token is required")
		return
	}

	booking, session, err := h.svc.CheckIn(r.Context(), req.QRToken, req.ExpectedBookingID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"booking": booking,
		"session": session,
	})
}

type finalizeRequest struct {
	BookingID string  `json:"booking_id"`
	EnergyKWh float64 `json:"energy_kwh"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes"`
}

// HandleFinalize handles POST /sessions/finalize.
func (h *CheckInHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "MissingActor", "missing user id header")
		return
	}
	if role != service.RoleStaff {
		writeError(w, http.StatusForbidden, "StaffOnly", "staff role required")
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return
	}

	session, err := h.svc.FinalizeSession(r.Context(), req.BookingID, req.EnergyKWh, req.UnitPrice, req.Notes, actorID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receipt": session})
}

type abortRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

// HandleAbort handles POST /sessions/abort.
func (h *CheckInHandler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "MissingActor", "missing user id header")
		return
	}
	if role != service.RoleStaff {
		writeError(w, http.StatusForbidden, "StaffOnly", "staff role required")
		return
	}

	var req abortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return
	}

	booking, err := h.svc.AbortSession(r.Context(), req.BookingID, actorID, req.Reason)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": booking})
}

type verifyRequest struct {
	QRToken string `json:"qr_token"`
}

// HandleVerify handles POST /qr/verify.
func (h *CheckInHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadJSON", "invalid json")
		return
	}

	verification, err := h.svc.VerifyQR(r.Context(), req.QRToken)
	if err != nil {
		h.logger.Error("qr verification failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal", "failed to verify qr token")
		return
	}
	writeJSON(w, http.StatusOK, verification)
}
