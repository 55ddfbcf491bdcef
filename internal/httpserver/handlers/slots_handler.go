package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"chargeslot/internal/service"
)

// SlotsHandler exposes the read-only slot availability lookup owners consult
// before booking.
type SlotsHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

// NewSlotsHandler builds handler.
func NewSlotsHandler(inventory *service.InventoryService, logger *zap.Logger) *SlotsHandler {
	return &SlotsHandler{inventory: inventory, logger: logger}
}

// HandleAvailability handles GET /slots?station_id=...&start=RFC3339.
func (h *SlotsHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		writeError(w, http.StatusBadRequest, "StationRequired", "station_id query parameter is required")
		return
	}
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadSlotTime", "start must be an RFC3339 timestamp")
		return
	}

	slot, err := h.inventory.SlotStatus(r.Context(), stationID, start)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"slot":      slot,
		"available": slot.Available(),
		"full":      slot.Full(),
	})
}
