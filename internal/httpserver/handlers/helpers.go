package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chargeslot/internal/faults"
)

const (
	userIDHeader   = "X-User-ID"
	userRoleHeader = "X-User-Role"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}

// writeFault maps the engine error taxonomy onto HTTP statuses. Uncoded
// errors stay opaque 500s.
func writeFault(w http.ResponseWriter, err error) {
	var fe *faults.Error
	if !errors.As(err, &fe) {
		writeError(w, http.StatusInternalServerError, "Internal", "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch fe.Category {
	case faults.Validation:
		status = http.StatusBadRequest
	case faults.Policy:
		status = http.StatusUnprocessableEntity
	case faults.Capacity, faults.StateConflict:
		status = http.StatusConflict
	case faults.NotFound:
		status = http.StatusNotFound
	case faults.Forbidden:
		status = http.StatusForbidden
	}
	writeError(w, status, fe.Code, fe.Message)
}

func actorFrom(r *http.Request) (int64, string, bool) {
	idStr := r.Header.Get(userIDHeader)
	if idStr == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "", false
	}
	role := r.Header.Get(userRoleHeader)
	if role == "" {
		role = "owner"
	}
	return id, role, true
}
