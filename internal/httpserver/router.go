package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	CreateBooking   http.HandlerFunc
	MyBookings      http.HandlerFunc
	ApproveBooking  http.HandlerFunc
	ReissueQR       http.HandlerFunc
	RejectBooking   http.HandlerFunc
	CancelBooking   http.HandlerFunc
	CheckIn         http.HandlerFunc
	FinalizeSession http.HandlerFunc
	AbortSession    http.HandlerFunc
	VerifyQR        http.HandlerFunc
	SlotStatus      http.HandlerFunc
	Health          http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.CreateBooking != nil {
		mux.Handle("/bookings", method(http.MethodPost, routes.CreateBooking))
	}
	if routes.MyBookings != nil {
		mux.Handle("/bookings/me", method(http.MethodGet, routes.MyBookings))
	}
	if routes.ApproveBooking != nil {
		mux.Handle("/bookings/approve", method(http.MethodPost, routes.ApproveBooking))
	}
	if routes.ReissueQR != nil {
		mux.Handle("/bookings/reissue-qr", method(http.MethodPost, routes.ReissueQR))
	}
	if routes.RejectBooking != nil {
		mux.Handle("/bookings/reject", method(http.MethodPost, routes.RejectBooking))
	}
	if routes.CancelBooking != nil {
		mux.Handle("/bookings/cancel", method(http.MethodPost, routes.CancelBooking))
	}
	if routes.CheckIn != nil {
		mux.Handle("/checkin", method(http.MethodPost, routes.CheckIn))
	}
	if routes.FinalizeSession != nil {
		mux.Handle("/sessions/finalize", method(http.MethodPost, routes.FinalizeSession))
	}
	if routes.AbortSession != nil {
		mux.Handle("/sessions/abort", method(http.MethodPost, routes.AbortSession))
	}
	if routes.VerifyQR != nil {
		mux.Handle("/qr/verify", method(http.MethodPost, routes.VerifyQR))
	}
	if routes.SlotStatus != nil {
		mux.Handle("/slots", method(http.MethodGet, routes.SlotStatus))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
