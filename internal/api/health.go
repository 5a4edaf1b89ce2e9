package api

import (
	"net/http"

	"github.com/gaspardpetit/genrelay/internal/serverstate"
)

// HealthHandler reports the lifecycle state: 200 when ready, 503 otherwise.
func HealthHandler(st *serverstate.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := st.Load()
		status := http.StatusOK
		if snap.Status != serverstate.StatusReady {
			status = http.StatusServiceUnavailable
		}
		WriteJSON(w, status, snap)
	}
}
