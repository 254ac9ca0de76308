package httpx

import "net/http"

// Health answers liveness probes.
//
//	GET /healthz
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
