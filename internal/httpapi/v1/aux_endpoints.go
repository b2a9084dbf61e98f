package v1

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// If the underlying store implements ReadyChecker, call it with a short timeout
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	if rc, ok := any(s.store).(ReadyChecker); ok {
		if err := rc.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// calendar serves the placeholder payload the web client's calendar page
// polls. Real calendar data never shipped; the contract is frozen so old
// clients keep working.
func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{
		"message": "Calendar data from Node.js backend",
		"status":  "success",
	})
}
