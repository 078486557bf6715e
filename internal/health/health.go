package health

import (
	"encoding/json"
	"net/http"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type ReadinessReporter interface {
	Ready() bool
}

// ReadyFunc adapts a closure to ReadinessReporter.
type ReadyFunc func() bool

func (f ReadyFunc) Ready() bool { return f() }

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status string `json:"status"`
		}
		out := resp{Status: "not_ready"}
		w.Header().Set("Content-Type", "application/json")
		if rr == nil || rr.Ready() {
			out.Status = "ready"
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
