package metrics

import (
	"encoding/json"
	"net/http"
)

// HealthStatus is the /health payload. Status is "ok" while every circuit
// breaker is closed and "degraded" otherwise.
type HealthStatus struct {
	Status   string            `json:"status"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// SetHealthSource installs the callback that assembles the /health payload.
// Without one the endpoint reports a bare "ok".
func (c *Collector) SetHealthSource(fn func() HealthStatus) {
	c.healthSource = fn
}

func (c *Collector) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := HealthStatus{Status: "ok"}
	if c.healthSource != nil {
		status = c.healthSource()
	}
	if status.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
