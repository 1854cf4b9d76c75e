package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe is a named dependency check.
type Probe struct {
	Name string
	// Required probes turn a failure into 503. Optional ones only report.
	Required bool
	Check    func(ctx context.Context) error
}

type HealthHandler struct {
	probes  []Probe
	timeout time.Duration
}

func NewHealthHandler(probes ...Probe) *HealthHandler {
	return &HealthHandler{probes: probes, timeout: 3 * time.Second}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.probes))
	for _, p := range h.probes {
		if p.Check == nil {
			continue
		}
		if err := p.Check(ctx); err != nil {
			checks[p.Name] = err.Error()
			if p.Required {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[p.Name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
