package api

import (
	"context"
	"sort"
	"time"

	xhttp "SumReport/pkg/http"
	xlogger "SumReport/pkg/logger"

	"github.com/labstack/echo/v4"
)

const probeTimeout = 2 * time.Second

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// HealthHandler serves liveness and readiness. Readiness runs every probe.
type HealthHandler struct {
	logger *xlogger.Logger
	probes map[string]Probe
}

// NewHealthHandler creates the handler. Nil probes are skipped.
func NewHealthHandler(logger *xlogger.Logger, probes map[string]Probe) *HealthHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	p := make(map[string]Probe, len(probes))
	for name, fn := range probes {
		if fn != nil {
			p[name] = fn
		}
	}
	return &HealthHandler{logger: logger, probes: p}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Live)
	e.GET("/ready", h.Ready)
}

func (h *HealthHandler) Live(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	var failed []string
	for _, name := range names {
		if err := h.probes[name](ctx); err != nil {
			h.logger.Warn("readiness probe failed", xlogger.String("dependency", name), xlogger.Error(err))
			status[name] = err.Error()
			failed = append(failed, name)
			continue
		}
		status[name] = "ok"
	}

	if len(failed) > 0 {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("dependencies not ready").
			WithParam("failed", failed).
			WithParam("checks", status))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"status": "ready", "checks": status})
}
