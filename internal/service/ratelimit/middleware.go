package ratelimit

import (
	pkghttp "SumReport/pkg/http"
	applogger "SumReport/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests over the per-client-IP rate with 429.
func Middleware(l *Limiter, lg *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.Allow(ip) {
				if lg != nil {
					lg.Debug("rate limited",
						applogger.String("ip", ip),
						applogger.String("path", c.Path()),
					)
				}
				return pkghttp.AppErrorResponse(c, pkghttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
