package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"lexio/internal/logger"
	"lexio/internal/service"
)

// RequestLoggerMiddleware logs HTTP requests using logger.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			latency := time.Since(start)

			status := res.Status
			result := "ok"
			if status >= 400 {
				result = "failed"
			}

			logFn := logger.Debug
			if status >= 500 {
				logFn = logger.Error
			} else if status >= 400 {
				logFn = logger.Warn
			}
			logFn("http request",
				"module", "http",
				"action", "request",
				"resource", "http",
				"result", result,
				"method", req.Method,
				"path", req.URL.Path,
				"status_code", status,
				"duration_ms", latency.Milliseconds(),
				"remote_ip", c.RealIP(),
			)

			return nil
		}
	}
}

// AdminAuthMiddleware validates the bearer token on mutating routes.
func AdminAuthMiddleware(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}

			if token == "" {
				logger.Warn("auth missing",
					"module", "http", "action", "request", "resource", "auth", "result", "failed",
					"method", c.Request().Method, "path", c.Request().URL.Path, "remote_ip", c.RealIP())
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "missing authentication",
				})
			}

			valid, err := authService.ValidateToken(c.Request().Context(), token)
			if err != nil || !valid {
				logger.Warn("auth invalid",
					"module", "http", "action", "request", "resource", "auth", "result", "failed",
					"method", c.Request().Method, "path", c.Request().URL.Path, "remote_ip", c.RealIP())
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid token",
				})
			}

			return next(c)
		}
	}
}
