package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig returns timeout middleware configuration
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: timeout,
	})
}

// SelectiveTimeoutConfig applies the default timeout to most endpoints and a
// longer one to model-backed generation endpoints. Streaming responses are
// skipped entirely since the timeout middleware buffers the response.
func SelectiveTimeoutConfig(defaultTimeout, generationTimeout time.Duration) echo.MiddlewareFunc {
	longTimeout := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: generationTimeout,
	})
	shortTimeout := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: defaultTimeout,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			if strings.HasSuffix(path, "/generate/stream") {
				return next(c)
			}
			if strings.Contains(path, "/generate") {
				return longTimeout(next)(c)
			}
			return shortTimeout(next)(c)
		}
	}
}
