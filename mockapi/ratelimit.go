package mockapi

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimitCleanup = 3 * time.Minute

// rateLimiter limits each client IP to requestsPerSecond with an equal burst.
func (s *Server) rateLimiter(requestsPerSecond float64) echo.MiddlewareFunc {
	burst := int(math.Max(1, math.Ceil(requestsPerSecond)))
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     burst,
				ExpiresIn: rateLimitCleanup,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return s.fail(c, http.StatusForbidden, "forbidden")
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return s.fail(c, http.StatusTooManyRequests, "too_many_requests")
		},
	})
}
