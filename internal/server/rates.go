package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	ratingdomain "github.com/smallbiznis/freightrate/internal/rating/domain"
)

// quoteRateLimit throttles quote traffic per caller. Callers are keyed by
// API key when one is presented, client IP otherwise.
func (s *Server) quoteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader("X-Api-Key"))
		if key == "" {
			key = c.ClientIP()
		}

		allowed, retryAfter := s.limiter.Allow(c.Request.Context(), key)
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func (s *Server) quoteRate(c *gin.Context) {
	var req ratingdomain.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", err.Error()))
		return
	}

	result, err := s.rates.Quote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
