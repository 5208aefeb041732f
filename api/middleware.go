package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/auth"
	"github.com/zvrva/transferbooking/internal/domain"
	"github.com/zvrva/transferbooking/internal/ratelimit"
)

// AuthMiddleware verifies the inbound credential before any store access.
// The body is read for HMAC verification and restored for the handler.
func AuthMiddleware(authenticator *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if err := authenticator.Verify(c.Request.Header, body); err != nil {
			msg := "invalid credential"
			if errors.Is(err, domain.ErrMissingCredential) {
				msg = "missing credential"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware bounds submission volume per client IP. Redis trouble
// fails open: admitting a burst beats refusing all traffic.
func RateLimitMiddleware(limiter *ratelimit.Limiter, cfg config.RateLimitConfig, log *logrus.Logger) gin.HandlerFunc {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP(), cfg.Limit, window)
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, admitting request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(time.Now())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too_many_requests",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}
