package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/api"
	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/auth"
	"github.com/zvrva/transferbooking/internal/ratelimit"
	"github.com/zvrva/transferbooking/internal/service/booking"
)

// NewRouter assembles the gin engine: recovery, wrong-method 405 mapping and
// the booking routes with their submission middleware.
func NewRouter(cfg *config.Config, bookingSvc booking.BookingUseCase,
	authenticator *auth.Authenticator, limiter *ratelimit.Limiter, log *logrus.Logger) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	handler := api.NewBookingHandler(bookingSvc, log)
	handler.Register(router,
		api.AuthMiddleware(authenticator),
		api.RateLimitMiddleware(limiter, cfg.RateLimit, log),
	)
	return router
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase,
	authenticator *auth.Authenticator, limiter *ratelimit.Limiter, log *logrus.Logger) error {

	router := NewRouter(cfg, bookingSvc, authenticator, limiter, log)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	log.WithField("address", cfg.HTTP.Address).Info("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
