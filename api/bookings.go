package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/internal/domain"
	"github.com/zvrva/transferbooking/internal/service/booking"
	"github.com/zvrva/transferbooking/internal/txid"
)

const headerIdempotencyKey = "Idempotency-Key"

type BookingHandler struct {
	service booking.BookingUseCase
	log     *logrus.Logger
}

type submitRequest struct {
	IdempotencyKey  string    `json:"idempotency_key"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	PickupLocation  string    `json:"pickup_location"`
	DropoffLocation string    `json:"dropoff_location"`
	PickupTime      time.Time `json:"pickup_time"`
	Passengers      int       `json:"passengers"`
	Notes           string    `json:"notes"`
}

type submitResponse struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	ReceivedAt    string `json:"received_at"`
}

func NewBookingHandler(service booking.BookingUseCase, log *logrus.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

// Register wires the routes. The submission route carries the auth and
// rate-limit middleware; the decision routes are deliberately unauthenticated,
// their security is the token's unguessability.
func (h *BookingHandler) Register(router *gin.Engine, submission ...gin.HandlerFunc) {
	group := router.Group("/")
	{
		handlers := append(submission, h.submit)
		group.POST("/booking", handlers...)
		group.GET("/accept/:token", h.accept)
		group.GET("/deny/:token", h.deny)
		group.GET("/health", h.health)
	}
}

func (h *BookingHandler) submit(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	var req submitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	if key := c.GetHeader(headerIdempotencyKey); key != "" {
		req.IdempotencyKey = key
	}

	result, err := h.service.Submit(c.Request.Context(), booking.SubmitInput{
		IdempotencyKey:  req.IdempotencyKey,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupTime:      req.PickupTime,
		Passengers:      req.Passengers,
		Notes:           req.Notes,
		RawPayload:      raw,
	})
	if err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": validation.Fields})
			return
		}
		h.log.WithError(err).Error("submission failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "record store unavailable"})
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		TransactionID: result.Booking.TransactionID,
		Reference:     txid.Reference(result.Booking.TransactionID),
		Status:        string(result.Booking.Status),
		Duplicate:     result.Duplicate,
		ReceivedAt:    result.Booking.SubmittedAt.Format(time.RFC3339),
	})
}

func (h *BookingHandler) accept(c *gin.Context) {
	h.decide(c, domain.DecisionAccept)
}

func (h *BookingHandler) deny(c *gin.Context) {
	h.decide(c, domain.DecisionDeny)
}

func (h *BookingHandler) decide(c *gin.Context, kind domain.DecisionKind) {
	result, err := h.service.Decide(c.Request.Context(), c.Param("token"), kind)
	if err != nil {
		var already *domain.AlreadyDecidedError
		switch {
		case errors.As(err, &already):
			renderPage(c, http.StatusOK, pageData{
				Title:   "Already decided",
				Message: "This booking has already been decided: " + string(already.Status) + ".",
			})
		case errors.Is(err, domain.ErrTokenNotFound):
			renderPage(c, http.StatusBadRequest, pageData{
				Title:   "Invalid link",
				Message: "This decision link is not valid.",
			})
		case errors.Is(err, domain.ErrTokenConsumed):
			renderPage(c, http.StatusGone, pageData{
				Title:   "Link already used",
				Message: "This decision link has already been used.",
			})
		case errors.Is(err, domain.ErrTransactionNotFound):
			renderPage(c, http.StatusNotFound, pageData{
				Title:   "Booking not found",
				Message: "The booking behind this link no longer exists.",
			})
		case errors.Is(err, domain.ErrLockHeld):
			c.Header("Retry-After", "1")
			renderPage(c, http.StatusServiceUnavailable, pageData{
				Title:   "Please retry",
				Message: "Another decision for this booking is in flight. Try again in a moment.",
			})
		default:
			h.log.WithError(err).Error("decision failed")
			renderPage(c, http.StatusInternalServerError, pageData{
				Title:   "Something went wrong",
				Message: "The decision could not be applied. Please try again.",
			})
		}
		return
	}

	verb := "accepted"
	if kind == domain.DecisionDeny {
		verb = "denied"
	}
	renderPage(c, http.StatusOK, pageData{
		Title:     "Decision recorded",
		Message:   "Booking " + result.Reference + " has been " + verb + ". The customer will be notified.",
		Reference: result.Reference,
	})
}

func (h *BookingHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
