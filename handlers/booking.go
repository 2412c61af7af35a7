package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manmitra/middleware"
	"manmitra/models"
	"manmitra/services/booking"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// Book handles POST /api/bookings/book.
func (h *BookingHandler) Book(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	b, err := h.Service.Create(c.Request.Context(), middleware.PrincipalID(c), req)
	if err != nil {
		respondError(c, h.Logger, "create booking", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully. Please confirm within 10 minutes.",
		"booking": b,
	})
}

// Confirm handles POST /api/bookings/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
	var req models.BookingIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.Service.Confirm(c.Request.Context(), req.BookingID)
	if err != nil {
		respondError(c, h.Logger, "confirm booking", err)
		return
	}
	if !res.Delivery.OK() {
		h.Logger.Warn("confirmation email not fully delivered",
			zap.String("bookingId", res.Booking.ID),
			zap.String("delivery", res.Delivery.String()))
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Booking confirmed",
		"booking":  res.Booking,
		"delivery": res.Delivery,
	})
}

// Cancel handles POST /api/bookings/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req models.BookingIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	b, err := h.Service.Cancel(c.Request.Context(), req.BookingID, middleware.PrincipalID(c))
	if err != nil {
		respondError(c, h.Logger, "cancel booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": b})
}

// Mine handles GET /api/bookings/me.
func (h *BookingHandler) Mine(c *gin.Context) {
	bookings, err := h.Service.ListForStudent(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		respondError(c, h.Logger, "list bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
