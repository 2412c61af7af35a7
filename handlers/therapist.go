package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manmitra/middleware"
	"manmitra/models"
	"manmitra/services/therapist"
)

type TherapistHandler struct {
	Service therapist.TherapistService
	Logger  *zap.Logger
}

func NewTherapistHandler(svc therapist.TherapistService, logger *zap.Logger) *TherapistHandler {
	return &TherapistHandler{Service: svc, Logger: logger}
}

// Signup handles POST /api/therapists/signup.
func (h *TherapistHandler) Signup(c *gin.Context) {
	var req models.TherapistSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.Service.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, "therapist signup", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Signup received. Your account is pending approval.",
		"therapist": t,
	})
}

// Login handles POST /api/therapists/login.
func (h *TherapistHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.Service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, "therapist login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/therapists.
func (h *TherapistHandler) List(c *gin.Context) {
	list, err := h.Service.ListApproved(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, "list therapists", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"therapists": list})
}

// UpdateSchedule handles PUT /api/therapists/me/schedule.
func (h *TherapistHandler) UpdateSchedule(c *gin.Context) {
	var req models.ScheduleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.Service.UpdateSchedule(c.Request.Context(), middleware.PrincipalID(c), req)
	if err != nil {
		respondError(c, h.Logger, "update schedule", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"therapist": t.Public()})
}
