package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manmitra/models"
	"manmitra/services/admin"
)

// PrincipalInvalidator forgets a cached principal.
type PrincipalInvalidator interface {
	Invalidate(ctx context.Context, role, id string)
}

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	Service admin.AdminService
	Auth    PrincipalInvalidator
	Logger  *zap.Logger
}

func NewAdminHandler(svc admin.AdminService, auth PrincipalInvalidator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, Auth: auth, Logger: logger}
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.Service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, "admin login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PendingTherapists handles GET /api/admin/therapists/pending.
func (h *AdminHandler) PendingTherapists(c *gin.Context) {
	list, err := h.Service.PendingTherapists(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, "list pending therapists", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"therapists": list})
}

// SetTherapistStatus handles PATCH /api/admin/therapists/:id/status.
func (h *AdminHandler) SetTherapistStatus(c *gin.Context) {
	var req models.TherapistStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	id := c.Param("id")
	t, err := h.Service.ReviewTherapist(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.Logger, "review therapist", err)
		return
	}
	if h.Auth != nil {
		h.Auth.Invalidate(c.Request.Context(), models.RoleTherapist, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Therapist " + string(t.Status), "therapist": t})
}
