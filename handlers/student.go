package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manmitra/models"
	"manmitra/services/student"
)

type StudentHandler struct {
	Service student.StudentService
	Logger  *zap.Logger
}

func NewStudentHandler(svc student.StudentService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{Service: svc, Logger: logger}
}

// Register handles POST /api/students/register.
func (h *StudentHandler) Register(c *gin.Context) {
	var req models.StudentRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, "student register", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/students/login.
func (h *StudentHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.Service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, "student login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
