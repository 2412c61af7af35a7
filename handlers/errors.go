package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/services/admin"
	"manmitra/services/booking"
	"manmitra/services/student"
	"manmitra/services/therapist"
	"manmitra/utils"
)

const msgServerError = "Server error"

var bookingStatus = map[string]int{
	booking.CodeValidation:           http.StatusBadRequest,
	booking.CodeUnavailableSlot:      http.StatusBadRequest,
	booking.CodeRelationshipConflict: http.StatusBadRequest,
	booking.CodeSlotConflict:         http.StatusBadRequest,
	booking.CodeInvalidState:         http.StatusBadRequest,
	booking.CodeExpiredHold:          http.StatusBadRequest,
	booking.CodeCancellationWindow:   http.StatusBadRequest,
	booking.CodeNotFound:             http.StatusNotFound,
	booking.CodeAuthorization:        http.StatusForbidden,
}

// respondError writes the status for a known error kind. Anything else is
// logged and reported as a bare 500.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	if be, ok := booking.AsBookingError(err); ok {
		status, known := bookingStatus[be.Code]
		if known {
			utils.JSONError(c, status, be.Message, "")
			return
		}
	}

	switch {
	case errors.Is(err, student.ErrInvalidCredentials), errors.Is(err, therapist.ErrInvalidCredentials),
		errors.Is(err, admin.ErrInvalidCredentials):
		utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
		return
	case errors.Is(err, admin.ErrDisabled):
		utils.JSONError(c, http.StatusForbidden, "Admin login is disabled", "")
		return
	case errors.Is(err, therapist.ErrNotApproved):
		utils.JSONError(c, http.StatusForbidden, "Your account is not approved yet", "")
		return
	case errors.Is(err, student.ErrAlreadyExists), errors.Is(err, therapist.ErrAlreadyExists):
		utils.JSONError(c, http.StatusConflict, "Account already exists", "")
		return
	case errors.Is(err, therapistRepo.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Therapist not found", "")
		return
	case errors.Is(err, therapist.ErrInvalidStatus):
		utils.JSONError(c, http.StatusBadRequest, "Invalid status", "")
		return
	}

	logger.Error(op+" failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	utils.JSONError(c, http.StatusInternalServerError, msgServerError, "")
}

// bindError reports a malformed or invalid request body.
func bindError(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
}
