package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manmitra/utils"
)

// Health handles GET /api/health with the last stored snapshot.
func Health(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		code := http.StatusOK
		if !status.Healthy && !status.CheckedAt.IsZero() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
