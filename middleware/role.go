package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"manmitra/utils"
)

// RequireRole must run after Authenticator.Middleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := PrincipalRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, "Forbidden", "this action requires role "+strings.Join(roles, " or "))
	}
}
