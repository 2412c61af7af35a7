package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	studentRepo "manmitra/database/repository/student"
	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/models"
	"manmitra/utils"
)

// Context keys set on authenticated requests.
const (
	ContextPrincipalID = "principalID"
	ContextRole        = "role"
)

var errPrincipalGone = errors.New("principal no longer active")

// Authenticator verifies bearer tokens and confirms the principal still
// exists. Confirmed principals are cached in Redis under auth:<role>:<id>.
type Authenticator struct {
	Tokens     *utils.TokenIssuer
	Cache      *redis.Client
	Students   studentRepo.StudentRepository
	Therapists therapistRepo.TherapistRepository
	Logger     *zap.Logger
}

func NewAuthenticator(tokens *utils.TokenIssuer, cache *redis.Client, students studentRepo.StudentRepository, therapists therapistRepo.TherapistRepository, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{Tokens: tokens, Cache: cache, Students: students, Therapists: therapists, Logger: logger}
}

// Middleware rejects requests without a valid token for a live principal.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := a.Tokens.ValidateToken(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "invalid token")
			return
		}

		if err := a.confirmPrincipal(c.Request.Context(), claims.Role, claims.Subject); err != nil {
			if errors.Is(err, errPrincipalGone) {
				utils.JSONError(c, http.StatusUnauthorized, "Authentication error", "")
				return
			}
			a.Logger.Error("principal lookup failed",
				zap.String("role", claims.Role),
				zap.String("principalId", claims.Subject),
				zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		c.Set(ContextPrincipalID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

func (a *Authenticator) confirmPrincipal(ctx context.Context, role, id string) error {
	if role == models.RoleAdmin {
		// admin tokens are only minted from configured credentials
		return nil
	}
	if role != models.RoleStudent && role != models.RoleTherapist {
		return errPrincipalGone
	}

	key := utils.AuthCacheKey(role, id)
	if a.Cache != nil {
		_, err := a.Cache.Get(ctx, key).Result()
		if err == nil {
			return nil
		}
		if err != redis.Nil {
			a.Logger.Warn("auth cache read failed, falling back to store", zap.Error(err))
		}
	}

	if err := a.lookup(ctx, role, id); err != nil {
		return err
	}

	if a.Cache != nil {
		if err := a.Cache.Set(ctx, key, "1", utils.AuthCacheTTL).Err(); err != nil {
			a.Logger.Warn("auth cache write failed", zap.Error(err))
		}
	}
	return nil
}

func (a *Authenticator) lookup(ctx context.Context, role, id string) error {
	switch role {
	case models.RoleStudent:
		if _, err := a.Students.GetByID(ctx, id); err != nil {
			if errors.Is(err, studentRepo.ErrNotFound) {
				return errPrincipalGone
			}
			return err
		}
	case models.RoleTherapist:
		t, err := a.Therapists.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, therapistRepo.ErrNotFound) {
				return errPrincipalGone
			}
			return err
		}
		if t.Status != models.TherapistApproved {
			return errPrincipalGone
		}
	}
	return nil
}

// Invalidate drops a cached principal so the next request hits the store.
func (a *Authenticator) Invalidate(ctx context.Context, role, id string) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Del(ctx, utils.AuthCacheKey(role, id)).Err(); err != nil {
		a.Logger.Warn("auth cache invalidation failed", zap.String("key", utils.AuthCacheKey(role, id)), zap.Error(err))
	}
}

// PrincipalID returns the authenticated subject, or "" outside auth.
func PrincipalID(c *gin.Context) string {
	return c.GetString(ContextPrincipalID)
}

func PrincipalRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}
