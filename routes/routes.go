package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"manmitra/handlers"
	"manmitra/middleware"
	"manmitra/models"
)

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(auth)
		bookingGroup.POST("/book", middleware.RequireRole(models.RoleStudent), hb.Bookings.Book)
		bookingGroup.POST("/confirm", hb.Bookings.Confirm)
		bookingGroup.POST("/cancel", middleware.RequireRole(models.RoleStudent), hb.Bookings.Cancel)
		bookingGroup.GET("/me", middleware.RequireRole(models.RoleStudent), hb.Bookings.Mine)
	}
}

// RegisterTherapistRoutes registers therapist onboarding and listing.
func RegisterTherapistRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/therapists")
	{
		api.POST("/signup", hb.Therapists.Signup)
		api.POST("/login", hb.Therapists.Login)
		api.GET("", hb.Therapists.List)

		protected := api.Group("")
		protected.Use(auth, middleware.RequireRole(models.RoleTherapist))
		protected.PUT("/me/schedule", hb.Therapists.UpdateSchedule)
	}
}

// RegisterStudentRoutes registers student endpoints.
func RegisterStudentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/students")
	{
		api.POST("/register", hb.Students.Register)
		api.POST("/login", hb.Students.Login)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/login", hb.Admin.Login)

		protected := adminGroup.Group("")
		protected.Use(auth, middleware.RequireRole(models.RoleAdmin))
		protected.GET("/therapists/pending", hb.Admin.PendingTherapists)
		protected.PATCH("/therapists/:id/status", hb.Admin.SetTherapistStatus)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/health", handlers.Health(hb.Health))
}

// RegisterMetricsRoute exposes the Prometheus scrape endpoint.
func RegisterMetricsRoute(r *gin.Engine, h http.Handler) {
	r.GET("/metrics", gin.WrapH(h))
}

// CORS allows the listed origins, or any origin without credentials when
// the list is empty.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc, origins []string, metrics http.Handler) {
	r.Use(CORS(origins))

	RegisterHealthRoute(r, hb)
	RegisterBookingRoutes(r, hb, auth)
	RegisterTherapistRoutes(r, hb, auth)
	RegisterStudentRoutes(r, hb)
	RegisterAdminRoutes(r, hb, auth)
	if metrics != nil {
		RegisterMetricsRoute(r, metrics)
	}
}
