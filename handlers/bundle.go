package handlers

import "manmitra/utils"

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	Bookings   *BookingHandler
	Therapists *TherapistHandler
	Students   *StudentHandler
	Admin      *AdminHandler
	Health     *utils.HealthMonitor
}
