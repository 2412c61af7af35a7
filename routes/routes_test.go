package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingRepo "manmitra/database/repository/booking"
	studentRepo "manmitra/database/repository/student"
	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/handlers"
	"manmitra/metrics"
	"manmitra/middleware"
	"manmitra/services/admin"
	"manmitra/services/booking"
	"manmitra/services/notification"
	"manmitra/services/student"
	"manmitra/services/therapist"
	"manmitra/utils"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func (a *apiClient) call(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func newTestAPI(t *testing.T, now time.Time) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, utils.RegisterGinValidators())

	logger := zap.NewNop()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	students := studentRepo.NewMemoryStudentRepo()
	therapists := therapistRepo.NewMemoryTherapistRepo()

	therapistSvc := therapist.NewDefaultTherapistService(therapists, tokens, logger)
	engine := &booking.DefaultBookingEngine{
		Ledger:        bookingRepo.NewMemoryLedger(),
		Gate:          booking.NewScheduleGate(therapists),
		Therapists:    therapists,
		Students:      students,
		Notifications: notification.NewDefaultNotificationService(notification.NewStubEmailSender(logger), "", logger),
		Metrics:       m,
		Logger:        logger,
		JoinLinkBase:  "https://app.example",
		Now:           func() time.Time { return now },
	}
	auth := middleware.NewAuthenticator(tokens, cache, students, therapists, logger)

	hb := &handlers.HandlerBundle{
		Bookings:   handlers.NewBookingHandler(engine, logger),
		Therapists: handlers.NewTherapistHandler(therapistSvc, logger),
		Students:   handlers.NewStudentHandler(student.NewDefaultStudentService(students, tokens, logger), logger),
		Admin: handlers.NewAdminHandler(
			admin.NewDefaultAdminService("admin@example.com", "admin-pass", tokens, therapistSvc, logger),
			auth, logger),
		Health: utils.NewHealthMonitor(nil),
	}

	r := gin.New()
	r.Use(utils.ErrorHandler(logger), middleware.RequestLogger(logger, m))
	RegisterRoutes(r, hb, auth.Middleware(), nil, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &apiClient{t: t, router: r}
}

func str(t *testing.T, m map[string]interface{}, keys ...string) string {
	t.Helper()
	var cur interface{} = m
	for _, k := range keys {
		obj, ok := cur.(map[string]interface{})
		require.True(t, ok, "missing object at %q", k)
		cur = obj[k]
	}
	s, ok := cur.(string)
	require.True(t, ok, "value at %v is not a string", keys)
	return s
}

func registerStudent(t *testing.T, api *apiClient, email string) string {
	t.Helper()
	code, body := api.call(http.MethodPost, "/api/students/register", "", map[string]string{
		"name": "Student", "email": email, "password": "password123", "collegeName": "MIT",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return str(t, body, "token")
}

func TestBookingFlow(t *testing.T) {
	now := time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC)
	api := newTestAPI(t, now)

	alice := registerStudent(t, api, "alice@mit.edu")
	bob := registerStudent(t, api, "bob@mit.edu")

	code, body := api.call(http.MethodPost, "/api/therapists/signup", "", map[string]interface{}{
		"name": "Dr. T", "email": "t@clinic.example", "password": "password123",
		"dailyTimes": []string{"10:00 am", "bogus"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	therapistID := str(t, body, "therapist", "id")
	assert.Equal(t, "pending", str(t, body, "therapist", "status"))

	creds := map[string]string{"email": "t@clinic.example", "password": "password123"}
	code, _ = api.call(http.MethodPost, "/api/therapists/login", "", creds)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.call(http.MethodPost, "/api/admin/login", "", map[string]string{"email": "admin@example.com", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, code)
	adminToken := str(t, body, "token")

	code, body = api.call(http.MethodGet, "/api/admin/therapists/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["therapists"], 1)

	code, _ = api.call(http.MethodPatch, "/api/admin/therapists/"+therapistID+"/status", alice, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.call(http.MethodPatch, "/api/admin/therapists/"+therapistID+"/status", adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, code)

	code, body = api.call(http.MethodPost, "/api/therapists/login", "", creds)
	require.Equal(t, http.StatusOK, code)
	therapistToken := str(t, body, "token")

	code, _ = api.call(http.MethodPut, "/api/therapists/me/schedule", therapistToken, map[string]interface{}{"dailyTimes": []string{"25:00"}})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.call(http.MethodPut, "/api/therapists/me/schedule", therapistToken, map[string]interface{}{"dailyTimes": []string{"10:00 AM", "4:00 PM"}})
	require.Equal(t, http.StatusOK, code)

	code, body = api.call(http.MethodGet, "/api/therapists", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["therapists"], 1)

	req := map[string]string{
		"therapistId": therapistID, "date": "2025-11-01", "time": "10:00 AM",
		"sessionType": "video", "topic": "Academic",
	}

	code, _ = api.call(http.MethodPost, "/api/bookings/book", "", req)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = api.call(http.MethodPost, "/api/bookings/book", therapistToken, req)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.call(http.MethodPost, "/api/bookings/book", alice, req)
	require.Equal(t, http.StatusCreated, code, body)
	bookingID := str(t, body, "booking", "id")
	assert.Equal(t, "pending", str(t, body, "booking", "status"))

	code, body = api.call(http.MethodPost, "/api/bookings/book", bob, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.MsgSlotConflict, body["message"])

	req["time"] = "11:00 AM"
	code, _ = api.call(http.MethodPost, "/api/bookings/book", bob, req)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.call(http.MethodPost, "/api/bookings/confirm", alice, map[string]string{"bookingId": bookingID})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "confirmed", str(t, body, "booking", "status"))

	code, body = api.call(http.MethodPost, "/api/bookings/confirm", alice, map[string]string{"bookingId": bookingID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "confirmed")

	code, _ = api.call(http.MethodPost, "/api/bookings/cancel", bob, map[string]string{"bookingId": bookingID})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.call(http.MethodPost, "/api/bookings/cancel", alice, map[string]string{"bookingId": bookingID})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "cancelled", str(t, body, "booking", "status"))

	code, body = api.call(http.MethodGet, "/api/bookings/me", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["bookings"], 1)

	code, body = api.call(http.MethodGet, "/api/bookings/me", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["bookings"], 0)
}

func TestBookingErrors(t *testing.T) {
	api := newTestAPI(t, time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC))
	alice := registerStudent(t, api, "alice@mit.edu")

	code, body := api.call(http.MethodPost, "/api/bookings/book", alice, map[string]string{"topic": "Academic"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.MsgMissingFields, body["message"])

	code, body = api.call(http.MethodPost, "/api/bookings/book", alice, map[string]string{
		"therapistId": "4a1c7c53-7e0c-4c1e-9d5e-2f1f5d1c9a10", "date": "2025-11-01", "time": "10:00 AM",
		"sessionType": "video", "topic": "Academic",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, booking.MsgTherapistNotFound, body["message"])

	code, body = api.call(http.MethodPost, "/api/bookings/confirm", alice, map[string]string{"bookingId": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.MsgBookingIDRequired, body["message"])

	code, _ = api.call(http.MethodPost, "/api/bookings/confirm", alice, map[string]string{"bookingId": "4a1c7c53-7e0c-4c1e-9d5e-2f1f5d1c9a10"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = api.call(http.MethodPost, "/api/bookings/confirm", alice, map[string]string{"bookingId": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.MsgInvalidBookingID, body["message"])

	code, body = api.call(http.MethodPost, "/api/bookings/cancel", alice, map[string]string{"bookingId": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.MsgInvalidBookingID, body["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/cancel", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+alice)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, time.Now())

	code, body := api.call(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "healthy")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "manmitra_http_request_duration_seconds")
}
