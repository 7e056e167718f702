package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/middleware"
	"github.com/abisalde/student-portal/internal/models"
)

func setupApp(t *testing.T) (*fiber.App, *fixture) {
	t.Helper()
	f := newFixture(t)

	h := NewHandler(f.svc)
	h.now = func() time.Time { return now }

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if uid := c.Get("X-Test-User"); uid != "" {
			c.Locals(auth.CurrentUserKey, &auth.CurrentUser{ID: uid})
		}
		return c.Next()
	})
	h.RegisterProfileRoutes(app.Group("/api/profile"))
	h.RegisterMentorshipRoutes(app.Group("/api/mentorship"))
	h.RegisterAppointmentRoutes(app.Group("/api/appointments"))
	return app, f
}

func call(t *testing.T, app *fiber.App, method, path, body, uid string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-Test-User", uid)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	resp.Body.Close()
	return resp, decoded
}

func TestGetProfileHandler(t *testing.T) {
	app, f := setupApp(t)
	f.seedProfile(t, &models.UserProfile{ID: "u1", Name: "Asha", Email: "asha@example.com", WhatsApp: "+919876543210"})

	resp, _ := call(t, app, "GET", "/api/profile", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := call(t, app, "GET", "/api/profile", "", "u1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha", body["profile"].(map[string]interface{})["name"])
	assert.Equal(t, true, body["showCompletionPrompt"])
	assert.Equal(t, false, body["canLeaveEdit"])
}

func TestSaveProfileHandler(t *testing.T) {
	app, f := setupApp(t)
	f.seedProfile(t, &models.UserProfile{ID: "u1", Name: "Asha"})

	resp, body := call(t, app, "PUT", "/api/profile", `{"name":"Asha","email":"bad","whatsapp":"+919876543210"}`, "u1")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please enter a valid email address", body["fields"].(map[string]interface{})["email"])

	resp, body = call(t, app, "PUT", "/api/profile", `{
		"name":"Asha","email":"asha@example.com","whatsapp":"+919876543210",
		"education":{"degree":"B.Tech","specialization":"CSE","college":"IIT","collegeLocation":"Delhi","currentYear":"3","graduationYear":"2027"}
	}`, "u1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["complete"])
	assert.Equal(t, true, body["canLeaveEdit"])
	assert.Equal(t, []string{"u1"}, f.invalidator.uids)
}

func TestCancelMentorBookingHandler(t *testing.T) {
	app, f := setupApp(t)
	f.seedMentorBooking(t, "future", "u1", "2026-03-11", "10:00", models.BookingStatusBooked)
	f.seedMentorBooking(t, "past", "u1", "2026-03-09", "10:00", models.BookingStatusBooked)

	resp, body := call(t, app, "POST", "/api/profile/mentor-bookings/future/cancel", "", "u1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])

	resp, _ = call(t, app, "POST", "/api/profile/mentor-bookings/future/cancel", "", "u2")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, "POST", "/api/profile/mentor-bookings/past/cancel", "", "u1")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateMentorBookingHandler(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := call(t, app, "POST", "/api/mentorship/bookings",
		`{"mentorName":"Ravi","sessionType":"career","date":"2026-04-01","time":"11:00"}`, "u1")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "booked", body["status"])

	resp, body = call(t, app, "GET", "/api/appointments", "", "u1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, body["appointments"])
}
