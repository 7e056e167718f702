package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/auth/cookies"
	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/testutil"
	"github.com/abisalde/student-portal/pkg/jwt"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "typed error keeps its status",
			err:        customErrors.EmailExists,
			wantStatus: fiber.StatusConflict,
			wantCode:   "EMAIL_EXISTS",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, customErrors.EmailExists.Message, body["message"])
			},
		},
		{
			name:       "validation error lists fields",
			err:        customErrors.FieldError("whatsapp", "WhatsApp number is required"),
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "VALIDATION",
			check: func(t *testing.T, body map[string]interface{}) {
				fields := body["fields"].(map[string]interface{})
				assert.Equal(t, "WhatsApp number is required", fields["whatsapp"])
			},
		},
		{
			name:       "typed error extensions are merged",
			err:        customErrors.RateLimitExceeded.WithExtensions(map[string]interface{}{"retryAfter": 60}),
			wantStatus: fiber.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.EqualValues(t, 60, body["retryAfter"])
			},
		},
		{
			name:       "unknown errors become 500",
			err:        errors.New("db exploded"),
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Internal Server Error", body["message"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, body["error"])
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestErrorHandler_FiberError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

type fakeVerifier struct {
	tokens map[string]*jwt.Claims
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, token string) (*jwt.Claims, error) {
	claims, ok := f.tokens[token]
	if !ok {
		return nil, customErrors.InvalidToken
	}
	return claims, nil
}

func newAuthApp() *fiber.App {
	verifier := fakeVerifier{tokens: map[string]*jwt.Claims{
		"good": {UserID: "uid-1", UserEmail: "asha@example.com", Type: jwt.TokenTypeAccess},
	}}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Authenticate(verifier))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		user := auth.UserFromFiber(c)
		if user == nil {
			return c.SendString("anonymous")
		}
		ctxUser := auth.GetCurrentUser(c.UserContext())
		return c.SendString(user.ID + " " + ctxUser.Token)
	})
	app.Get("/private", RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func readAll(t *testing.T, app *fiber.App, path string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestAuthenticate(t *testing.T) {
	app := newAuthApp()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"no token", nil, "anonymous"},
		{"bearer token", map[string]string{"Authorization": "Bearer good"}, "uid-1 good"},
		{"raw header token", map[string]string{"Authorization": "good"}, "uid-1 good"},
		{"access cookie", map[string]string{"Cookie": cookies.BrowserAccessTokenName + "=good"}, "uid-1 good"},
		{"invalid token continues anonymously", map[string]string{"Authorization": "Bearer bad"}, "anonymous"},
		{"empty bearer", map[string]string{"Authorization": "Bearer "}, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := readAll(t, app, "/whoami", tt.headers)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	app := newAuthApp()

	status, _ := readAll(t, app, "/private", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := readAll(t, app, "/private", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(Headers)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestCalculateBackoff(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{
		RateWindow:         time.Minute,
		BackoffMultiplier:  2,
		MaxBackoffDuration: 10 * time.Minute,
	}, nil)

	assert.Equal(t, time.Minute, sm.calculateBackoff(1))
	assert.Equal(t, 2*time.Minute, sm.calculateBackoff(2))
	assert.Equal(t, 8*time.Minute, sm.calculateBackoff(4))
	assert.Equal(t, 10*time.Minute, sm.calculateBackoff(6))
}

func TestParseNetworks(t *testing.T) {
	nets := parseNetworks([]string{"10.0.0.0/8", "192.168.1.7", "", "not-an-ip"})
	require.Len(t, nets, 2)
	assert.True(t, containsIP(nets, "10.1.2.3"))
	assert.True(t, containsIP(nets, "192.168.1.7"))
	assert.False(t, containsIP(nets, "192.168.1.8"))
}

func TestSecurityMiddleware_RateLimit(t *testing.T) {
	rdb := testutil.StartRedis(t)

	cfg := SecurityConfig{
		RateLimit:          2,
		RateWindow:         time.Minute,
		BackoffMultiplier:  2,
		MaxBackoffDuration: time.Hour,
		BackoffResetTime:   time.Hour,
	}
	sm := NewSecurityMiddleware(cfg, rdb)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(sm.Handler())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	// still backing off
	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestSecurityMiddleware_DenyList(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{DeniedIPs: []string{"0.0.0.0"}}, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(sm.Handler())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
