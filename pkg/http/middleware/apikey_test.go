package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	httpx "github.com/go-arcade/sniper/pkg/http"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIKeyApp(auth httpx.Auth, now time.Time) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", APIKeyMiddleware(auth, func() time.Time { return now }))
	api.Get("/queue", func(c *fiber.Ctx) error { return c.SendString("ok") })
	api.Get("/public/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	api.Options("/queue", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestAPIKeyMiddleware(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := httpx.Auth{Enable: true, APIKey: "s3cret", TimestampWindow: 300, Whitelist: []string{"/api/public/*"}}
	app := newAPIKeyApp(auth, now)

	ms := func(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		want    int
	}{
		{"missing key", http.MethodGet, "/api/queue", nil, fiber.StatusUnauthorized},
		{"wrong key", http.MethodGet, "/api/queue", map[string]string{HeaderAPIKey: "nope"}, fiber.StatusUnauthorized},
		{"valid key", http.MethodGet, "/api/queue", map[string]string{HeaderAPIKey: "s3cret"}, fiber.StatusOK},
		{"preflight exempt", http.MethodOptions, "/api/queue", nil, fiber.StatusNoContent},
		{"whitelisted", http.MethodGet, "/api/public/ping", nil, fiber.StatusOK},
		{"fresh timestamp", http.MethodGet, "/api/queue",
			map[string]string{HeaderAPIKey: "s3cret", HeaderRequestTime: ms(now.Add(-4 * time.Minute))}, fiber.StatusOK},
		{"stale timestamp", http.MethodGet, "/api/queue",
			map[string]string{HeaderAPIKey: "s3cret", HeaderRequestTime: ms(now.Add(-6 * time.Minute))}, fiber.StatusUnauthorized},
		{"future timestamp", http.MethodGet, "/api/queue",
			map[string]string{HeaderAPIKey: "s3cret", HeaderRequestTime: ms(now.Add(6 * time.Minute))}, fiber.StatusUnauthorized},
		{"unparsable timestamp ignored", http.MethodGet, "/api/queue",
			map[string]string{HeaderAPIKey: "s3cret", HeaderRequestTime: "yesterday"}, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAPIKeyMiddleware_Disabled(t *testing.T) {
	app := newAPIKeyApp(httpx.Auth{Enable: false, APIKey: "s3cret"}, time.Now())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
