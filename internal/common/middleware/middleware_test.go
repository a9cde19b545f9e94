package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		want    string
	}{
		{"any origin in dev", nil, "*"},
		{"configured origin", []string{"https://plans.example"}, "https://plans.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(CORS(tt.origins))
			app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://plans.example")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(Logger())
	app.Get("/health/live", func(c fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/plans", func(c fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })

	for path, want := range map[string]int{"/health/live": http.StatusOK, "/plans": http.StatusTeapot} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("%s status = %d, want %d", path, resp.StatusCode, want)
		}
	}
}
