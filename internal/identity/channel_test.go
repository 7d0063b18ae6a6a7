package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func withRequest(t *testing.T, headers map[string]string, fn func(c *fiber.Ctx)) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		fn(c)
		return nil
	})

	req := httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if _, err := app.Test(req); err != nil {
		t.Fatalf("test request: %v", err)
	}
}

func TestParseChannel(t *testing.T) {
	cases := []struct {
		header string
		want   Channel
		ok     bool
	}{
		{"google", Google, true},
		{"Google", Google, true},
		{"PHONE", Phone, true},
		{"guest", Guest, true},
		{"facebook", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		withRequest(t, map[string]string{"x-account-type": tc.header}, func(c *fiber.Ctx) {
			got, ok := ParseChannel(c)
			if got != tc.want || ok != tc.ok {
				t.Errorf("ParseChannel(%q) = %q, %v; want %q, %v", tc.header, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	withRequest(t, map[string]string{"o-auth-token": "Bearer abc.def.ghi"}, func(c *fiber.Ctx) {
		if got := BearerToken(c); got != "abc.def.ghi" {
			t.Errorf("BearerToken = %q", got)
		}
	})

	// Google requests send the raw ID token without a prefix.
	withRequest(t, map[string]string{"o-auth-token": "raw-id-token"}, func(c *fiber.Ctx) {
		if got := BearerToken(c); got != "raw-id-token" {
			t.Errorf("BearerToken = %q", got)
		}
	})
}
