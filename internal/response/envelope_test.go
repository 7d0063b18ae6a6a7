package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perform(t *testing.T, handler fiber.Handler, target string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.All("/test", handler)

	req := httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return resp.StatusCode, payload
}

func TestSuccessEnvelope(t *testing.T) {
	env := NewEnvelope(false)
	status, payload := perform(t, func(c *fiber.Ctx) error {
		return env.Success(c, fiber.Map{"message": "done"})
	}, "/test", nil)

	assert.Equal(t, 200, status)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(200), payload["code"])
	body := payload["body"].(map[string]any)
	assert.Equal(t, "done", body["message"])
}

func TestErrorEnvelopeHidesExceptionOutsideDebug(t *testing.T) {
	env := NewEnvelope(false)
	status, payload := perform(t, func(c *fiber.Ctx) error {
		return env.Error(c, apierr.New(apierr.ItemNotFound).WithException("select failed"))
	}, "/test", nil)

	assert.Equal(t, 404, status)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, float64(404), payload["code"])
	body := payload["body"].(map[string]any)
	assert.Equal(t, "ITEM_NOT_FOUND", body["error"])
	assert.Equal(t, "This item does not exists.", body["message"])
	assert.NotContains(t, body, "exception")
}

func TestErrorEnvelopeDebugExposesException(t *testing.T) {
	env := NewEnvelope(true)
	_, payload := perform(t, func(c *fiber.Ctx) error {
		return env.Error(c, apierr.New(apierr.InternalServerError).WithException("boom"))
	}, "/test", nil)

	body := payload["body"].(map[string]any)
	assert.Equal(t, "boom", body["exception"])
}

func TestErrorEnvelopeMergesExtra(t *testing.T) {
	env := NewEnvelope(false)
	_, payload := perform(t, func(c *fiber.Ctx) error {
		return env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{
			"fields": map[string]string{"phone": "The phone field is required."},
		}))
	}, "/test", nil)

	body := payload["body"].(map[string]any)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "The phone field is required.", fields["phone"])
}

func TestUserBlockPerChannel(t *testing.T) {
	env := NewEnvelope(false)
	user := &models.User{ID: 7}

	_, payload := perform(t, func(c *fiber.Ctx) error {
		return env.Success(c, fiber.Map{"user": env.User(c, user, fiber.Map{"auth": true})})
	}, "/test", map[string]string{"x-account-type": "phone"})

	block := payload["body"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, float64(7), block["x-account-id"])
	assert.Equal(t, "phone", block["x-account-type"])
	assert.Equal(t, true, block["auth"])
}

func TestUserBlockNilForUnknownChannel(t *testing.T) {
	env := NewEnvelope(false)
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		if env.User(c, &models.User{ID: 1}, nil) != nil {
			return fiber.ErrTeapot
		}
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("x-account-type", "facebook")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestPrettyPrinting(t *testing.T) {
	env := NewEnvelope(false)
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		return env.Success(c, fiber.Map{"message": "done"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test?pretty=true", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(raw), "\n"), "pretty output should be indented")
}

func TestNextPageURL(t *testing.T) {
	next := NextPageURL("http://localhost:8080/api/product/search?query=tea&page=1&limit=10", 2, 10)
	assert.Contains(t, next, "page=2")
	assert.Contains(t, next, "limit=10")
	assert.Contains(t, next, "query=tea")
}
