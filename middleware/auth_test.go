package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoApp() *fiber.App {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.JSON(fiber.Map{"user_id": userID})
	})
	return app
}

func TestTestModePassthrough(t *testing.T) {
	t.Setenv("ENV_MODE", "test")
	app := newEchoApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer user-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMissingHeaderIsAnonymous(t *testing.T) {
	t.Setenv("ENV_MODE", "test")
	app := newEchoApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMalformedHeaderIsAnonymous(t *testing.T) {
	t.Setenv("ENV_MODE", "test")
	app := newEchoApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "user-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProviderKeySetLoads(t *testing.T) {
	// Both providers ship two keys each; all four must parse.
	assert.Len(t, idKeys, 4)
	for _, entry := range append(append([]jwkEntry{}, googleKeys...), kakaoKeys...) {
		assert.Contains(t, idKeys, entry.Kid)
	}
}
