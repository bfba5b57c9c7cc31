package middleware

import (
	"net/http/httptest"
	"testing"

	"hvac-portal-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		role     models.Role
		required models.Role
		want     bool
	}{
		{models.RoleAdmin, models.RoleAdmin, true},
		{models.RoleEmployee, models.RoleAdmin, false},
		{models.RoleUser, models.RoleAdmin, false},

		// admin covers employee duties
		{models.RoleAdmin, models.RoleEmployee, true},
		{models.RoleEmployee, models.RoleEmployee, true},
		{models.RoleUser, models.RoleEmployee, false},

		// the customer role is exact: staff never act as customers
		{models.RoleUser, models.RoleUser, true},
		{models.RoleEmployee, models.RoleUser, false},
		{models.RoleAdmin, models.RoleUser, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(tc.role, tc.required),
			"role=%s required=%s", tc.role, tc.required)
	}
}

func newAuthTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", UserContextMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": UserID(c)})
	})
	app.Get("/staff", UserContextMiddleware(), RequireRole(models.RoleEmployee), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestUserContextMiddleware(t *testing.T) {
	app := newAuthTestApp()

	t.Run("missing identity header", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown role", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("X-User-ID", "u-1")
		req.Header.Set("X-User-Role", "superuser")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid identity passes through", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("X-User-ID", "u-1")
		req.Header.Set("X-User-Role", string(models.RoleUser))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestRequireRole(t *testing.T) {
	app := newAuthTestApp()

	do := func(role models.Role) int {
		req := httptest.NewRequest("GET", "/staff", nil)
		req.Header.Set("X-User-ID", "u-1")
		req.Header.Set("X-User-Role", string(role))
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, do(models.RoleEmployee))
	assert.Equal(t, fiber.StatusOK, do(models.RoleAdmin))
	assert.Equal(t, fiber.StatusForbidden, do(models.RoleUser))
}
