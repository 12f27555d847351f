package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/lumen-edu/lumen-api/internal/models"
)

func rbacApp(role interface{}, allowed ...string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != nil {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Use(RequireRole(allowed...))
	app.Get("/manage", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	app := rbacApp(models.RoleAuthor, models.RoleAuthor, models.RoleAdmin)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/manage", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsStudent(t *testing.T) {
	app := rbacApp(models.RoleStudent, models.RoleAuthor, models.RoleAdmin)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/manage", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	app := rbacApp(nil, models.RoleAdmin)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/manage", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
