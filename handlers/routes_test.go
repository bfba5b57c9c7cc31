package handlers

import (
	"testing"

	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newFullApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	SetupCatalogRoutes(app, services.NewCatalogService(db))
	SetupOrderRoutes(app, services.NewOrderService(db))
	SetupBenefitRoutes(app, services.NewBenefitService(db), services.NewCoinService(db))
	return app
}

// With every route file mounted on one app, a gate registered for one
// audience must never swallow another file's routes.
func TestFullApp_RoleGatesDoNotLeakAcrossGroups(t *testing.T) {
	db := newTestDB(t)
	app := newFullApp(db)

	cases := []struct {
		name   string
		method string
		path   string
		role   models.Role
		want   int
	}{
		// Customer-only surfaces stay customer-only.
		{"user browses benefits", "GET", "/benefits/available", models.RoleUser, fiber.StatusOK},
		{"employee blocked from benefits", "GET", "/benefits/available", models.RoleEmployee, fiber.StatusForbidden},
		{"user lists own orders", "GET", "/users/me/orders", models.RoleUser, fiber.StatusOK},

		// Staff back office is reachable for staff despite the customer
		// routes registered before it.
		{"employee lists all orders", "GET", "/admin/orders", models.RoleEmployee, fiber.StatusOK},
		{"admin lists all orders", "GET", "/admin/orders", models.RoleAdmin, fiber.StatusOK},
		{"employee lists all visits", "GET", "/admin/visits", models.RoleEmployee, fiber.StatusOK},
		{"employee lists catalog drafts", "GET", "/admin/products", models.RoleEmployee, fiber.StatusOK},

		// Admin-only surfaces admit admins and refuse everyone else,
		// even with order/catalog staff routes sharing the /admin prefix.
		{"admin lists redemptions", "GET", "/admin/redemptions", models.RoleAdmin, fiber.StatusOK},
		{"employee blocked from redemptions", "GET", "/admin/redemptions", models.RoleEmployee, fiber.StatusForbidden},
		{"user blocked from redemptions", "GET", "/admin/redemptions", models.RoleUser, fiber.StatusForbidden},
		{"admin lists benefits", "GET", "/admin/benefits", models.RoleAdmin, fiber.StatusOK},

		// Public catalog needs no identity at all.
		{"anonymous browses products", "GET", "/products", "", fiber.StatusOK},
		{"anonymous browses categories", "GET", "/categories", "", fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userID := ""
			if tc.role != "" {
				userID = uuid.NewString()
			}
			resp := doAs(t, app, tc.method, tc.path, userID, tc.role, nil)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
