// handlers/order.go
package handlers

import (
	"hvac-portal-system/middleware"
	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRoutes(app *fiber.App, orderService *services.OrderService) {
	// Role gates attach per route; see SetupBenefitRoutes.
	userCtx := middleware.UserContextMiddleware()
	userOnly := middleware.RequireRole(models.RoleUser)
	staffOnly := middleware.RequireRole(models.RoleEmployee)

	// Customer order/visit tracking
	app.Post("/orders", userCtx, userOnly, orderService.PlaceOrder)
	app.Get("/users/me/orders", userCtx, userOnly, orderService.GetMyOrders)
	app.Get("/orders/:id", userCtx, userOnly, orderService.GetMyOrder)
	app.Get("/users/me/visits", userCtx, userOnly, orderService.GetMyVisits)
	app.Post("/visits", userCtx, userOnly, orderService.RequestVisit)

	// Back-office dispatch and fulfilment
	app.Get("/admin/orders", userCtx, staffOnly, orderService.GetAllOrders)
	app.Patch("/admin/orders/:id/status", userCtx, staffOnly, orderService.UpdateOrderStatus)
	app.Get("/admin/visits", userCtx, staffOnly, orderService.GetAllVisits)
	app.Patch("/admin/visits/:id/schedule", userCtx, staffOnly, orderService.ScheduleVisit)
	app.Patch("/admin/visits/:id/complete", userCtx, staffOnly, orderService.CompleteVisit)
}
