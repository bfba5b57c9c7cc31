// handlers/benefit.go
package handlers

import (
	"hvac-portal-system/middleware"
	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBenefitRoutes(app *fiber.App, benefitService *services.BenefitService, coinService *services.CoinService) {
	// 🔐 All benefit/coin routes require user context from the Gateway.
	// Role gates are attached per route: a prefix group would also match
	// sibling paths registered later.
	userCtx := middleware.UserContextMiddleware()
	userOnly := middleware.RequireRole(models.RoleUser)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Ordinary-user routes — staff accounts hold no coin balances and may
	// not browse or redeem; the role gate is exact.
	app.Get("/benefits/available", userCtx, userOnly, benefitService.GetAvailableBenefits)
	app.Post("/benefits/:id/redeem", userCtx, userOnly, benefitService.RedeemBenefit)
	app.Get("/users/me/redemptions", userCtx, userOnly, benefitService.GetMyRedemptions)
	app.Get("/users/me/coins", userCtx, userOnly, coinService.GetMyCoins)

	// 🔒 Admin-only routes
	app.Post("/admin/benefits", userCtx, adminOnly, benefitService.CreateBenefit)
	app.Get("/admin/benefits", userCtx, adminOnly, benefitService.GetAllBenefits)
	app.Put("/admin/benefits/:id", userCtx, adminOnly, benefitService.UpdateBenefit)
	app.Delete("/admin/benefits/:id", userCtx, adminOnly, benefitService.DeleteBenefit)
	app.Post("/admin/benefits/:id/image", userCtx, adminOnly, benefitService.UploadBenefitImage)
	app.Get("/admin/redemptions", userCtx, adminOnly, benefitService.GetAllRedemptions)
	app.Post("/admin/users/:user_id/coins/award", userCtx, adminOnly, coinService.AwardCoinsEndpoint)
	app.Get("/admin/users/search", userCtx, adminOnly, coinService.SearchUsers)
}
