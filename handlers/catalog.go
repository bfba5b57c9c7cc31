// handlers/catalog.go
package handlers

import (
	"hvac-portal-system/middleware"
	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCatalogRoutes(app *fiber.App, catalogService *services.CatalogService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**.
	// Locale negotiation applies to everything that renders catalog copy.
	locale := middleware.LocaleMiddleware()
	app.Get("/categories", locale, catalogService.GetCategories)
	app.Get("/products", locale, catalogService.GetPublishedProducts)
	app.Get("/products/:slug", locale, catalogService.GetProductBySlug)

	// 🔐 Back-office — employees manage the catalog, admins everything.
	// Role gates attach per route; see SetupBenefitRoutes.
	userCtx := middleware.UserContextMiddleware()
	staffOnly := middleware.RequireRole(models.RoleEmployee)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	app.Get("/admin/products", userCtx, staffOnly, catalogService.GetAllProducts)
	app.Post("/admin/products", userCtx, staffOnly, catalogService.CreateProduct)
	app.Put("/admin/products/:id", userCtx, staffOnly, catalogService.UpdateProduct)
	app.Patch("/admin/products/:id/status", userCtx, staffOnly, catalogService.UpdateProductStatus)
	app.Put("/admin/products/:id/translations/:locale", userCtx, staffOnly, catalogService.UpsertProductTranslation)
	app.Post("/admin/products/:id/manual", userCtx, staffOnly, catalogService.UploadProductManual)

	app.Delete("/admin/products/:id", userCtx, adminOnly, catalogService.DeleteProduct)
	app.Post("/admin/categories", userCtx, adminOnly, catalogService.CreateCategory)
	app.Delete("/admin/categories/:id", userCtx, adminOnly, catalogService.DeleteCategory)
}
