package services

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"hvac-portal-system/middleware"
	"hvac-portal-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.ProductCategory {
	t.Helper()
	c := &models.ProductCategory{ID: uuid.NewString(), Name: name, Slug: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID, name string, status models.ProductStatus) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Name:       name,
		Slug:       uuid.NewString(),
		PriceCents: 129900,
		Currency:   "EUR",
		InStock:    true,
		Status:     status,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestLocalize_FallbackAndOverride(t *testing.T) {
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        "Wall-mounted split unit",
		Description: "Quiet indoor unit",
		Translations: []models.ProductTranslation{
			{Locale: "de", Name: "Wandgerät Split", Description: "Leises Innengerät"},
		},
	}

	de := localize(product, "de")
	assert.Equal(t, "Wandgerät Split", de.Name)
	assert.Equal(t, "de", de.Locale)

	// No French translation: fall back to default-locale copy.
	fr := localize(product, "fr")
	assert.Equal(t, "Wall-mounted split unit", fr.Name)
	assert.Equal(t, middleware.DefaultLocale, fr.Locale)

	en := localize(product, "en")
	assert.Equal(t, "Wall-mounted split unit", en.Name)
}

func newCatalogTestApp(svc *CatalogService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.LocaleMiddleware())
	app.Get("/products", svc.GetPublishedProducts)
	app.Get("/products/:slug", svc.GetProductBySlug)
	app.Put("/admin/products/:id/translations/:locale", svc.UpsertProductTranslation)
	app.Patch("/admin/products/:id/status", svc.UpdateProductStatus)
	return app
}

func TestGetPublishedProducts_FiltersDraftsAndLocalizes(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	cat := seedCategory(t, db, "split-units")
	published := seedProduct(t, db, cat.ID, "Split Unit 3.5kW", models.ProductStatusPublished)
	seedProduct(t, db, cat.ID, "Unlisted Draft", models.ProductStatusDraft)
	require.NoError(t, db.Create(&models.ProductTranslation{
		ID: uuid.NewString(), ProductID: published.ID, Locale: "de",
		Name: "Splitgerät 3,5 kW",
	}).Error)

	app := newCatalogTestApp(svc)

	req := httptest.NewRequest("GET", "/products", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []LocalizedProduct
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Splitgerät 3,5 kW", rows[0].Name)
	assert.Equal(t, "de", rows[0].Locale)
}

func TestUpsertProductTranslation_CreateThenUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	cat := seedCategory(t, db, "filters")
	product := seedProduct(t, db, cat.ID, "Allergen Filter", models.ProductStatusPublished)

	app := newCatalogTestApp(svc)

	body := bytes.NewBufferString(`{"name":"Allergenfilter","description":"Für Pollenallergiker"}`)
	req := httptest.NewRequest("PUT", "/admin/products/"+product.ID+"/translations/de", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Second write updates the same row, not a duplicate.
	body = bytes.NewBufferString(`{"name":"Allergen-Filter"}`)
	req = httptest.NewRequest("PUT", "/admin/products/"+product.ID+"/translations/de", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var translations []models.ProductTranslation
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&translations).Error)
	require.Len(t, translations, 1)
	assert.Equal(t, "Allergen-Filter", translations[0].Name)
}

func TestUpdateProductStatus_ScheduledNeedsFutureTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	cat := seedCategory(t, db, "heat-pumps")
	product := seedProduct(t, db, cat.ID, "Heat Pump 8kW", models.ProductStatusDraft)

	app := newCatalogTestApp(svc)

	// scheduled without publish_at → rejected
	body := bytes.NewBufferString(`{"status":"scheduled"}`)
	req := httptest.NewRequest("PATCH", "/admin/products/"+product.ID+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// direct publish works
	body = bytes.NewBufferString(`{"status":"published"}`)
	req = httptest.NewRequest("PATCH", "/admin/products/"+product.ID+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Product
	require.NoError(t, db.First(&updated, "id = ?", product.ID).Error)
	assert.Equal(t, models.ProductStatusPublished, updated.Status)
}

func TestProductInStockFalse_Persists(t *testing.T) {
	// An out-of-stock product must be stored as such on insert; a silent
	// flip to in-stock would let customers order it.
	db := newTestDB(t)
	cat := seedCategory(t, db, "spares")

	p := &models.Product{
		ID:         uuid.NewString(),
		CategoryID: cat.ID,
		Name:       "Condensate Pump",
		Slug:       "condensate-pump",
		PriceCents: 4900,
		Currency:   "EUR",
		InStock:    false,
		Status:     models.ProductStatusPublished,
	}
	require.NoError(t, db.Create(p).Error)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	assert.False(t, stored.InStock)
}

func TestUniqueSlug_SuffixesOnCollision(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	cat := seedCategory(t, db, "accessories")

	existing := seedProduct(t, db, cat.ID, "Remote Control", models.ProductStatusPublished)
	existing.Slug = "remote-control"
	require.NoError(t, db.Save(existing).Error)

	first := svc.uniqueSlug("Another Gadget")
	assert.Equal(t, "another-gadget", first)

	collided := svc.uniqueSlug("Remote Control")
	assert.NotEqual(t, "remote-control", collided)
	assert.Contains(t, collided, "remote-control-")
}
