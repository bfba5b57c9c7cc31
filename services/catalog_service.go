// services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hvac-portal-system/middleware"
	"hvac-portal-system/models"
	"hvac-portal-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// LocalizedProduct is the public catalog shape with locale-resolved copy.
type LocalizedProduct struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Model        string  `json:"model,omitempty"`
	PriceCents   int64   `json:"price_cents"`
	Currency     string  `json:"currency"`
	MainImageURL string  `json:"main_image_url,omitempty"`
	ManualURL    string  `json:"manual_url,omitempty"`
	InStock      bool    `json:"in_stock"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	Locale       string  `json:"locale"`
}

// localize resolves product copy for the given locale, falling back to
// the default-locale fields stored on the product itself.
func localize(p *models.Product, locale string) LocalizedProduct {
	out := LocalizedProduct{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Description:  p.Description,
		Model:        p.Model,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
		MainImageURL: p.MainImageURL,
		ManualURL:    p.ManualURL,
		InStock:      p.InStock,
		CategoryID:   p.CategoryID,
		Locale:       middleware.DefaultLocale,
	}
	if p.Category != nil {
		out.CategoryName = p.Category.Name
	}
	if locale == middleware.DefaultLocale {
		return out
	}
	for _, t := range p.Translations {
		if t.Locale == locale {
			out.Name = t.Name
			out.Description = t.Description
			out.Locale = locale
			break
		}
	}
	return out
}

// --- Public Handlers ---

// GetPublishedProducts lists published catalog products, locale-resolved.
// GET /products?category=<slug>&q=<search>&limit=N
func (s *CatalogService) GetPublishedProducts(c *fiber.Ctx) error {
	locale := middleware.Locale(c)

	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	db := s.DB.Model(&models.Product{}).
		Preload("Category").
		Preload("Translations").
		Where("status = ?", models.ProductStatusPublished).
		Limit(limit)

	if catSlug := c.Query("category"); catSlug != "" {
		var category models.ProductCategory
		if err := s.DB.First(&category, "slug = ?", catSlug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		db = db.Where("category_id = ?", category.ID)
	}

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		searchTerm := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(model) LIKE ?", searchTerm, searchTerm)
	}

	var products []models.Product
	if err := db.Order("name ASC").Find(&products).Error; err != nil {
		log.Printf("DB Error fetching products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch products"})
	}

	res := make([]LocalizedProduct, len(products))
	for i := range products {
		res[i] = localize(&products[i], locale)
	}
	return c.JSON(res)
}

// GetProductBySlug returns one published product with gallery images.
// GET /products/:slug
func (s *CatalogService) GetProductBySlug(c *fiber.Ctx) error {
	locale := middleware.Locale(c)

	var product models.Product
	if err := s.DB.Preload("Category").
		Preload("Translations").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("\"order\" ASC") }).
		Where("slug = ? AND status = ?", c.Params("slug"), models.ProductStatusPublished).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	localized := localize(&product, locale)
	imageURLs := make([]string, len(product.Images))
	for i, img := range product.Images {
		imageURLs[i] = img.URL
	}

	return c.JSON(fiber.Map{
		"product": localized,
		"images":  imageURLs,
	})
}

// GetCategories lists catalog categories in display order.
// GET /categories
func (s *CatalogService) GetCategories(c *fiber.Ctx) error {
	var categories []models.ProductCategory
	if err := s.DB.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch categories"})
	}
	return c.JSON(categories)
}

// --- Back-office Handlers (employee/admin) ---

// CreateCategory creates a product category.
func (s *CatalogService) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name      string `json:"name"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	category := &models.ProductCategory{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Slug:      slug.Make(req.Name),
		SortOrder: req.SortOrder,
	}
	if err := s.DB.Create(category).Error; err != nil {
		log.Printf("DB Error creating category: %v", err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Failed to create category (duplicate name?)"})
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// DeleteCategory removes an empty category.
func (s *CatalogService) DeleteCategory(c *fiber.Ctx) error {
	id := c.Params("id")

	var productCount int64
	if err := s.DB.Model(&models.Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if productCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "category still has products"})
	}

	res := s.DB.Delete(&models.ProductCategory{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete category"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Category not found"})
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}

// CreateProduct creates a new draft product from a multipart form with an
// optional main image uploaded to R2.
func (s *CatalogService) CreateProduct(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	categoryID := c.FormValue("category_id")
	var category models.ProductCategory
	if err := s.DB.First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category_id not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	priceCents, err := strconv.ParseInt(c.FormValue("price_cents", "0"), 10, 64)
	if err != nil || priceCents < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price_cents must be a non-negative integer"})
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		CategoryID:  category.ID,
		Name:        name,
		Slug:        s.uniqueSlug(name),
		Description: c.FormValue("description"),
		Model:       c.FormValue("model"),
		PriceCents:  priceCents,
		Currency:    c.FormValue("currency", "EUR"),
		InStock:     c.FormValue("in_stock", "true") != "false",
		Status:      models.ProductStatusDraft,
	}

	// Main product image → R2 (public CDN asset)
	if imageFile, err := c.FormFile("main_image"); err == nil && imageFile.Size > 0 {
		ext := filepath.Ext(imageFile.Filename)
		if ext == "" {
			ext = ".png"
		}
		imageKey := "products/" + uuid.NewString() + ext
		imageURL, err := utils.UploadFileToR2(imageFile, imageKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "failed to upload main image"})
		}
		product.MainImageURL = imageURL
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}

		// Gallery uploads: gallery[0], gallery[1], ...
		var images []models.ProductImage
		for i := 0; ; i++ {
			file, err := c.FormFile("gallery[" + strconv.Itoa(i) + "]")
			if err != nil {
				break
			}
			ext := filepath.Ext(file.Filename)
			if ext == "" {
				ext = ".jpg"
			}
			imageKey := "products/gallery/" + uuid.NewString() + ext
			imageURL, err := utils.UploadFileToR2(file, imageKey)
			if err != nil {
				return fmt.Errorf("failed to upload gallery image %d: %w", i, err)
			}
			images = append(images, models.ProductImage{
				ID:        uuid.NewString(),
				ProductID: product.ID,
				URL:       imageURL,
				Order:     i,
			})
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("failed to save gallery images: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("DB Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create product"})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// uniqueSlug derives a URL slug from the product name, suffixing a short
// uuid fragment when the plain slug is already taken.
func (s *CatalogService) uniqueSlug(name string) string {
	base := slug.Make(name)
	var count int64
	if err := s.DB.Model(&models.Product{}).Where("slug = ?", base).Count(&count).Error; err == nil && count == 0 {
		return base
	}
	return base + "-" + uuid.NewString()[:8]
}

// UpdateProduct applies a partial JSON update (no file handling here).
func (s *CatalogService) UpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	var existing models.Product
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Model       *string `json:"model"`
		PriceCents  *int64  `json:"price_cents"`
		Currency    *string `json:"currency"`
		InStock     *bool   `json:"in_stock"`
		CategoryID  *string `json:"category_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Model != nil {
		existing.Model = *req.Model
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price_cents must be non-negative"})
		}
		existing.PriceCents = *req.PriceCents
	}
	if req.Currency != nil {
		existing.Currency = *req.Currency
	}
	if req.InStock != nil {
		existing.InStock = *req.InStock
	}
	if req.CategoryID != nil {
		var category models.ProductCategory
		if err := s.DB.First(&category, "id = ?", *req.CategoryID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category_id not found"})
		}
		existing.CategoryID = category.ID
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update product"})
	}
	return c.JSON(existing)
}

// UpsertProductTranslation sets the localized copy for one locale.
// PUT /admin/products/:id/translations/:locale
func (s *CatalogService) UpsertProductTranslation(c *fiber.Ctx) error {
	id := c.Params("id")
	locale := strings.ToLower(c.Params("locale"))

	var product models.Product
	if err := s.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	var translation models.ProductTranslation
	err := s.DB.Where("product_id = ? AND locale = ?", id, locale).First(&translation).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		translation = models.ProductTranslation{
			ID:          uuid.NewString(),
			ProductID:   id,
			Locale:      locale,
			Name:        req.Name,
			Description: req.Description,
		}
		err = s.DB.Create(&translation).Error
	case err == nil:
		translation.Name = req.Name
		translation.Description = req.Description
		err = s.DB.Save(&translation).Error
	}
	if err != nil {
		log.Printf("DB Error upserting translation %s/%s: %v", id, locale, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save translation"})
	}

	return c.JSON(translation)
}

// UpdateProductStatus publishes, schedules, or archives a product.
// PATCH /admin/products/:id/status
func (s *CatalogService) UpdateProductStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status    models.ProductStatus `json:"status"`
		PublishAt *time.Time           `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch req.Status {
	case models.ProductStatusDraft, models.ProductStatusPublished, models.ProductStatusArchived:
		req.PublishAt = nil
	case models.ProductStatusScheduled:
		if req.PublishAt == nil || req.PublishAt.Before(time.Now()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled status requires a future publish_at"})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
	}

	var product models.Product
	if err := s.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	product.Status = req.Status
	product.PublishAt = req.PublishAt
	if err := s.DB.Save(&product).Error; err != nil {
		log.Printf("DB Error updating product status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update status"})
	}

	return c.JSON(fiber.Map{"message": "Status updated", "product": product})
}

// UploadProductManual attaches an installation/warranty document to a
// product. Manuals stay on local disk (served via /uploads), not the CDN.
// POST /admin/products/:id/manual, multipart field "manual"
func (s *CatalogService) UploadProductManual(c *fiber.Ctx) error {
	id := c.Params("id")

	var product models.Product
	if err := s.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	file, err := c.FormFile("manual")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manual file is required"})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manual must be a PDF"})
	}

	filename := filepath.Join("manuals", product.ID+".pdf")
	if err := utils.SaveFile(file, utils.GetUploadPath(filename)); err != nil {
		log.Printf("Failed to save manual for product %s: %v", product.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save manual"})
	}

	product.ManualURL = "/uploads/" + filepath.ToSlash(filename)
	if err := s.DB.Model(&product).Update("manual_url", product.ManualURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save manual URL"})
	}

	return c.JSON(fiber.Map{"message": "Manual uploaded", "manual_url": product.ManualURL})
}

// GetAllProducts is the back-office listing including drafts.
// GET /admin/products
func (s *CatalogService) GetAllProducts(c *fiber.Ctx) error {
	var products []models.Product
	if err := s.DB.Preload("Category").Order("created_at DESC").Find(&products).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(products)
}

// DeleteProduct soft-deletes a product from the catalog.
func (s *CatalogService) DeleteProduct(c *fiber.Ctx) error {
	res := s.DB.Delete(&models.Product{}, "id = ?", c.Params("id"))
	if res.Error != nil {
		log.Printf("DB Error deleting product: %v", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete product"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
