package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductStatus indicates the publishing status of a catalog product
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusScheduled ProductStatus = "scheduled"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusArchived  ProductStatus = "archived"
)

// ProductCategory groups catalog products (split units, heat pumps, filters...)
type ProductCategory struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"not null;uniqueIndex" json:"slug"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a catalog entry for HVAC equipment or accessories.
// Name/Description hold the default-locale (en) content; other locales
// live in ProductTranslation rows and fall back to these.
type Product struct {
	ID           string        `gorm:"primaryKey;type:uuid" json:"id"`
	CategoryID   string        `gorm:"type:uuid;not null;index" json:"category_id"`
	Name         string        `gorm:"not null" json:"name"`
	Slug         string        `gorm:"not null;uniqueIndex" json:"slug"`
	Description  string        `gorm:"type:text" json:"description"`
	Model        string        `json:"model,omitempty"`     // manufacturer model number
	PriceCents   int64         `gorm:"not null" json:"price_cents"`
	Currency     string        `gorm:"size:3;default:'EUR'" json:"currency"`
	MainImageURL string        `gorm:"type:text" json:"main_image_url,omitempty"`
	ManualURL    string        `gorm:"type:text" json:"manual_url,omitempty"` // served from /uploads, not the CDN
	InStock      bool          `gorm:"not null" json:"in_stock"` // no default tag: it would drop an explicit false on insert
	Status       ProductStatus `gorm:"not null;default:'draft';index" json:"status"`
	PublishAt    *time.Time    `json:"publish_at,omitempty"` // set when Status == scheduled
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Category     *ProductCategory     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images       []ProductImage       `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	Translations []ProductTranslation `gorm:"foreignKey:ProductID" json:"-"`
}

// ProductImage is an additional gallery image stored on R2.
type ProductImage struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProductID string `gorm:"type:uuid;not null;index" json:"product_id"`
	URL       string `gorm:"type:text;not null" json:"url"`
	Order     int    `gorm:"default:0" json:"order"`
}

// ProductTranslation carries localized catalog copy for one locale.
// One row per (product, locale); the default locale lives on Product itself.
type ProductTranslation struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ProductID   string `gorm:"type:uuid;not null;index:idx_product_locale,unique" json:"product_id"`
	Locale      string `gorm:"size:8;not null;index:idx_product_locale,unique" json:"locale"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}
