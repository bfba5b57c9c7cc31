// services/benefit_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"hvac-portal-system/middleware"
	"hvac-portal-system/models"
	"hvac-portal-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedemptionErrorKind tags why a redemption was refused.
type RedemptionErrorKind string

const (
	RedeemErrUnauthenticated     RedemptionErrorKind = "unauthenticated"
	RedeemErrForbidden           RedemptionErrorKind = "forbidden"
	RedeemErrNotFound            RedemptionErrorKind = "not_found"
	RedeemErrBenefitInactive     RedemptionErrorKind = "benefit_inactive"
	RedeemErrInsufficientBalance RedemptionErrorKind = "insufficient_balance"
	RedeemErrStoreFailure        RedemptionErrorKind = "store_failure"
)

// RedemptionError carries the refusal kind alongside a human-readable message.
type RedemptionError struct {
	Kind    RedemptionErrorKind `json:"kind"`
	Message string              `json:"message"`
}

func (e *RedemptionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func redemptionErr(kind RedemptionErrorKind, msg string) *RedemptionError {
	return &RedemptionError{Kind: kind, Message: msg}
}

type BenefitService struct {
	DB *gorm.DB

	// afterDebit, when set, runs inside the redemption transaction right
	// after the balance debit. Tests use it to force a rollback.
	afterDebit func(tx *gorm.DB) error
}

func NewBenefitService(db *gorm.DB) *BenefitService {
	return &BenefitService{DB: db}
}

// Redeem exchanges coins for a benefit on behalf of userID. Preconditions
// are checked in order (first failure wins), then the debit and the
// redemption insert commit as one transaction. The debit is a conditional
// update ("balance = balance - cost WHERE balance >= cost") so two
// concurrent redemptions can never drive the balance negative regardless
// of the store's isolation level.
func (s *BenefitService) Redeem(userID, benefitID string) (*models.BenefitRedemption, error) {
	var benefit models.Benefit
	if err := s.DB.First(&benefit, "id = ?", benefitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, redemptionErr(RedeemErrNotFound, "benefit not found")
		}
		return nil, redemptionErr(RedeemErrStoreFailure, "failed to load benefit")
	}

	if !benefit.IsActive {
		return nil, redemptionErr(RedeemErrBenefitInactive, "benefit is no longer active")
	}

	// A missing balance row is a data-integrity problem (accounts are
	// created with one), not a zero balance.
	var balance models.CoinBalance
	if err := s.DB.First(&balance, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, redemptionErr(RedeemErrNotFound, "no coin balance for user")
		}
		return nil, redemptionErr(RedeemErrStoreFailure, "failed to load coin balance")
	}

	if balance.Balance < benefit.Cost {
		return nil, redemptionErr(RedeemErrInsufficientBalance,
			fmt.Sprintf("balance %d is below cost %d", balance.Balance, benefit.Cost))
	}

	redemption := &models.BenefitRedemption{
		ID:         uuid.NewString(),
		UserID:     userID,
		BenefitID:  benefit.ID,
		CoinCost:   benefit.Cost,
		RedeemedAt: time.Now().UTC(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CoinBalance{}).
			Where("user_id = ? AND balance >= ?", userID, benefit.Cost).
			Update("balance", gorm.Expr("balance - ?", benefit.Cost))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another redemption spent the coins between the pre-check
			// and the debit.
			return redemptionErr(RedeemErrInsufficientBalance, "balance changed, insufficient coins")
		}

		if s.afterDebit != nil {
			if err := s.afterDebit(tx); err != nil {
				return err
			}
		}

		if err := tx.Create(redemption).Error; err != nil {
			return err
		}

		audit := &models.CoinTransaction{
			ID:     uuid.NewString(),
			UserID: userID,
			Amount: -benefit.Cost,
			Type:   models.CoinTransactionRedeem,
			Reason: "redeemed: " + benefit.Title,
		}
		ref := "redemption:" + redemption.ID
		audit.ReferenceID = &ref
		return tx.Create(audit).Error
	})
	if err != nil {
		var rerr *RedemptionError
		if errors.As(err, &rerr) {
			return nil, rerr
		}
		log.Printf("Redemption transaction failed for user %s, benefit %s: %v", userID, benefitID, err)
		return nil, redemptionErr(RedeemErrStoreFailure, "redemption could not be committed")
	}

	return redemption, nil
}

// redemptionStatus maps a refusal kind to its HTTP status.
func redemptionStatus(kind RedemptionErrorKind) int {
	switch kind {
	case RedeemErrUnauthenticated:
		return fiber.StatusUnauthorized
	case RedeemErrForbidden:
		return fiber.StatusForbidden
	case RedeemErrNotFound:
		return fiber.StatusNotFound
	case RedeemErrBenefitInactive, RedeemErrInsufficientBalance:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// --- User Handlers ---

// RedeemBenefit is the user-facing endpoint for exchanging coins.
// POST /benefits/:id/redeem
func (s *BenefitService) RedeemBenefit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	benefitID := c.Params("id")

	if _, err := uuid.Parse(benefitID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid benefit ID"})
	}

	redemption, err := s.Redeem(userID, benefitID)
	if err != nil {
		var rerr *RedemptionError
		if errors.As(err, &rerr) {
			return c.Status(redemptionStatus(rerr.Kind)).JSON(fiber.Map{
				"error": rerr.Message,
				"kind":  rerr.Kind,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "redemption failed"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"redemption": redemption,
	})
}

// GetAvailableBenefits lists all active benefits, cheapest first.
// GET /benefits/available
func (s *BenefitService) GetAvailableBenefits(c *fiber.Ctx) error {
	var benefits []models.Benefit
	if err := s.DB.Where("is_active = ?", true).
		Order("cost ASC, title ASC").
		Find(&benefits).Error; err != nil {
		log.Printf("DB Error fetching available benefits: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch benefits"})
	}

	type BenefitSummary struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Cost        int64  `json:"cost"`
		ImageURL    string `json:"image_url,omitempty"`
	}
	res := make([]BenefitSummary, len(benefits))
	for i, b := range benefits {
		res[i] = BenefitSummary{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			Cost:        b.Cost,
			ImageURL:    b.ImageURL,
		}
	}

	return c.JSON(res)
}

// GetMyRedemptions returns the caller's redemptions, newest first, each
// joined with its benefit's details.
// GET /users/me/redemptions
func (s *BenefitService) GetMyRedemptions(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var redemptions []models.BenefitRedemption
	if err := s.DB.Preload("Benefit").
		Where("user_id = ?", userID).
		Order("redeemed_at DESC").
		Find(&redemptions).Error; err != nil {
		log.Printf("DB Error fetching redemptions for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch redemptions"})
	}

	type RedemptionSummary struct {
		ID                 string    `json:"id"`
		BenefitTitle       string    `json:"benefit_title"`
		BenefitDescription string    `json:"benefit_description"`
		Cost               int64     `json:"cost"`
		RedeemedAt         time.Time `json:"redeemed_at"`
	}
	res := make([]RedemptionSummary, len(redemptions))
	for i, r := range redemptions {
		res[i] = RedemptionSummary{
			ID:         r.ID,
			Cost:       r.CoinCost,
			RedeemedAt: r.RedeemedAt,
		}
		if r.Benefit != nil {
			res[i].BenefitTitle = r.Benefit.Title
			res[i].BenefitDescription = r.Benefit.Description
		}
	}

	return c.JSON(res)
}

// --- Admin Handlers ---

// GetAllRedemptions lists every redemption with benefit details, optionally
// filtered by a case-insensitive substring match on the benefit title.
// GET /admin/redemptions?q=filter
func (s *BenefitService) GetAllRedemptions(c *fiber.Ctx) error {
	query := s.DB.Model(&models.BenefitRedemption{}).Preload("Benefit")

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		searchTerm := "%" + strings.ToLower(q) + "%"
		query = query.
			Joins("JOIN benefits ON benefits.id = benefit_redemptions.benefit_id").
			Where("LOWER(benefits.title) LIKE ?", searchTerm)
	}

	var redemptions []models.BenefitRedemption
	if err := query.Order("redeemed_at DESC").Find(&redemptions).Error; err != nil {
		log.Printf("DB Error fetching all redemptions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch redemptions"})
	}

	return c.JSON(redemptions)
}

// CreateBenefit creates a new benefit (Admin only)
func (s *BenefitService) CreateBenefit(c *fiber.Ctx) error {
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Cost        *int64     `json:"cost"`
		ImageURL    string     `json:"image_url"`
		IsActive    *bool      `json:"is_active"`
		ExpiresAt   *time.Time `json:"expires_at"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.Cost == nil || *req.Cost < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cost must be a non-negative integer"})
	}

	benefit := &models.Benefit{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Cost:        *req.Cost,
		ImageURL:    req.ImageURL,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
	}
	if req.IsActive != nil {
		benefit.IsActive = *req.IsActive
	}

	if err := s.DB.Create(benefit).Error; err != nil {
		log.Printf("DB Error creating benefit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create benefit"})
	}

	return c.Status(fiber.StatusCreated).JSON(benefit)
}

// GetAllBenefits lists every benefit including inactive ones (Admin only)
func (s *BenefitService) GetAllBenefits(c *fiber.Ctx) error {
	var benefits []models.Benefit
	if err := s.DB.Order("created_at DESC").Find(&benefits).Error; err != nil {
		log.Printf("DB Error fetching benefits: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch benefits"})
	}
	return c.JSON(benefits)
}

// UpdateBenefit applies a partial update to a benefit (Admin only)
func (s *BenefitService) UpdateBenefit(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid benefit ID"})
	}

	var existing models.Benefit
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Benefit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Cost        *int64     `json:"cost"`
		ImageURL    *string    `json:"image_url"`
		IsActive    *bool      `json:"is_active"`
		ExpiresAt   *time.Time `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Cost != nil {
		if *req.Cost < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cost must be non-negative"})
		}
		existing.Cost = *req.Cost
	}
	if req.ImageURL != nil {
		existing.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		existing.ExpiresAt = req.ExpiresAt
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating benefit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update benefit"})
	}

	return c.JSON(existing)
}

// DeleteBenefit removes a benefit that has never been redeemed. Benefits
// with redemption history must stay for the audit trail; the delete is
// refused and the admin is pointed at deactivation instead.
func (s *BenefitService) DeleteBenefit(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid benefit ID"})
	}

	var benefit models.Benefit
	if err := s.DB.First(&benefit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Benefit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var refCount int64
	if err := s.DB.Model(&models.BenefitRedemption{}).
		Where("benefit_id = ?", id).
		Count(&refCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if refCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "benefit has redemptions and cannot be deleted — deactivate it instead",
		})
	}

	if err := s.DB.Delete(&benefit).Error; err != nil {
		log.Printf("DB Error deleting benefit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete benefit"})
	}

	return c.JSON(fiber.Map{"message": "Benefit deleted successfully"})
}

// UploadBenefitImage attaches a promo image to a benefit (Admin only).
// POST /admin/benefits/:id/image, multipart field "image" → R2.
func (s *BenefitService) UploadBenefitImage(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid benefit ID"})
	}

	var benefit models.Benefit
	if err := s.DB.First(&benefit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Benefit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	imageFile, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}

	ext := filepath.Ext(imageFile.Filename)
	if ext == "" {
		ext = ".png"
	}
	imageKey := "benefits/" + uuid.NewString() + ext
	imageURL, err := utils.UploadFileToR2(imageFile, imageKey)
	if err != nil {
		log.Printf("R2 upload failed for benefit %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload image"})
	}

	// Best-effort cleanup of the replaced image.
	if benefit.ImageURL != "" {
		if oldKey, ok := utils.R2KeyFromURL(benefit.ImageURL); ok {
			if err := utils.DeleteObjectFromR2(oldKey); err != nil {
				log.Printf("⚠️ Failed to delete old benefit image %s: %v", oldKey, err)
			}
		}
	}

	benefit.ImageURL = imageURL
	if err := s.DB.Model(&benefit).Update("image_url", imageURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save image URL"})
	}

	return c.JSON(fiber.Map{"message": "Image uploaded", "image_url": imageURL})
}
