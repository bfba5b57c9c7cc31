// services/coin_service.go
package services

import (
	"errors"
	"log"
	"time"

	"hvac-portal-system/middleware"
	"hvac-portal-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyAwarded is returned when an award's reference ID has been
// paid out before. Callers treat it as a no-op, not a failure.
var ErrAlreadyAwarded = errors.New("coins already awarded for this reference")

type CoinService struct {
	DB *gorm.DB
}

func NewCoinService(db *gorm.DB) *CoinService {
	return &CoinService{DB: db}
}

// AwardCoins credits amount coins to a user's balance and records the
// audit transaction, as one atomic unit. The balance row is created on
// first award. referenceID, when set, makes the award idempotent: a
// second call with the same reference returns ErrAlreadyAwarded and
// changes nothing.
func (s *CoinService) AwardCoins(userID string, amount int64, reason string, referenceID *string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, errors.New("award amount must be positive")
	}

	txRow := &models.CoinTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.CoinTransactionAward,
		Reason:      reason,
		ReferenceID: referenceID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if referenceID != nil {
			var count int64
			if err := tx.Model(&models.CoinTransaction{}).
				Where("reference_id = ?", *referenceID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyAwarded
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":    gorm.Expr("coin_balances.balance + ?", amount),
				"updated_at": time.Now(),
			}),
		}).Create(&models.CoinBalance{UserID: userID, Balance: amount}).Error; err != nil {
			return err
		}

		return tx.Create(txRow).Error
	})
	if err != nil {
		return nil, err
	}

	return txRow, nil
}

// EnsureBalance creates the zero-coin balance row for a new user account.
// Idempotent; called by the user sync worker when it first sees a customer.
func (s *CoinService) EnsureBalance(userID string) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.CoinBalance{UserID: userID, Balance: 0}).Error
}

// --- User Handlers ---

// GetMyCoins returns the caller's balance plus recent transactions.
// GET /users/me/coins
func (s *CoinService) GetMyCoins(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var balance models.CoinBalance
	if err := s.DB.First(&balance, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no coin balance for user"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var transactions []models.CoinTransaction
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&transactions).Error; err != nil {
		log.Printf("DB Error fetching coin transactions for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}

	return c.JSON(fiber.Map{
		"balance":      balance.Balance,
		"transactions": transactions,
	})
}

// --- Admin Handlers ---

// AwardCoinsEndpoint lets an admin credit coins to a customer account.
// POST /admin/users/:user_id/coins/award
func (s *CoinService) AwardCoinsEndpoint(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req struct {
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be a positive integer"})
	}

	txRow, err := s.AwardCoins(userID, req.Amount, req.Reason, nil)
	if err != nil {
		log.Printf("DB Error awarding coins to %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to award coins"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Coins awarded",
		"transaction": txRow,
	})
}
