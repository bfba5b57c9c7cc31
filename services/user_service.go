// services/user_service.go
package services

import (
	"strconv"
	"strings"

	"hvac-portal-system/models"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers searches the local PortalUser snapshot for back-office screens.
// GET /admin/users/search?q=&limit=
func (s *CoinService) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var users []models.PortalUser
	db := s.DB.Model(&models.PortalUser{}).Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ?",
			searchTerm, searchTerm,
		)
	}

	if err := db.Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Minimal response shape; the external ID is what other services key on.
	type UserSummary struct {
		ID             string      `json:"id"`
		ExternalUserID string      `json:"external_user_id"`
		Username       string      `json:"username"`
		Email          string      `json:"email"`
		Role           models.Role `json:"role"`
		Locale         string      `json:"locale"`
	}

	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{
			ID:             u.ID,
			ExternalUserID: u.ExternalUserID,
			Username:       u.Username,
			Email:          u.Email,
			Role:           u.Role,
			Locale:         u.Locale,
		}
	}

	return c.JSON(res)
}
