// services/order_service.go
package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"hvac-portal-system/middleware"
	"hvac-portal-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderService struct {
	DB *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db}
}

// --- Customer Handlers ---

// PlaceOrder creates a new order from published catalog products. Line
// prices are snapshotted so later catalog edits don't rewrite the order.
// POST /orders
func (s *OrderService) PlaceOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req struct {
		Address string `json:"address"`
		Note    string `json:"note"`
		Items   []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order must contain at least one item"})
	}
	if strings.TrimSpace(req.Address) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "address is required"})
	}

	order := &models.Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		Status:   models.OrderStatusPlaced,
		Address:  req.Address,
		Note:     req.Note,
		Currency: "EUR",
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var items []models.OrderItem
		var total int64
		for _, it := range req.Items {
			if it.Quantity <= 0 {
				return errors.New("item quantity must be positive")
			}
			var product models.Product
			if err := tx.First(&product, "id = ? AND status = ?",
				it.ProductID, models.ProductStatusPublished).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.New("product not available: " + it.ProductID)
				}
				return err
			}
			if !product.InStock {
				return errors.New("product out of stock: " + product.Name)
			}
			items = append(items, models.OrderItem{
				ID:         uuid.NewString(),
				OrderID:    order.ID,
				ProductID:  product.ID,
				Name:       product.Name,
				Quantity:   it.Quantity,
				PriceCents: product.PriceCents,
			})
			total += product.PriceCents * int64(it.Quantity)
		}

		order.TotalCents = total
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		log.Printf("Failed to place order for user %s: %v", userID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.DB.Preload("Items").First(order, "id = ?", order.ID)
	return c.Status(fiber.StatusCreated).JSON(order)
}

// GetMyOrders lists the caller's orders, newest first.
// GET /users/me/orders
func (s *OrderService) GetMyOrders(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var orders []models.Order
	if err := s.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		log.Printf("DB Error fetching orders for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch orders"})
	}
	return c.JSON(orders)
}

// GetMyOrder returns one of the caller's orders. Other users' orders are
// indistinguishable from missing ones (404).
// GET /orders/:id
func (s *OrderService) GetMyOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var order models.Order
	if err := s.DB.Preload("Items").
		Where("id = ? AND user_id = ?", c.Params("id"), userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(order)
}

// GetMyVisits lists the caller's service visits, soonest scheduled first,
// completed/cancelled after.
// GET /users/me/visits
func (s *OrderService) GetMyVisits(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var visits []models.ServiceVisit
	if err := s.DB.Where("user_id = ?", userID).
		Order("CASE WHEN scheduled_at IS NULL THEN 1 ELSE 0 END, scheduled_at ASC").
		Find(&visits).Error; err != nil {
		log.Printf("DB Error fetching visits for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch visits"})
	}
	return c.JSON(visits)
}

// RequestVisit lets a customer ask for a maintenance or repair visit.
// POST /visits
func (s *OrderService) RequestVisit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req struct {
		Type    models.ServiceVisitType `json:"type"`
		Address string                  `json:"address"`
		Note    string                  `json:"note"`
		OrderID *string                 `json:"order_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch req.Type {
	case models.VisitTypeInstallation, models.VisitTypeMaintenance, models.VisitTypeRepair:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown visit type"})
	}
	if strings.TrimSpace(req.Address) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "address is required"})
	}

	// Installations must reference one of the caller's own orders.
	if req.OrderID != nil {
		var order models.Order
		if err := s.DB.Where("id = ? AND user_id = ?", *req.OrderID, userID).First(&order).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order_id not found for user"})
		}
	}

	visit := &models.ServiceVisit{
		ID:      uuid.NewString(),
		UserID:  userID,
		OrderID: req.OrderID,
		Type:    req.Type,
		Status:  models.VisitStatusRequested,
		Address: req.Address,
		Note:    req.Note,
	}
	if err := s.DB.Create(visit).Error; err != nil {
		log.Printf("DB Error creating visit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create visit"})
	}
	return c.Status(fiber.StatusCreated).JSON(visit)
}

// --- Back-office Handlers (employee/admin) ---

// GetAllOrders lists every order, optionally filtered by status.
// GET /admin/orders?status=placed
func (s *OrderService) GetAllOrders(c *fiber.Ctx) error {
	db := s.DB.Preload("Items").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var orders []models.Order
	if err := db.Find(&orders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch orders"})
	}
	return c.JSON(orders)
}

// UpdateOrderStatus moves an order along the fulfilment flow; invalid
// transitions (e.g. delivered → placed) are refused.
// PATCH /admin/orders/:id/status
func (s *OrderService) UpdateOrderStatus(c *fiber.Ctx) error {
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var order models.Order
	if err := s.DB.First(&order, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if !order.Status.CanTransitionTo(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid status transition",
			"from":  order.Status,
			"to":    req.Status,
		})
	}

	order.Status = req.Status
	if err := s.DB.Save(&order).Error; err != nil {
		log.Printf("DB Error updating order status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
	}
	return c.JSON(fiber.Map{"message": "Order status updated", "order": order})
}

// GetAllVisits lists every service visit for dispatch planning.
// GET /admin/visits?status=requested
func (s *OrderService) GetAllVisits(c *fiber.Ctx) error {
	db := s.DB.Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var visits []models.ServiceVisit
	if err := db.Find(&visits).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch visits"})
	}
	return c.JSON(visits)
}

// ScheduleVisit assigns a technician and time slot to a requested visit.
// PATCH /admin/visits/:id/schedule
func (s *OrderService) ScheduleVisit(c *fiber.Ctx) error {
	var req struct {
		ScheduledAt time.Time `json:"scheduled_at"`
		Technician  string    `json:"technician"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ScheduledAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be in the future"})
	}

	var visit models.ServiceVisit
	if err := s.DB.First(&visit, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Visit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if visit.Status != models.VisitStatusRequested && visit.Status != models.VisitStatusScheduled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "visit can no longer be scheduled"})
	}

	visit.Status = models.VisitStatusScheduled
	visit.ScheduledAt = &req.ScheduledAt
	visit.Technician = req.Technician
	if err := s.DB.Save(&visit).Error; err != nil {
		log.Printf("DB Error scheduling visit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule visit"})
	}
	return c.JSON(fiber.Map{"message": "Visit scheduled", "visit": visit})
}

// CompleteVisit marks a scheduled visit done. The award worker picks up
// completed visits and credits loyalty coins.
// PATCH /admin/visits/:id/complete
func (s *OrderService) CompleteVisit(c *fiber.Ctx) error {
	var visit models.ServiceVisit
	if err := s.DB.First(&visit, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Visit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if visit.Status != models.VisitStatusScheduled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only scheduled visits can be completed"})
	}

	now := time.Now().UTC()
	visit.Status = models.VisitStatusCompleted
	visit.CompletedAt = &now
	if err := s.DB.Save(&visit).Error; err != nil {
		log.Printf("DB Error completing visit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete visit"})
	}
	return c.JSON(fiber.Map{"message": "Visit completed", "visit": visit})
}
