// services/scheduler.go
package services

import (
	"log"
	"time"

	"hvac-portal-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartPublishScheduler flips scheduled products to published once their
// publish time arrives. Runs every minute.
func (s *CatalogService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var products []models.Product
			now := time.Now()
			err := s.DB.Where("status = ? AND publish_at <= ?", models.ProductStatusScheduled, now).
				Find(&products).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, p := range products {
				p.Status = models.ProductStatusPublished
				p.PublishAt = nil
				if err := s.DB.Save(&p).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish product %s: %v", p.ID, err)
				} else {
					log.Printf("✅ Auto-published product: %s", p.Name)
				}
			}
		}),
	)
}

// StartExpiryScheduler deactivates benefits whose expiry date has passed.
// Redemption history stays; the benefit just stops being redeemable.
// Runs hourly.
func (s *BenefitService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			res := s.DB.Model(&models.Benefit{}).
				Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, time.Now()).
				Update("is_active", false)
			if res.Error != nil {
				log.Printf("[Scheduler] Benefit expiry sweep failed: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("✅ Deactivated %d expired benefit(s)", res.RowsAffected)
			}
		}),
	)
}
