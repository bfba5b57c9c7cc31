// workers/visit_award_worker.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultVisitAwardCoins is paid per completed service visit unless
// VISIT_AWARD_COINS overrides it.
const defaultVisitAwardCoins = 50

// VisitAwardClient pulls completed service visits from the CRM (field
// technicians close visits there, not in the portal) and pays out the
// loyalty-coin award for every completed visit exactly once.
type VisitAwardClient struct {
	BaseURL     string
	Token       string
	HTTPClient  *http.Client
	DB          *gorm.DB
	Coins       *services.CoinService
	AwardAmount int64
}

func NewVisitAwardClient(db *gorm.DB, coins *services.CoinService) *VisitAwardClient {
	baseURL := os.Getenv("CRM_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("CRM_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("PORTAL_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("PORTAL_SERVICE_TOKEN environment variable is required for visit sync")
	}

	amount := int64(defaultVisitAwardCoins)
	if v := os.Getenv("VISIT_AWARD_COINS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			amount = parsed
		}
	}

	return &VisitAwardClient{
		BaseURL:     baseURL,
		Token:       token,
		DB:          db,
		Coins:       coins,
		AwardAmount: amount,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetCompletedVisits fetches visits the CRM closed since the given time.
func (c *VisitAwardClient) GetCompletedVisits(ctx context.Context, since time.Time) ([]models.ServiceVisit, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/visits/completed", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRM base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call CRM service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("CRM service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Visits []models.ServiceVisit `json:"visits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode CRM response: %w", err)
	}

	return response.Visits, nil
}

// upsertVisits mirrors CRM-closed visits into the local table.
func (c *VisitAwardClient) upsertVisits(visits []models.ServiceVisit) {
	for _, v := range visits {
		if err := c.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "completed_at", "technician", "updated_at",
			}),
		}).Create(&v).Error; err != nil {
			log.Printf("[VISIT_AWARD] ⚠️ Failed to upsert visit %s: %v", v.ID, err)
		}
	}
}

// awardSweep pays the coin award for every completed visit that hasn't
// been paid yet. Idempotent: the award is keyed on "visit:<id>" so a
// visit is never paid twice, however often the sweep runs.
func (c *VisitAwardClient) awardSweep() {
	var visits []models.ServiceVisit
	if err := c.DB.Where("status = ?", models.VisitStatusCompleted).Find(&visits).Error; err != nil {
		log.Printf("[VISIT_AWARD] ❌ Failed to list completed visits: %v", err)
		return
	}

	for _, v := range visits {
		ref := "visit:" + v.ID
		reason := fmt.Sprintf("completed %s visit", v.Type)
		_, err := c.Coins.AwardCoins(v.UserID, c.AwardAmount, reason, &ref)
		switch {
		case errors.Is(err, services.ErrAlreadyAwarded):
			// already paid on an earlier sweep
		case err != nil:
			log.Printf("[VISIT_AWARD] ❌ Failed to award coins for visit %s: %v", v.ID, err)
		default:
			log.Printf("✅ Awarded %d coins to %s for visit %s", c.AwardAmount, v.UserID, v.ID)
		}
	}
}

// PollVisitAwards runs the CRM fetch + award sweep loop until ctx ends.
func PollVisitAwards(ctx context.Context, client *VisitAwardClient, pollInterval time.Duration) {
	log.Println("Starting visit award polling…")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Visit award polling stopped.")
			return
		case <-ticker.C:
			visits, err := client.GetCompletedVisits(ctx, lastSyncTime)
			if err != nil {
				log.Printf("[VISIT_AWARD] ❌ CRM fetch failed: %v", err)
			} else {
				if len(visits) > 0 {
					client.upsertVisits(visits)
				}
				lastSyncTime = time.Now().UTC()
			}

			client.awardSweep()
		}
	}
}
