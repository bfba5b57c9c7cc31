// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUserChangesResponse is the top-level shape of the auth service's
// directory-changes endpoint.
type GetUserChangesResponse struct {
	Users []models.RemoteUser `json:"users"`
}

// PortalUserSyncWorker mirrors the auth service's user directory into the
// local portal_users table so back-office screens and the coin ledger can
// work without per-request calls upstream. New customer accounts get a
// zero-coin balance row the first time they appear.
type PortalUserSyncWorker struct {
	db           *gorm.DB
	coins        *services.CoinService
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/users"
	serviceToken string
	httpClient   *http.Client
}

func NewPortalUserSyncWorker(db *gorm.DB, coins *services.CoinService, authServiceBaseURL, endpointPath, serviceToken string) *PortalUserSyncWorker {
	return &PortalUserSyncWorker{
		db:           db,
		coins:        coins,
		interval:     1 * time.Minute,
		baseURL:      authServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *PortalUserSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Portal User Sync Worker (auth-service → portal_users)…")
	go w.run(ctx)
}

func (w *PortalUserSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial user sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ User sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Portal User Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror.
func (w *PortalUserSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM portal_users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches directory changes since the given time and upserts them.
func (w *PortalUserSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid auth service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to auth service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("auth service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode auth service response: %w", err)
	}

	if len(response.Users) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d user(s) from auth service…", len(response.Users))

	var upsertCount, errorCount int
	for _, remote := range response.Users {
		role := models.RoleUser
		if models.ValidRole(remote.Role) {
			role = models.Role(remote.Role)
		}
		locale := remote.Locale
		if locale == "" {
			locale = "en"
		}

		local := models.PortalUser{
			ID:             uuid.NewString(),
			ExternalUserID: remote.ExternalID,
			Username:       remote.Username,
			Email:          remote.Email,
			FirstName:      remote.FirstName,
			LastName:       remote.LastName,
			Phone:          remote.Phone,
			Locale:         locale,
			Role:           role,
			CreatedAt:      remote.CreatedAt,
			UpdatedAt:      remote.UpdatedAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "email", "first_name", "last_name",
				"phone", "locale", "role", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert portal_user (external_id=%q): %v", remote.ExternalID, err)
			continue
		}
		upsertCount++

		// Customers need a balance row before they can earn or redeem.
		if role == models.RoleUser {
			if err := w.coins.EnsureBalance(remote.ExternalID); err != nil {
				log.Printf("[SYNC] ⚠️ Failed to ensure coin balance for %s: %v", remote.ExternalID, err)
			}
		}
	}

	log.Printf("[SYNC] ✅ Synced %d user(s) (%d upserted, %d errors)", len(response.Users), upsertCount, errorCount)
	return nil
}
