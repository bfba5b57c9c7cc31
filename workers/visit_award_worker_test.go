package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hvac-portal-system/models"
	"hvac-portal-system/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// each pooled connection to :memory: would get its own database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.PortalUser{},
		&models.ServiceVisit{},
		&models.CoinBalance{},
		&models.CoinTransaction{},
	))
	return db
}

func newTestClient(t *testing.T, db *gorm.DB, baseURL string) *VisitAwardClient {
	t.Helper()
	return &VisitAwardClient{
		BaseURL:     baseURL,
		Token:       "test-token",
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
		DB:          db,
		Coins:       services.NewCoinService(db),
		AwardAmount: 50,
	}
}

func seedCompletedVisit(t *testing.T, db *gorm.DB, userID string) *models.ServiceVisit {
	t.Helper()
	now := time.Now().UTC()
	visit := &models.ServiceVisit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        models.VisitTypeMaintenance,
		Status:      models.VisitStatusCompleted,
		CompletedAt: &now,
		Technician:  "J. Petersen",
	}
	require.NoError(t, db.Create(visit).Error)
	return visit
}

func balanceOf(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var balance models.CoinBalance
	require.NoError(t, db.First(&balance, "user_id = ?", userID).Error)
	return balance.Balance
}

func TestAwardSweep_PaysEachVisitOnce(t *testing.T) {
	db := newTestDB(t)
	client := newTestClient(t, db, "http://unused")
	userID := uuid.NewString()
	seedCompletedVisit(t, db, userID)

	client.awardSweep()
	assert.Equal(t, int64(50), balanceOf(t, db, userID))

	// Re-running the sweep must not pay again.
	client.awardSweep()
	client.awardSweep()
	assert.Equal(t, int64(50), balanceOf(t, db, userID))

	var audits int64
	db.Model(&models.CoinTransaction{}).Where("user_id = ?", userID).Count(&audits)
	assert.Equal(t, int64(1), audits)
}

func TestAwardSweep_MultipleVisitsAccumulate(t *testing.T) {
	db := newTestDB(t)
	client := newTestClient(t, db, "http://unused")
	userID := uuid.NewString()
	seedCompletedVisit(t, db, userID)
	seedCompletedVisit(t, db, userID)

	// A scheduled visit pays nothing.
	require.NoError(t, db.Create(&models.ServiceVisit{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   models.VisitTypeRepair,
		Status: models.VisitStatusScheduled,
	}).Error)

	client.awardSweep()
	assert.Equal(t, int64(100), balanceOf(t, db, userID))
}

func TestGetCompletedVisits(t *testing.T) {
	visitID := uuid.NewString()
	userID := uuid.NewString()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/visits/completed", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Service-Token"))
		assert.NotEmpty(t, r.URL.Query().Get("since"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"visits":[{"id":"` + visitID + `","user_id":"` + userID + `","type":"installation","status":"completed"}]}`))
	}))
	defer srv.Close()

	db := newTestDB(t)
	client := newTestClient(t, db, srv.URL)

	visits, err := client.GetCompletedVisits(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, visitID, visits[0].ID)
	assert.Equal(t, models.VisitStatusCompleted, visits[0].Status)
}

func TestGetCompletedVisits_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "crm offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	db := newTestDB(t)
	client := newTestClient(t, db, srv.URL)

	_, err := client.GetCompletedVisits(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUpsertVisits_UpdatesExistingRow(t *testing.T) {
	db := newTestDB(t)
	client := newTestClient(t, db, "http://unused")
	userID := uuid.NewString()

	visit := models.ServiceVisit{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   models.VisitTypeInstallation,
		Status: models.VisitStatusScheduled,
	}
	require.NoError(t, db.Create(&visit).Error)

	now := time.Now().UTC()
	visit.Status = models.VisitStatusCompleted
	visit.CompletedAt = &now
	visit.Technician = "M. de Vries"
	client.upsertVisits([]models.ServiceVisit{visit})

	var got models.ServiceVisit
	require.NoError(t, db.First(&got, "id = ?", visit.ID).Error)
	assert.Equal(t, models.VisitStatusCompleted, got.Status)
	assert.Equal(t, "M. de Vries", got.Technician)

	var count int64
	db.Model(&models.ServiceVisit{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
