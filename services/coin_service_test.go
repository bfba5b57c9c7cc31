package services

import (
	"testing"

	"hvac-portal-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardCoins_CreatesAndIncrements(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)
	userID := uuid.NewString()

	// First award creates the balance row.
	txRow, err := svc.AwardCoins(userID, 50, "welcome bonus", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), txRow.Amount)
	assert.Equal(t, models.CoinTransactionAward, txRow.Type)
	assert.Equal(t, int64(50), currentBalance(t, db, userID))

	// Second award increments it.
	_, err = svc.AwardCoins(userID, 25, "service visit", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(75), currentBalance(t, db, userID))

	var audits int64
	db.Model(&models.CoinTransaction{}).Where("user_id = ?", userID).Count(&audits)
	assert.Equal(t, int64(2), audits)
}

func TestAwardCoins_RejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	_, err := svc.AwardCoins(uuid.NewString(), 0, "nothing", nil)
	assert.Error(t, err)
	_, err = svc.AwardCoins(uuid.NewString(), -10, "clawback", nil)
	assert.Error(t, err)
}

func TestAwardCoins_IdempotentByReference(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)
	userID := uuid.NewString()
	ref := "visit:" + uuid.NewString()

	_, err := svc.AwardCoins(userID, 50, "completed visit", &ref)
	require.NoError(t, err)

	// Same reference again: no-op signalled by ErrAlreadyAwarded.
	_, err = svc.AwardCoins(userID, 50, "completed visit", &ref)
	require.ErrorIs(t, err, ErrAlreadyAwarded)
	assert.Equal(t, int64(50), currentBalance(t, db, userID))

	var audits int64
	db.Model(&models.CoinTransaction{}).Where("user_id = ?", userID).Count(&audits)
	assert.Equal(t, int64(1), audits)
}

func TestEnsureBalance_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)
	userID := uuid.NewString()

	require.NoError(t, svc.EnsureBalance(userID))
	assert.Equal(t, int64(0), currentBalance(t, db, userID))

	// A second call must not reset an earned balance.
	_, err := svc.AwardCoins(userID, 30, "bonus", nil)
	require.NoError(t, err)
	require.NoError(t, svc.EnsureBalance(userID))
	assert.Equal(t, int64(30), currentBalance(t, db, userID))
}

func TestAwardThenRedeemFlow(t *testing.T) {
	// The two writers of CoinBalance compose: award → redeem → award.
	db := newTestDB(t)
	coins := NewCoinService(db)
	benefits := NewBenefitService(db)
	userID := uuid.NewString()

	benefit := seedBenefit(t, db, "Free Filter", 80, true)

	_, err := coins.AwardCoins(userID, 100, "install bonus", nil)
	require.NoError(t, err)

	_, err = benefits.Redeem(userID, benefit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), currentBalance(t, db, userID))

	_, err = coins.AwardCoins(userID, 60, "maintenance visit", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(80), currentBalance(t, db, userID))

	_, err = benefits.Redeem(userID, benefit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), currentBalance(t, db, userID))
}
