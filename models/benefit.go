package models

import (
	"time"

	"gorm.io/gorm"
)

// Benefit is a loyalty-catalog entry redeemable for coins.
// Cost is a non-negative integer amount of coins. Benefits referenced
// by redemptions are never hard-deleted; admins deactivate them instead.
type Benefit struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Cost        int64      `gorm:"not null;check:cost >= 0" json:"cost"`
	ImageURL    string     `gorm:"type:text" json:"image_url,omitempty"`
	// No gorm default here: a default tag makes GORM omit an explicit
	// false on insert, silently storing an inactive benefit as active.
	// The zero value is the safe state; CreateBenefit opts rows in.
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // deactivated by scheduler once passed
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CoinBalance is the single coin account per user (1:1 with PortalUser,
// keyed by the external user ID the gateway supplies). Balance is only
// ever moved through transactional deltas — the redemption debit or the
// award credit — never assigned directly.
type CoinBalance struct {
	UserID    string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CoinBalance) TableName() string {
	return "coin_balances"
}

// CoinTransactionType tags the direction of a coin movement.
type CoinTransactionType string

const (
	CoinTransactionAward  CoinTransactionType = "award"
	CoinTransactionRedeem CoinTransactionType = "redeem"
)

// CoinTransaction is the audit row written alongside every balance delta.
// Amount is signed: positive for awards, negative for redemptions.
// ReferenceID dedupes automatic awards (e.g. one award per service visit).
type CoinTransaction struct {
	ID          string              `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string              `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount      int64               `gorm:"not null" json:"amount"`
	Type        CoinTransactionType `gorm:"size:16;not null" json:"type"`
	Reason      string              `json:"reason,omitempty"`
	ReferenceID *string             `gorm:"uniqueIndex" json:"reference_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// BenefitRedemption records a completed coin-for-benefit exchange.
// Immutable once created; never updated or deleted (audit trail).
// CoinCost is the benefit's cost at redemption time, frozen here so later
// price edits do not rewrite history.
type BenefitRedemption struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	BenefitID  string    `gorm:"type:uuid;not null;index" json:"benefit_id"`
	CoinCost   int64     `gorm:"not null" json:"coin_cost"`
	RedeemedAt time.Time `gorm:"not null;index" json:"redeemed_at"`

	Benefit *Benefit `gorm:"foreignKey:BenefitID" json:"benefit,omitempty"`
}

// BeforeUpdate blocks any mutation of a redemption row.
func (r *BenefitRedemption) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}
