package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Corridor statuses. RateLocked is the only non-terminal state.
const (
	CorridorRateLocked     = "rate_locked"
	CorridorRemitted       = "remitted"
	CorridorExpired        = "expired"
	CorridorDriftCancelled = "drift_cancelled"
)

// Rate lock statuses.
const (
	RateLockActive  = "active"
	RateLockUsed    = "used"
	RateLockExpired = "expired"
	RateLockDrifted = "drifted"
)

// RateLock is an exchange rate captured at a point in time, valid until
// ExpiresAt and subject to MaxDriftPct tolerance at execution time.
// Rate means: 1 unit of source currency = Rate units of target currency.
type RateLock struct {
	ID          string          `json:"id"`
	Rate        decimal.Decimal `json:"rate"`
	MaxDriftPct decimal.Decimal `json:"max_drift_pct"`
	Status      string          `json:"status"`
	LockedAt    time.Time       `json:"locked_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// Corridor is a single cross-border transfer executed at a time-boxed,
// drift-checked locked rate. AmountSource is derived from AmountTarget and
// the locked rate at creation time and never recomputed afterwards.
type Corridor struct {
	ID              string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Object          string `gorm:"-" json:"object"`
	Status          string `gorm:"type:varchar(24);not null;index" json:"status"`
	Description     string `gorm:"type:text" json:"description"`
	SourceCurrency  string `gorm:"type:varchar(3);not null" json:"source_currency"`
	TargetCurrency  string `gorm:"type:varchar(3);not null" json:"target_currency"`
	SourceAccountID string `gorm:"type:varchar(64);not null" json:"source_account_id"`
	TargetAccountID string `gorm:"type:varchar(64);not null" json:"target_account_id"`
	AmountTarget    int64  `gorm:"not null" json:"amount_target_cents"`
	AmountSource    int64  `gorm:"not null" json:"amount_source_cents"`

	RateLock RateLock `gorm:"serializer:json" json:"rate_lock"`

	NessieTransferID string     `gorm:"type:varchar(64)" json:"nessie_transfer_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	RemittedAt       *time.Time `json:"remitted_at,omitempty"`

	Version int64 `gorm:"not null;default:1" json:"version"`
}

func (Corridor) TableName() string {
	return "corridors"
}

func (c *Corridor) AfterFind(*gorm.DB) error {
	c.Object = "corridor"
	return nil
}

func (c *Corridor) Terminal() bool {
	return c.Status != CorridorRateLocked
}

// LockExpiredBy reports whether the rate lock window has closed.
func (c *Corridor) LockExpiredBy(now time.Time) bool {
	return now.After(c.RateLock.ExpiresAt)
}
