package model

import (
	"time"

	"gorm.io/gorm"
)

// Collect statuses. Pending is the only non-terminal state.
const (
	CollectPending  = "pending"
	CollectApproved = "approved"
	CollectDeclined = "declined"
	CollectExpired  = "expired"
)

// Collect is a receiver-initiated pull payment request awaiting payer approval.
// Amounts are integer minor units. NessieTransferID is set iff status is approved.
type Collect struct {
	ID             string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Object         string `gorm:"-" json:"object"`
	Status         string `gorm:"type:varchar(16);not null;index" json:"status"`
	Amount         int64  `gorm:"not null" json:"amount"`
	Currency       string `gorm:"type:varchar(3);not null" json:"currency"`
	Description    string `gorm:"type:text" json:"description"`
	PayeeAccountID string `gorm:"type:varchar(64);not null;index" json:"payee_account_id"`
	PayerAccountID string `gorm:"type:varchar(64);not null;index" json:"payer_account_id"`

	NessieTransferID string     `gorm:"type:varchar(64)" json:"nessie_transfer_id,omitempty"`
	DeclineReason    string     `gorm:"type:text" json:"decline_reason,omitempty"`
	ExpiresAt        time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	DeclinedAt       *time.Time `json:"declined_at,omitempty"`

	Metadata map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`

	Version int64 `gorm:"not null;default:1" json:"version"`
}

func (Collect) TableName() string {
	return "collects"
}

// AfterFind restores the non-persisted object tag after a DB read.
func (c *Collect) AfterFind(*gorm.DB) error {
	c.Object = "collect"
	return nil
}

// Terminal reports whether no further transitions are possible.
func (c *Collect) Terminal() bool {
	return c.Status != CollectPending
}

// ExpiredBy reports whether the collect's window has closed at the given time.
func (c *Collect) ExpiredBy(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
