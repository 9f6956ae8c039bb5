package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FXPool statuses. Collecting is the only non-terminal state.
const (
	FXPoolCollecting    = "collecting"
	FXPoolFunded        = "funded"
	FXPoolCancelled     = "cancelled"
	FXPoolDriftRefunded = "drift_refunded"
	FXPoolExpired       = "expired"
)

// FXContribution is one payer's share in their local currency, with the
// currency→USD rate observed at contribution time. Refunds always use
// AmountLocal in the original currency, never the USD equivalent.
type FXContribution struct {
	ID               string          `json:"id"`
	PayerAccountID   string          `json:"payer_account_id"`
	Currency         string          `json:"currency"`
	AmountLocal      int64           `json:"amount_local"`
	AmountUSD        int64           `json:"amount_usd"`
	USDRate          decimal.Decimal `json:"usd_rate"`
	MaxDriftPct      decimal.Decimal `json:"max_drift_pct"`
	NessieTransferID string          `json:"nessie_transfer_id"`
	RefundID         string          `json:"refund_id,omitempty"`
	CreatedAt        time.Time       `json:"contributed_at"`
}

// FXPool is a group collection whose goal is expressed in USD minor units
// while contributions arrive in arbitrary local currencies.
type FXPool struct {
	ID                 string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Object             string `gorm:"-" json:"object"`
	Status             string `gorm:"type:varchar(24);not null;index" json:"status"`
	GoalAmountUSD      int64  `gorm:"not null" json:"goal_amount_usd"`
	CollectedUSD       int64  `gorm:"not null;default:0" json:"collected_usd"`
	Description        string `gorm:"type:text" json:"description"`
	OrganizerAccountID string `gorm:"type:varchar(64);not null" json:"organizer_account_id"`
	PayeeAccountID     string `gorm:"type:varchar(64);not null" json:"payee_account_id"`
	OnDeadlineMiss     string `gorm:"type:varchar(16);not null" json:"on_deadline_miss"`

	MaxRateDriftPct decimal.Decimal `gorm:"type:decimal(8,4)" json:"max_rate_drift_pct"`

	Contributions []FXContribution `gorm:"serializer:json" json:"-"`

	ContributionsCount  int      `gorm:"-" json:"contributions_count"`
	CurrenciesCollected []string `gorm:"serializer:json" json:"currencies_collected"`
	RefundIDs           []string `gorm:"serializer:json" json:"refund_ids,omitempty"`
	NessieSettlementID  string   `gorm:"type:varchar(64)" json:"nessie_settlement_id,omitempty"`

	Deadline  time.Time  `gorm:"not null" json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	FundedAt  *time.Time `json:"funded_at,omitempty"`

	Version int64 `gorm:"not null;default:1" json:"version"`
}

func (FXPool) TableName() string {
	return "fx_pools"
}

func (p *FXPool) AfterFind(*gorm.DB) error {
	p.Object = "fx_pool"
	return nil
}

func (p *FXPool) Terminal() bool {
	return p.Status != FXPoolCollecting
}

func (p *FXPool) ExpiredBy(now time.Time) bool {
	return now.After(p.Deadline)
}

// AddCurrency records a contributed currency with set semantics.
func (p *FXPool) AddCurrency(currency string) {
	for _, c := range p.CurrenciesCollected {
		if c == currency {
			return
		}
	}
	p.CurrenciesCollected = append(p.CurrenciesCollected, currency)
}
