package model

import (
	"time"

	"gorm.io/gorm"
)

// Pool statuses. Collecting is the only non-terminal state.
const (
	PoolCollecting = "collecting"
	PoolFunded     = "funded"
	PoolCancelled  = "cancelled"
	PoolExpired    = "expired"
)

// Deadline-miss policies.
const (
	DeadlineRefundAll     = "refund_all"
	DeadlineSettlePartial = "settle_partial"
)

// Contribution is one payer's share of a pool. TransferID is the Nessie
// transfer that moved the funds; a contribution without one never counted.
type Contribution struct {
	ID               string    `json:"id"`
	PayerAccountID   string    `json:"payer_account_id"`
	Amount           int64     `json:"amount"`
	NessieTransferID string    `json:"nessie_transfer_id"`
	RefundID         string    `json:"refund_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Pool is a group collection toward a fixed goal. CollectedAmount is derived:
// it must always equal the sum of contributions whose transfer succeeded and
// was never reversed.
type Pool struct {
	ID                 string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Object             string `gorm:"-" json:"object"`
	Status             string `gorm:"type:varchar(24);not null;index" json:"status"`
	GoalAmount         int64  `gorm:"not null" json:"goal_amount"`
	CollectedAmount    int64  `gorm:"not null;default:0" json:"collected_amount"`
	Currency           string `gorm:"type:varchar(3);not null" json:"currency"`
	Description        string `gorm:"type:text" json:"description"`
	OrganizerAccountID string `gorm:"type:varchar(64);not null" json:"organizer_account_id"`
	PayeeAccountID     string `gorm:"type:varchar(64);not null" json:"payee_account_id"`
	OnDeadlineMiss     string `gorm:"type:varchar(16);not null" json:"on_deadline_miss"`

	Contributions []Contribution `gorm:"serializer:json" json:"-"`

	ParticipantCount   int      `gorm:"-" json:"participant_count"`
	ContributionsCount int      `gorm:"-" json:"contributions_count"`
	NessieTransferIDs  []string `gorm:"serializer:json" json:"nessie_transfer_ids"`
	RefundIDs          []string `gorm:"serializer:json" json:"refund_ids,omitempty"`
	NessieSettlementID string   `gorm:"type:varchar(64)" json:"nessie_settlement_id,omitempty"`

	Deadline  time.Time  `gorm:"not null" json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	FundedAt  *time.Time `json:"funded_at,omitempty"`

	Version int64 `gorm:"not null;default:1" json:"version"`
}

func (Pool) TableName() string {
	return "pools"
}

func (p *Pool) AfterFind(*gorm.DB) error {
	p.Object = "pool"
	return nil
}

func (p *Pool) Terminal() bool {
	return p.Status != PoolCollecting
}

func (p *Pool) ExpiredBy(now time.Time) bool {
	return now.After(p.Deadline)
}

// Recount refreshes the derived participant and contribution counters.
func (p *Pool) Recount() {
	payers := make(map[string]struct{}, len(p.Contributions))
	for _, c := range p.Contributions {
		payers[c.PayerAccountID] = struct{}{}
	}
	p.ParticipantCount = len(payers)
	p.ContributionsCount = len(p.Contributions)
}
