package model

import (
	"time"

	"gorm.io/gorm"
)

// Recurring collect statuses.
const (
	RecurringActive    = "active"
	RecurringPaused    = "paused"
	RecurringCancelled = "cancelled"
	RecurringCompleted = "completed"
)

// Recurring intervals.
const (
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// RecurringCollect is a pre-authorized subscription pull: once the payer
// approves, occurrences execute on a schedule without further approvals.
type RecurringCollect struct {
	ID             string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Object         string `gorm:"-" json:"object"`
	Status         string `gorm:"type:varchar(16);not null;index" json:"status"`
	PayeeAccountID string `gorm:"type:varchar(64);not null;index" json:"payee_account_id"`
	PayerAccountID string `gorm:"type:varchar(64);not null;index" json:"payer_account_id"`
	Amount         int64  `gorm:"not null" json:"amount"`
	Currency       string `gorm:"type:varchar(3);not null" json:"currency"`
	Description    string `gorm:"type:text" json:"description"`
	Interval       string `gorm:"type:varchar(12);not null" json:"interval"`

	OccurrencesCount int  `gorm:"not null;default:0" json:"occurrences_count"`
	MaxOccurrences   *int `json:"max_occurrences"`
	PreApproved      bool `gorm:"not null;default:true" json:"pre_approved"`

	CreatedAt     time.Time  `json:"created_at"`
	NextCollectAt *time.Time `json:"next_collect_at,omitempty"`

	Version int64 `gorm:"not null;default:1" json:"version"`
}

func (RecurringCollect) TableName() string {
	return "recurring_collects"
}

func (r *RecurringCollect) AfterFind(*gorm.DB) error {
	r.Object = "recurring_collect"
	return nil
}

func (r *RecurringCollect) Terminal() bool {
	return r.Status == RecurringCancelled || r.Status == RecurringCompleted
}

// IntervalDuration maps the interval name onto a wall-clock duration.
func (r *RecurringCollect) IntervalDuration() time.Duration {
	switch r.Interval {
	case IntervalDaily:
		return 24 * time.Hour
	case IntervalWeekly:
		return 7 * 24 * time.Hour
	case IntervalYearly:
		return 365 * 24 * time.Hour
	default: // monthly
		return 30 * 24 * time.Hour
	}
}

// DueBy reports whether an occurrence should fire at the given time.
func (r *RecurringCollect) DueBy(now time.Time) bool {
	return r.Status == RecurringActive && r.NextCollectAt != nil && !now.Before(*r.NextCollectAt)
}
