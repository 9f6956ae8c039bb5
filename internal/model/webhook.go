package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Event types emitted by committed state transitions.
const (
	EventCollectApproved          = "collect.approved"
	EventCollectDeclined          = "collect.declined"
	EventCollectExpired           = "collect.expired"
	EventPoolGoalReached          = "pool.goal_reached"
	EventPoolContributionReceived = "pool.contribution_received"
	EventPoolCancelled            = "pool.cancelled"
	EventPoolExpiredRefunded      = "pool.expired_refunded"
	EventCorridorRateLocked       = "corridor.rate_locked"
	EventCorridorSettled          = "corridor.settled"
	EventCorridorRateExpired      = "corridor.rate_expired"
	EventCorridorDriftCancelled   = "corridor.drift_cancelled"
	EventFXPoolContribution       = "fxpool.contribution_received"
	EventFXPoolGoalReached        = "fxpool.goal_reached"
	EventFXPoolRateDrifted        = "fxpool.rate_drifted"
	EventFXPoolCancelled          = "fxpool.cancelled"
	EventFXPoolExpiredRefunded    = "fxpool.expired_refunded"
	EventRecurringExecuted        = "recurring.collect_executed"
	EventRecurringCancelled       = "recurring.cancelled"
)

// WebhookSubscription is a registered delivery target. Events lists the
// subscribed event types; "*" matches everything.
type WebhookSubscription struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Events    []string  `gorm:"serializer:json" json:"events"`
	CreatedAt time.Time `json:"created_at"`
}

func (WebhookSubscription) TableName() string {
	return "webhook_subscriptions"
}

// Matches reports whether the subscription wants the given event type.
func (s *WebhookSubscription) Matches(eventType string) bool {
	for _, e := range s.Events {
		if e == "*" || e == eventType {
			return true
		}
	}
	return false
}

// Event is one committed domain event, append-only. The dispatcher consumes
// events after commit; delivery outcome never feeds back into entity state.
type Event struct {
	ID        string          `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Object    string          `gorm:"-" json:"object"`
	Type      string          `gorm:"type:varchar(48);not null;index" json:"type"`
	EntityID  string          `gorm:"type:varchar(32);not null;index" json:"entity_id"`
	Payload   json.RawMessage `gorm:"type:jsonb" json:"data"`
	EmittedAt time.Time       `json:"emitted_at"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) AfterFind(*gorm.DB) error {
	e.Object = "event"
	return nil
}
