package model

// AllModels returns every table-backed model for schema migration.
// New entities only need to be added here.
func AllModels() []interface{} {
	return []interface{}{
		&Collect{},
		&Pool{},
		&Corridor{},
		&FXPool{},
		&RecurringCollect{},
		&WebhookSubscription{},
		&Event{},
	}
}
