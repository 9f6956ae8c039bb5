package request

// CreateCorridorRequest creates a cross-border transfer with a fresh rate
// lock. Amounts are target-currency minor units.
type CreateCorridorRequest struct {
	SourceCurrency      string  `json:"source_currency" binding:"required,len=3"`
	TargetCurrency      string  `json:"target_currency" binding:"required,len=3"`
	SourceAccountID     string  `json:"source_account_id" binding:"required"`
	TargetAccountID     string  `json:"target_account_id" binding:"required"`
	AmountTarget        int64   `json:"amount_target_cents" binding:"required,gt=0"`
	Description         string  `json:"description"`
	LockDurationMinutes int     `json:"lock_duration_minutes" binding:"omitempty,gt=0"`
	MaxDriftPct         float64 `json:"max_rate_drift_pct" binding:"omitempty,gt=0"`
}
