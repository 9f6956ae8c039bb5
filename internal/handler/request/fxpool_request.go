package request

// CreateFXPoolRequest opens a multi-currency pool with a USD goal.
type CreateFXPoolRequest struct {
	OrganizerAccountID string  `json:"organizer_account_id" binding:"required"`
	PayeeAccountID     string  `json:"payee_account_id" binding:"required"`
	GoalAmountUSD      int64   `json:"goal_amount_usd" binding:"required,gt=0"`
	Description        string  `json:"description"`
	DeadlineMinutes    int     `json:"deadline_minutes" binding:"omitempty,gt=0"`
	OnDeadlineMiss     string  `json:"on_deadline_miss" binding:"omitempty,oneof=refund_all settle_partial"`
	MaxRateDriftPct    float64 `json:"max_rate_drift_pct" binding:"omitempty,gt=0"`
}

// FXContributeRequest contributes in the payer's local currency.
type FXContributeRequest struct {
	PayerAccountID string `json:"payer_account_id" binding:"required"`
	Currency       string `json:"currency" binding:"required,len=3"`
	AmountLocal    int64  `json:"amount_local" binding:"required,gt=0"`
}
