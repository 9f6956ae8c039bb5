package request

// CreatePoolRequest opens a group collection toward a fixed goal.
type CreatePoolRequest struct {
	OrganizerAccountID string `json:"organizer_account_id" binding:"required"`
	PayeeAccountID     string `json:"payee_account_id" binding:"required"`
	GoalAmount         int64  `json:"goal_amount" binding:"required,gt=0"`
	Currency           string `json:"currency" binding:"omitempty,len=3"`
	Description        string `json:"description"`
	DeadlineMinutes    int    `json:"deadline_minutes" binding:"omitempty,gt=0"`
	OnDeadlineMiss     string `json:"on_deadline_miss" binding:"omitempty,oneof=refund_all settle_partial"`
}

// ContributeRequest adds one payer's share to a pool.
type ContributeRequest struct {
	PayerAccountID string `json:"payer_account_id" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
}
