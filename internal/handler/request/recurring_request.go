package request

// CreateRecurringRequest sets up a pre-authorized subscription pull.
type CreateRecurringRequest struct {
	PayeeAccountID string `json:"payee_account_id" binding:"required"`
	PayerAccountID string `json:"payer_account_id" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Currency       string `json:"currency" binding:"omitempty,len=3"`
	Description    string `json:"description"`
	Interval       string `json:"interval" binding:"required,oneof=daily weekly monthly yearly"`
	MaxOccurrences *int   `json:"max_occurrences" binding:"omitempty"`
}

// ListRecurringQuery filters GET /v1/recurring.
type ListRecurringQuery struct {
	PayerID string `form:"payer_id"`
	PayeeID string `form:"payee_id"`
	Status  string `form:"status" binding:"omitempty,oneof=active paused cancelled completed"`
}
