package request

// CreateCollectRequest creates a pending pull-payment request.
type CreateCollectRequest struct {
	PayeeAccountID   string            `json:"payee_account_id" binding:"required"`
	PayerAccountID   string            `json:"payer_account_id" binding:"required"`
	Amount           int64             `json:"amount" binding:"required,gt=0"`
	Currency         string            `json:"currency" binding:"omitempty,len=3"`
	Description      string            `json:"description"`
	ExpiresInMinutes int               `json:"expires_in_minutes" binding:"omitempty,gt=0"`
	Metadata         map[string]string `json:"metadata"`
}

// DeclineCollectRequest carries the optional decline reason.
type DeclineCollectRequest struct {
	Reason string `json:"reason"`
}

// ListCollectsQuery filters GET /v1/collects.
type ListCollectsQuery struct {
	PayerID string `form:"payer_id"`
	PayeeID string `form:"payee_id"`
	Status  string `form:"status" binding:"omitempty,oneof=pending approved declined expired"`
	Limit   int    `form:"limit" binding:"omitempty,gt=0,max=100"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}
