package errno

import "fmt"

// Errno carries the HTTP status plus the stable error type/code strings that
// go out in the API error envelope.
type Errno struct {
	HTTPStatus int
	Type       string
	Code       string
	Message    string
	Param      string
	Extra      map[string]interface{}
}

func (e *Errno) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Code, e.Message)
}

// WithMessage returns a copy with a formatted message. The base errnos are
// shared package vars, so mutations always go through copies.
func (e *Errno) WithMessage(format string, args ...interface{}) *Errno {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// WithParam returns a copy pointing at the offending request parameter.
func (e *Errno) WithParam(param string) *Errno {
	c := *e
	c.Param = param
	return &c
}

// WithExtra returns a copy with an additional envelope field attached
// (e.g. nessie_balance, expired_at, drift_pct).
func (e *Errno) WithExtra(key string, value interface{}) *Errno {
	c := *e
	c.Extra = make(map[string]interface{}, len(e.Extra)+1)
	for k, v := range e.Extra {
		c.Extra[k] = v
	}
	c.Extra[key] = value
	return &c
}

// Decode converts an arbitrary error to an Errno for the response envelope.
func Decode(err error) *Errno {
	if err == nil {
		return nil
	}
	if typed, ok := err.(*Errno); ok {
		return typed
	}
	return InternalServerError.WithMessage("%s", err.Error())
}

// Common errors
var (
	InternalServerError = &Errno{HTTPStatus: 500, Type: "api_error", Code: "internal_error", Message: "Internal server error"}
	ErrBind             = &Errno{HTTPStatus: 400, Type: "invalid_request_error", Code: "invalid_request", Message: "Request body could not be parsed"}
	ErrNotFound         = &Errno{HTTPStatus: 404, Type: "invalid_request_error", Code: "not_found", Message: "Resource not found"}
	ErrInvalidStatus    = &Errno{HTTPStatus: 400, Type: "invalid_request_error", Code: "invalid_status", Message: "Operation not allowed in the current status"}
	ErrConcurrentUpdate = &Errno{HTTPStatus: 409, Type: "api_error", Code: "concurrent_modification", Message: "Entity was modified concurrently, retry the request"}
)

// Idempotency errors
var (
	ErrDuplicateIdempotencyKey = &Errno{HTTPStatus: 409, Type: "idempotency_error", Code: "duplicate_idempotency_key", Message: "A request with this Idempotency-Key is still in flight"}
	ErrIdempotencyKeyReused    = &Errno{HTTPStatus: 400, Type: "invalid_request_error", Code: "idempotency_key_reused", Message: "Idempotency-Key was reused with a different request payload"}
)

// Payment errors
var (
	ErrInsufficientFunds  = &Errno{HTTPStatus: 402, Type: "payment_error", Code: "insufficient_funds", Message: "Payer account balance is insufficient"}
	ErrTransferFailed     = &Errno{HTTPStatus: 500, Type: "api_error", Code: "nessie_transfer_failed", Message: "Nessie transfer failed"}
	ErrBalanceUnavailable = &Errno{HTTPStatus: 400, Type: "api_error", Code: "nessie_balance_unavailable", Message: "Failed to fetch payer balance from Nessie"}
)

// Lifecycle errors
var (
	ErrCollectExpired = &Errno{HTTPStatus: 410, Type: "invalid_request_error", Code: "collect_expired", Message: "This collect request has expired"}
	ErrPoolExpired    = &Errno{HTTPStatus: 422, Type: "pool_error", Code: "pool_expired", Message: "Pool deadline has passed"}
	ErrFXPoolExpired  = &Errno{HTTPStatus: 422, Type: "fxpool_error", Code: "fxpool_expired", Message: "FX pool deadline has passed"}
)

// FX corridor errors
var (
	ErrRateLockExpired   = &Errno{HTTPStatus: 410, Type: "corridor_error", Code: "rate_lock_expired", Message: "The FX rate lock has expired, create a new corridor"}
	ErrRateDriftExceeded = &Errno{HTTPStatus: 422, Type: "corridor_error", Code: "rate_drift_exceeded", Message: "FX rate moved beyond the allowed drift tolerance"}
	ErrRateUnavailable   = &Errno{HTTPStatus: 500, Type: "api_error", Code: "rate_unavailable", Message: "Failed to fetch a spot rate"}
)
