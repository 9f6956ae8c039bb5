// Package idempotency deduplicates mutating requests by client-supplied key.
// Admit/Complete bracket a request: the first sight of a key wins the right
// to proceed, a concurrent duplicate conflicts instead of blocking, and a
// finished request replays its stored response verbatim for the retention
// window.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Outcome of Admit for a given key.
type Outcome int

const (
	// Proceed: first sight, an in-flight record is now held; the caller
	// must Complete the key after producing a response.
	Proceed Outcome = iota
	// Replay: the key completed earlier; serve the stored response.
	Replay
	// Conflict: the key is still in flight on another request.
	Conflict
)

// ErrFingerprintMismatch means the key was reused with a different
// method/path/body than first recorded.
var ErrFingerprintMismatch = errors.New("idempotency key reused with a different request")

// StoredResponse is the verbatim response to replay.
type StoredResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Record is the cache entry behind a key.
type Record struct {
	Fingerprint string          `json:"fingerprint"`
	State       string          `json:"state"` // in_flight | completed
	Response    *StoredResponse `json:"response,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

const (
	stateInFlight  = "in_flight"
	stateCompleted = "completed"
)

// Cache is the idempotency store. Admit and Complete are atomic per key.
type Cache interface {
	Admit(ctx context.Context, key, fingerprint string) (Outcome, *StoredResponse, error)
	Complete(ctx context.Context, key string, resp StoredResponse) error
	// Forget drops an in-flight record so a failed request that produced no
	// response does not wedge its key until eviction.
	Forget(ctx context.Context, key string) error
}

// Fingerprint hashes the request identity (method + path + body).
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
