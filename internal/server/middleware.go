package server

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowpay/internal/handler/response"
	"flowpay/internal/idempotency"
	"flowpay/pkg/errno"
	"flowpay/pkg/logger"
	"flowpay/pkg/monitor"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "X-Idempotency-Replayed"
	headerVersion        = "X-FlowPay-Version"
)

// VersionHeader stamps every response with the API version.
func VersionHeader(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(headerVersion, version)
		c.Next()
	}
}

// bodyCapture tees the response body so a successful result can be stored
// for replay.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency deduplicates mutating requests by the client-supplied
// Idempotency-Key header. A replayed key returns the original response
// byte for byte with X-Idempotency-Replayed set; a key still in flight
// fails 409; a key reused with a different payload fails 400. Only 2xx
// responses are stored, so a failed request may be retried with the same
// key.
func Idempotency(cache idempotency.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(headerIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, errno.ErrBind)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		fingerprint := idempotency.Fingerprint(c.Request.Method, c.Request.URL.Path, body)
		outcome, stored, err := cache.Admit(c.Request.Context(), key, fingerprint)
		if err == idempotency.ErrFingerprintMismatch {
			response.Error(c, errno.ErrIdempotencyKeyReused.WithParam(headerIdempotencyKey))
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}

		switch outcome {
		case idempotency.Replay:
			monitor.Business.IdempotencyReplays.Inc()
			c.Header(headerReplayed, "true")
			c.Data(stored.Status, "application/json", stored.Body)
			c.Abort()
			return
		case idempotency.Conflict:
			response.Error(c, errno.ErrDuplicateIdempotencyKey.WithParam(headerIdempotencyKey))
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			err = cache.Complete(c.Request.Context(), key, idempotency.StoredResponse{
				Status: status,
				Body:   capture.buf.Bytes(),
			})
		} else {
			err = cache.Forget(c.Request.Context(), key)
		}
		if err != nil {
			logger.Warn("idempotency record update failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}
