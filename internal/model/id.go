package model

import (
	"crypto/rand"
	"encoding/hex"
)

// ID prefixes, one per entity type. The prefix makes an ID self-describing
// in logs and webhook payloads.
const (
	PrefixCollect        = "clct"
	PrefixPool           = "pool"
	PrefixContribution   = "ctrb"
	PrefixCorridor       = "crdr"
	PrefixFXPool         = "fxpool"
	PrefixFXContribution = "fxc"
	PrefixRateLock       = "rate"
	PrefixRecurring      = "rec"
	PrefixWebhook        = "webhook"
	PrefixEvent          = "evt"
)

// NewID returns a type-prefixed opaque identifier, e.g. "clct_9f86d081a4b2".
func NewID(prefix string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return prefix + "_" + hex.EncodeToString(b)
}
