package mq

import "context"

// NoopProducer drops every message. Used when no broker is configured.
type NoopProducer struct{}

func (NoopProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	return nil
}

func (NoopProducer) Close() error { return nil }
