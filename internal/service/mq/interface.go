package mq

import "context"

// Producer publishes domain events to an external broker so downstream
// consumers (analytics, reconciliation) can react without polling the API.
type Producer interface {
	// Publish sends one message. key selects the partition; messages sharing
	// a key keep their relative order. An empty key means any partition.
	Publish(ctx context.Context, topic string, key string, payload []byte) error

	Close() error
}
