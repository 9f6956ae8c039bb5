package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"flowpay/internal/model"
	"flowpay/internal/service/mq"
	"flowpay/internal/store"
	"flowpay/pkg/logger"
	"flowpay/pkg/monitor"
)

// envelope is the body POSTed to every subscriber endpoint.
type envelope struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Type    string          `json:"type"`
	Created time.Time       `json:"created"`
	Data    json.RawMessage `json:"data"`
}

type delivery struct {
	url     string
	body    []byte
	event   string
	attempt int
}

// Dispatcher persists domain events and fans them out to webhook
// subscribers with at-least-once delivery. Deliveries run on a fixed
// worker pool; a failed POST retries with exponential backoff up to
// maxRetries before being dropped.
type Dispatcher struct {
	store      store.Store
	producer   mq.Producer
	client     *http.Client
	topic      string
	jobs       chan delivery
	wg         sync.WaitGroup
	closeOnce  sync.Once
	maxRetries int
	baseDelay  time.Duration
}

type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
	KafkaTopic string
}

func NewDispatcher(st store.Store, producer mq.Producer, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if producer == nil {
		producer = mq.NoopProducer{}
	}

	d := &Dispatcher{
		store:      st,
		producer:   producer,
		client:     &http.Client{Timeout: opts.Timeout},
		topic:      opts.KafkaTopic,
		jobs:       make(chan delivery, opts.QueueSize),
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
	}
	d.start(opts.Workers)
	return d
}

func (d *Dispatcher) start(workers int) {
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Emit records the event, publishes it to the broker and enqueues one
// delivery per matching subscription. Persistence failures are returned;
// delivery failures are handled asynchronously by the workers.
func (d *Dispatcher) Emit(ctx context.Context, eventType, entityID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	ev := &model.Event{
		ID:        model.NewID(model.PrefixEvent),
		Object:    "event",
		Type:      eventType,
		EntityID:  entityID,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}
	if err := d.store.AppendEvent(ctx, ev); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	body, err := json.Marshal(envelope{
		ID:      ev.ID,
		Object:  ev.Object,
		Type:    ev.Type,
		Created: ev.EmittedAt,
		Data:    payload,
	})
	if err != nil {
		return err
	}

	if d.topic != "" {
		if err := d.producer.Publish(ctx, d.topic, entityID, body); err != nil {
			logger.Warn("event broker publish failed",
				zap.String("event", eventType), zap.Error(err))
		}
	}

	subs, err := d.store.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	for _, sub := range subs {
		if !sub.Matches(eventType) {
			continue
		}
		select {
		case d.jobs <- delivery{url: sub.URL, body: body, event: eventType}:
		default:
			monitor.Business.WebhookDeliveriesTotal.WithLabelValues("dropped").Inc()
			logger.Warn("webhook queue full, delivery dropped",
				zap.String("url", sub.URL), zap.String("event", eventType))
		}
	}
	return nil
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for job := range d.jobs {
		d.deliver(job)
	}
}

func (d *Dispatcher) deliver(job delivery) {
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.baseDelay * time.Duration(1<<(attempt-1)))
		}
		if d.post(job) {
			monitor.Business.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
			return
		}
	}
	monitor.Business.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
	logger.Error("webhook delivery exhausted retries",
		zap.String("url", job.url), zap.String("event", job.event))
}

func (d *Dispatcher) post(job delivery) bool {
	req, err := http.NewRequest(http.MethodPost, job.url, bytes.NewReader(job.body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-FlowPay-Event", job.event)

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Shutdown drains the queue and waits for in-flight deliveries. Safe to
// call more than once.
func (d *Dispatcher) Shutdown() {
	d.closeOnce.Do(func() {
		close(d.jobs)
		d.wg.Wait()
		_ = d.producer.Close()
	})
}
