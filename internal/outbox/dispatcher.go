// Package outbox buffers roster events in memory and delivers them to Kafka in batches.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/signup/internal/events"
)

const (
	defaultMaxAttempts = 3
	drainTimeout       = 5 * time.Second
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// Config carries dispatcher tunables.
type Config struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int
	BufferSize   int
	MaxAttempts  int
}

// Dispatcher drains the in-memory outbox and delivers roster events to Kafka.
type Dispatcher struct {
	producer         messageWriter
	topic            string
	queue            chan events.RosterChanged
	pollInterval     time.Duration
	batchSize        int
	maxAttempts      int
	logger           *slog.Logger
	shutdownComplete chan struct{}

	pending  []events.RosterChanged
	attempts int
	// retrying holds delivery to the ticker until a batch succeeds again.
	retrying bool
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(producer messageWriter, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Dispatcher{
		producer:         producer,
		topic:            cfg.Topic,
		queue:            make(chan events.RosterChanged, cfg.BufferSize),
		pollInterval:     cfg.PollInterval,
		batchSize:        cfg.BatchSize,
		maxAttempts:      cfg.MaxAttempts,
		logger:           logger.With("component", "outbox"),
		shutdownComplete: make(chan struct{}),
	}
}

// Publish enqueues an event without blocking. Events are dropped when the buffer is full.
func (d *Dispatcher) Publish(_ context.Context, event events.RosterChanged) {
	select {
	case d.queue <- event:
		queueDepth.Inc()
	default:
		droppedCounter.Inc()
		d.logger.Warn("outbox buffer full, dropping roster event",
			"event_id", event.EventID,
			"event_type", event.Type,
			"activity", event.Activity,
		)
	}
}

// Start launches the delivery loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		d.drain(ctx)
		close(d.shutdownComplete)
	}()

	for {
		queue := d.queue
		if d.retrying && len(d.pending) >= d.batchSize {
			// Leave further events in the buffer until the broker recovers.
			queue = nil
		}

		select {
		case <-ctx.Done():
			return
		case event := <-queue:
			queueDepth.Dec()
			d.pending = append(d.pending, event)
			if !d.retrying && len(d.pending) >= d.batchSize {
				d.flush(ctx)
			}
		case <-ticker.C:
			d.flush(ctx)
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// drain makes a final delivery attempt for everything still buffered.
func (d *Dispatcher) drain(ctx context.Context) {
loop:
	for {
		select {
		case event := <-d.queue:
			queueDepth.Dec()
			d.pending = append(d.pending, event)
		default:
			break loop
		}
	}
	if len(d.pending) == 0 {
		return
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	for len(d.pending) > 0 {
		batch := d.nextBatch()
		if err := d.deliver(drainCtx, batch); err != nil {
			failedCounter.Add(float64(len(d.pending)))
			d.logger.Error("outbox drain failed", "events", len(d.pending), "error", err)
			break
		}
		deliveredCounter.Add(float64(len(batch)))
		d.advance(len(batch))
	}
	d.pending = nil
}

// flush delivers pending events in batches of at most batchSize. A failed
// batch stays at the head of pending until it succeeds or runs out of attempts.
func (d *Dispatcher) flush(ctx context.Context) {
	for len(d.pending) > 0 {
		batch := d.nextBatch()

		start := time.Now()
		err := d.deliver(ctx, batch)
		batchDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			deliveredCounter.Add(float64(len(batch)))
			d.advance(len(batch))
			d.attempts = 0
			d.retrying = false
			continue
		}
		if errors.Is(err, context.Canceled) {
			return
		}

		d.retrying = true
		d.attempts++
		if d.attempts < d.maxAttempts {
			retryCounter.Inc()
			d.logger.Warn("outbox delivery failed, will retry", "events", len(batch), "attempt", d.attempts, "error", err)
			return
		}

		failedCounter.Add(float64(len(batch)))
		d.logger.Error("outbox delivery abandoned", "events", len(batch), "attempts", d.attempts, "error", err)
		d.advance(len(batch))
		d.attempts = 0
		return
	}
}

func (d *Dispatcher) nextBatch() []events.RosterChanged {
	return d.pending[:min(len(d.pending), d.batchSize)]
}

// advance drops the first n pending events.
func (d *Dispatcher) advance(n int) {
	d.pending = append(d.pending[:0], d.pending[n:]...)
}

func (d *Dispatcher) deliver(ctx context.Context, batch []events.RosterChanged) error {
	records := make([]kafka.Message, 0, len(batch))
	for _, event := range batch {
		record, err := encode(event)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err := d.producer.WriteMessages(ctx, d.topic, records...); err != nil {
		return fmt.Errorf("write %d roster events to %s: %w", len(records), d.topic, err)
	}
	return nil
}

func encode(event events.RosterChanged) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode roster event %s: %w", event.EventID, err)
	}
	return kafka.Message{
		Key:   []byte(event.Activity),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: events.HeaderEventType, Value: []byte(event.Type)},
			{Key: events.HeaderEventID, Value: []byte(event.EventID)},
		},
	}, nil
}
