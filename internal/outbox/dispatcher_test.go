package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/signup/internal/events"
	"example.com/signup/internal/logging"
)

type stubWriter struct {
	mu       sync.Mutex
	topic    string
	messages []kafka.Message
	calls    int
	err      error
	// failures makes the first N calls fail before err is consulted.
	failures int
}

func (w *stubWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	if w.err != nil {
		return w.err
	}
	w.topic = topic
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) delivered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func (w *stubWriter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func rosterEvent(id, activity string) events.RosterChanged {
	return events.RosterChanged{
		EventID:          id,
		Type:             events.TypeParticipantSignedUp,
		Activity:         activity,
		Email:            "testuser@example.com",
		ParticipantCount: 3,
		OccurredAt:       time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC),
	}
}

func startDispatcher(t *testing.T, writer messageWriter, cfg Config) (*Dispatcher, context.CancelFunc) {
	t.Helper()
	if cfg.Topic == "" {
		cfg.Topic = "activity_roster_events"
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 16
	}
	d := NewDispatcher(writer, cfg, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	return d, cancel
}

func TestDispatcherDeliversFullBatch(t *testing.T) {
	writer := &stubWriter{}
	d, cancel := startDispatcher(t, writer, Config{PollInterval: time.Hour, BatchSize: 2})
	defer func() { cancel(); d.Wait() }()

	before := testutil.ToFloat64(deliveredCounter)
	d.Publish(context.Background(), rosterEvent("evt-1", "Chess Club"))
	d.Publish(context.Background(), rosterEvent("evt-2", "Gym Class"))

	require.Eventually(t, func() bool {
		return writer.delivered() == 2 && testutil.ToFloat64(deliveredCounter) == before+2
	}, 2*time.Second, 10*time.Millisecond)

	writer.mu.Lock()
	defer writer.mu.Unlock()
	require.Equal(t, "activity_roster_events", writer.topic)

	first := writer.messages[0]
	require.Equal(t, "Chess Club", string(first.Key))
	headers := map[string]string{}
	for _, h := range first.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, events.TypeParticipantSignedUp, headers[events.HeaderEventType])
	require.Equal(t, "evt-1", headers[events.HeaderEventID])

	var decoded events.RosterChanged
	require.NoError(t, json.Unmarshal(first.Value, &decoded))
	require.Equal(t, rosterEvent("evt-1", "Chess Club"), decoded)
}

func TestDispatcherFlushesOnTick(t *testing.T) {
	writer := &stubWriter{}
	d, cancel := startDispatcher(t, writer, Config{PollInterval: 10 * time.Millisecond, BatchSize: 100})
	defer func() { cancel(); d.Wait() }()

	d.Publish(context.Background(), rosterEvent("evt-tick", "Art Club"))

	require.Eventually(t, func() bool { return writer.delivered() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	writer := &stubWriter{}
	d, cancel := startDispatcher(t, writer, Config{PollInterval: time.Hour, BatchSize: 100})

	for _, id := range []string{"a", "b", "c"} {
		d.Publish(context.Background(), rosterEvent(id, "Math Club"))
	}
	cancel()
	d.Wait()

	require.Equal(t, 3, writer.delivered())
}

func TestDispatcherDropsWhenBufferFull(t *testing.T) {
	d := NewDispatcher(&stubWriter{}, Config{Topic: "t", PollInterval: time.Hour, BatchSize: 1, BufferSize: 1}, logging.Discard())

	before := testutil.ToFloat64(droppedCounter)
	d.Publish(context.Background(), rosterEvent("kept", "Drama Club"))
	d.Publish(context.Background(), rosterEvent("dropped", "Drama Club"))

	require.Equal(t, before+1, testutil.ToFloat64(droppedCounter))
	require.Len(t, d.queue, 1)
}

func TestDispatcherAbandonsAfterMaxAttempts(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unavailable")}
	d, cancel := startDispatcher(t, writer, Config{PollInterval: 5 * time.Millisecond, BatchSize: 100, MaxAttempts: 2})
	defer func() { cancel(); d.Wait() }()

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeRetry := testutil.ToFloat64(retryCounter)
	d.Publish(context.Background(), rosterEvent("evt-fail", "Debate Team"))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(failedCounter) >= beforeFailed+1
	}, 2*time.Second, 5*time.Millisecond)
	require.GreaterOrEqual(t, writer.callCount(), 2)
	require.GreaterOrEqual(t, testutil.ToFloat64(retryCounter), beforeRetry+1)
}

func TestDispatcherWaitsForTickBeforeRetrying(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unavailable")}
	d, cancel := startDispatcher(t, writer, Config{PollInterval: time.Hour, BatchSize: 2, MaxAttempts: 3})
	defer func() { cancel(); d.Wait() }()

	beforeFailed := testutil.ToFloat64(failedCounter)
	for _, id := range []string{"a", "b", "c", "d"} {
		d.Publish(context.Background(), rosterEvent(id, "Chess Club"))
	}

	require.Eventually(t, func() bool { return writer.callCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return writer.callCount() > 1 }, 100*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, beforeFailed, testutil.ToFloat64(failedCounter))
	require.Eventually(t, func() bool { return len(d.queue) == 2 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherRecoversAfterTransientFailures(t *testing.T) {
	writer := &stubWriter{failures: 2}
	d, cancel := startDispatcher(t, writer, Config{PollInterval: 20 * time.Millisecond, BatchSize: 2, MaxAttempts: 3})
	defer func() { cancel(); d.Wait() }()

	beforeRetry := testutil.ToFloat64(retryCounter)
	beforeFailed := testutil.ToFloat64(failedCounter)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		d.Publish(context.Background(), rosterEvent(id, "Soccer Team"))
	}

	require.Eventually(t, func() bool { return writer.delivered() == 5 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, beforeRetry+2, testutil.ToFloat64(retryCounter))
	require.Equal(t, beforeFailed, testutil.ToFloat64(failedCounter))

	writer.mu.Lock()
	defer writer.mu.Unlock()
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		headers := map[string]string{}
		for _, h := range writer.messages[i].Headers {
			headers[h.Key] = string(h.Value)
		}
		require.Equal(t, id, headers[events.HeaderEventID])
	}
}
