// Package webhook posts experiment change events to external HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/notify"
	"github.com/TimurManjosov/goexperiments/internal/telemetry"
)

const (
	// queueSize is the buffer size for the event queue
	queueSize = 1000

	// maxResponseBodySize limits how much of the response body we log (1KB)
	maxResponseBodySize = 1024

	defaultMaxRetries = 3
)

// Dispatcher queues events and delivers them to every target in the background.
type Dispatcher struct {
	targets    []Target
	client     *http.Client
	log        zerolog.Logger
	maxRetries int
	backoff    func(attempt int) time.Duration
	queue      chan Event
	done       chan struct{}

	mu     sync.RWMutex // guards closed against concurrent Dispatch
	closed bool
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClient replaces the HTTP client (10s timeout by default).
func WithClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithMaxRetries sets how many times a failed delivery is retried.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) { d.maxRetries = n }
}

// WithBackoff sets the wait before retry number attempt (starting at 0).
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(d *Dispatcher) { d.backoff = f }
}

// NewDispatcher creates a new webhook dispatcher. Call Start before Dispatch.
func NewDispatcher(targets []Target, log zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		targets:    targets,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "webhook").Logger(),
		maxRetries: defaultMaxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins processing events from the queue
func (d *Dispatcher) Start() {
	go d.worker()
}

// Close stops accepting events and waits for queued deliveries to finish. The
// dispatcher must have been started.
// Close is safe to call multiple times.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return nil
}

// Dispatch queues an event for delivery without blocking. Events are dropped when the
// queue is full or the dispatcher is closed.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- event:
		d.log.Debug().Str("event_id", event.ID).Int("queue_size", len(d.queue)).Msg("event queued")
	default:
		d.log.Error().Str("event_id", event.ID).Int("queue_size", queueSize).Msg("queue full, dropping event")
		telemetry.WebhookDeliveries.WithLabelValues(telemetry.OutcomeDropped).Inc()
	}
}

// Listen turns changes into events until ctx is done or changes is closed.
func (d *Dispatcher) Listen(ctx context.Context, changes <-chan notify.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			d.Dispatch(NewEvent(c))
		}
	}
}

// NewEvent builds the event announcing c.
func NewEvent(c notify.Change) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        EventChanged,
		Timestamp:   time.Now().UTC(),
		Batch:       c.Batch,
		Experiments: c.Names,
	}
}

// worker processes events from the queue
func (d *Dispatcher) worker() {
	defer close(d.done)

	for event := range d.queue {
		payload, err := json.Marshal(event)
		if err != nil {
			d.log.Error().Err(err).Str("event_id", event.ID).Msg("failed to marshal event")
			continue
		}
		for _, t := range d.targets {
			d.deliverWithRetry(context.Background(), t, event, payload)
		}
	}
}

// deliverWithRetry attempts to deliver an event to a target with retry logic
func (d *Dispatcher) deliverWithRetry(ctx context.Context, t Target, event Event, payload []byte) bool {
	log := d.log.With().Str("url", t.URL).Str("event_id", event.ID).Logger()

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		start := time.Now()
		status, body, err := d.deliver(ctx, t, event, payload)
		duration := time.Since(start)

		if err == nil {
			log.Info().Int("status", status).Dur("duration", duration).Int("attempt", attempt+1).Msg("delivery succeeded")
			telemetry.WebhookDeliveries.WithLabelValues(telemetry.OutcomeDelivered).Inc()
			return true
		}

		if attempt < d.maxRetries {
			wait := d.backoff(attempt)
			log.Warn().Err(err).Int("status", status).Str("response", body).
				Int("attempt", attempt+1).Dur("retry_in", wait).Msg("delivery failed")
			time.Sleep(wait)
			continue
		}
		log.Error().Err(err).Int("status", status).Str("response", body).
			Int("attempts", attempt+1).Msg("delivery failed permanently")
	}
	telemetry.WebhookDeliveries.WithLabelValues(telemetry.OutcomeFailed).Inc()
	return false
}

// deliver makes one POST. A non-2xx status is an error.
func (d *Dispatcher) deliver(ctx context.Context, t Target, event Event, payload []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Experiments-Event", event.Type)
	req.Header.Set("X-Experiments-Delivery", event.ID)
	if t.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(t.Secret, time.Now(), payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, string(body), fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, string(body), nil
}
