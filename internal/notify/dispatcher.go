package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/observability"
)

const (
	defaultBuffer  = 64
	publishTimeout = 5 * time.Second
)

// Dispatcher queues emails in memory and publishes them from a single worker.
// Enqueue never blocks the caller; a full queue drops the event.
type Dispatcher struct {
	events    chan Event
	publisher Publisher
	sender    string
	nodeID    string
	logger    zerolog.Logger
	done      chan struct{}
	now       func() time.Time
}

// NewDispatcher constructs a dispatcher with a bounded queue.
func NewDispatcher(publisher Publisher, sender string, buffer int, logger zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Dispatcher{
		events:    make(chan Event, buffer),
		publisher: publisher,
		sender:    sender,
		nodeID:    uuid.NewString(),
		logger:    logger.With().Str("component", "notify_dispatcher").Logger(),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// Enqueue schedules email for delivery. It reports false when the email is invalid or the queue is full.
func (d *Dispatcher) Enqueue(kind string, email Email) bool {
	if !email.Valid() {
		d.logger.Warn().Str("kind", kind).Msg("discarding invalid email")
		return false
	}
	if email.Sender == "" {
		email.Sender = d.sender
	}

	event := Event{
		ID:     uuid.NewString(),
		Source: d.nodeID,
		Kind:   kind,
		Email:  email,
		SentAt: d.now().UTC(),
	}

	select {
	case d.events <- event:
		observability.Notifications().WithLabelValues("enqueued").Inc()
		return true
	default:
		observability.Notifications().WithLabelValues("dropped").Inc()
		d.logger.Warn().Str("kind", kind).Str("event_id", event.ID).Msg("notification queue full, dropping email")
		return false
	}
}

// Run publishes queued events until ctx is cancelled, then flushes what is left.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			d.flush()
			return
		case event := <-d.events:
			d.publish(ctx, event)
		}
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.events:
			d.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	if d.publisher == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(publishCtx, event); err != nil {
		observability.Notifications().WithLabelValues("publish_failed").Inc()
		d.logger.Error().Err(err).Str("event_id", event.ID).Str("kind", event.Kind).Msg("failed to publish notification")
		return
	}
	observability.Notifications().WithLabelValues("published").Inc()
}
