package notify

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Publisher hands events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BrokerPublisher publishes events to NATS for the notifier and to Redis pub/sub for other listeners.
type BrokerPublisher struct {
	nats         *nats.Conn
	natsSubject  string
	redis        *redis.Client
	redisChannel string
}

// NewBrokerPublisher builds a publisher; either transport may be nil.
func NewBrokerPublisher(natsConn *nats.Conn, redisClient *redis.Client, channelBase string) *BrokerPublisher {
	subject, channel := Subjects(channelBase)
	return &BrokerPublisher{
		nats:         natsConn,
		natsSubject:  subject,
		redis:        redisClient,
		redisChannel: channel,
	}
}

// Publish sends the event on every configured transport. Errors from each transport are joined.
func (p *BrokerPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}

	var errs []error
	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
