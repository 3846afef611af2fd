package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/travel-backoffice/internal/queue"
)

// EventPublisher ships activity events to downstream consumers.
type EventPublisher interface {
	PublishActivity(ctx context.Context, ev queue.ActivityEvent) error
}

// NoopPublisher drops every event.  It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishActivity(context.Context, queue.ActivityEvent) error { return nil }

// Publisher defaults.  A dial never outlives the caller's context nor
// DialTimeout, and after a failed dial the broker is treated as down for
// RetryAfter so requests fail fast instead of queueing on a dead host.
const (
	DefaultPublishDialTimeout = 3 * time.Second
	DefaultPublishRetryAfter  = 5 * time.Second
)

var errBrokerDown = errors.New("rabbitmq: broker unavailable, retry later")

// AMQPPublisher publishes persistent JSON messages to a durable queue on the
// default exchange.  The connection is opened lazily and reopened after the
// broker drops it.
type AMQPPublisher struct {
	url    string
	queue  string
	logger zerolog.Logger

	DialTimeout time.Duration
	RetryAfter  time.Duration

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time
}

// NewAMQPPublisher returns a publisher for the given broker URL and queue.
func NewAMQPPublisher(url, queueName string, logger zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:         url,
		queue:       queueName,
		logger:      logger,
		DialTimeout: DefaultPublishDialTimeout,
		RetryAfter:  DefaultPublishRetryAfter,
	}
}

// PublishActivity publishes ev.  Errors are logged and returned so callers
// may ignore them.
func (p *AMQPPublisher) PublishActivity(ctx context.Context, ev queue.ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ch, err := p.channel(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: open channel failed")
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: publish failed")
		p.mu.Lock()
		if p.ch == ch {
			p.reset()
		}
		p.mu.Unlock()
		return err
	}
	return nil
}

// channel returns the open channel, dialing and declaring the queue first
// when needed.  The dial runs without p.mu held; when two callers race, the
// first connection stored wins and the other is closed.
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if time.Now().Before(p.downUntil) {
		p.mu.Unlock()
		return nil, errBrokerDown
	}
	p.mu.Unlock()

	conn, ch, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.downUntil = time.Now().Add(p.RetryAfter)
		return nil, err
	}
	if p.ch != nil && !p.ch.IsClosed() {
		_ = conn.Close()
		return p.ch, nil
	}
	p.reset()
	p.conn, p.ch = conn, ch
	p.downUntil = time.Time{}
	return ch, nil
}

// dial opens a connection whose TCP connect and AMQP handshake are bounded
// by the earlier of ctx's deadline and DialTimeout.
func (p *AMQPPublisher) dial(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = DefaultPublishDialTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// cleared by the library once the handshake completes
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close()
				return nil, err
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// reset drops the current connection.  Callers hold p.mu.
func (p *AMQPPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
