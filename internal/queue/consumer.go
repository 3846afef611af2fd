package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Consumer listens on the activity queue and appends one line per event to
// a local log file.  Processing errors reject the offending message and the
// loop keeps running.
type Consumer struct {
	URL      string
	Queue    string
	Prefetch int
	Path     string
	Logger   zerolog.Logger
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures and dropped connections are retried with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		var conn *amqp.Connection
		policy := backoff.NewExponentialBackOff()
		policy.MaxInterval = 30 * time.Second
		policy.MaxElapsedTime = 0
		err := backoff.RetryNotify(func() error {
			var err error
			conn, err = amqp.DialConfig(c.URL, amqp.Config{
				Heartbeat: 10 * time.Second,
				Dial:      amqp.DefaultDial(3 * time.Second),
			})
			return err
		}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
			c.Logger.Warn().Err(err).Dur("retry_in", wait).Msg("activity consumer: dial failed")
		})
		if err != nil {
			return ctx.Err()
		}

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn().Err(err).Msg("activity consumer: loop ended, reconnecting")
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		c.Logger.Warn().Err(err).Msg("activity consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.Logger.Error().Err(err).Str("message_id", d.MessageId).Msg("activity consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly line.
func FormatLine(ev ActivityEvent) string {
	return fmt.Sprintf("[%s] %s | %s_id=%d | actor=%q | activity_id=%d\n",
		ev.LoggedAt, ev.Description, strings.ToLower(ev.ReferenceType), ev.ReferenceID, ev.Actor, ev.ActivityID)
}
