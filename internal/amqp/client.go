package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"room8/internal/notify"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// Client publishes chore sync requests and reminders to a durable direct
// exchange and consumes sync requests. Publishing goes through a circuit
// breaker; broken connections are re-dialed on the next call.
type Client struct {
	url           string
	exchangeName  string
	queueName     string
	reminderQueue string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	breakerMu    sync.Mutex
	lastFailure  time.Time
}

var _ notify.Sink = (*Client)(nil)

// NewClient dials url and declares the exchange plus the sync and reminder
// queues.
func NewClient(url, exchangeName, queueName, reminderQueue string) (*Client, error) {
	c := &Client{
		url:           url,
		exchangeName:  exchangeName,
		queueName:     queueName,
		reminderQueue: reminderQueue,
	}
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName, c.reminderQueue); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	c.conn, c.channel = conn, channel
	return channel, nil
}

func setup(ch *amqp091.Channel, exchange string, queues ...string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range queues {
		if queue == "" {
			continue
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// Routing key equals the queue name on the direct exchange.
		if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// PublishChoreSync asks the worker to mirror the chore to the calendar.
func (c *Client) PublishChoreSync(ctx context.Context, choreID string, action SyncAction, eventID string) error {
	body, err := NewChoreSyncMessage(choreID, action, eventID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queueName, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published chore sync message",
		"chore_id", choreID,
		"action", action,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishReminder forwards a fired reminder to the reminder queue.
func (c *Client) PublishReminder(ctx context.Context, r notify.Reminder) error {
	body, err := NewReminderMessage(r).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	if err := c.publish(ctx, c.reminderQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published chore reminder", "chore_id", r.ChoreID, "queue", c.reminderQueue)
	return nil
}

// Deliver makes the client a notify.Sink.
func (c *Client) Deliver(ctx context.Context, r notify.Reminder) error {
	return c.PublishReminder(ctx, r)
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: circuit breaker is open", routingKey)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropConnection()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// ConsumeChoreSync delivers sync messages to handler until ctx ends,
// re-dialing with exponential backoff when the broker drops the channel.
// Malformed messages are rejected; handler errors requeue the message.
func (c *Client) ConsumeChoreSync(ctx context.Context, handler func(context.Context, *ChoreSyncMessage) error) error {
	for attempt := 0; ; attempt++ {
		err := c.consumeOnce(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer disconnected, reconnecting", "error", err, "retry_in", wait)
		c.dropConnection()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *ChoreSyncMessage) error, connected func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()

	slog.InfoContext(ctx, "Started consuming chore sync messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			msg, err := ChoreSyncMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"chore_id", msg.ChoreID,
					"action", msg.Action)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed chore sync message",
				"chore_id", msg.ChoreID,
				"action", msg.Action)
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}

	c.breakerMu.Lock()
	last := c.lastFailure
	c.breakerMu.Unlock()

	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	failures := atomic.AddInt64(&c.failureCount, 1)

	c.breakerMu.Lock()
	c.lastFailure = time.Now()
	c.breakerMu.Unlock()

	if failures >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			slog.Warn("AMQP circuit breaker opened", "failures", failures)
		}
	}
}

// exponentialBackoff doubles from one second and caps at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "use of closed network connection", "channel closed", "dial AMQP"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) dropConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
