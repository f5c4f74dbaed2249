package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finplan/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	// maxFailures consecutive failures open the circuit.
	maxFailures = 5
	// openTimeout is how long an open circuit rejects calls before letting
	// one through.
	openTimeout = 30 * time.Second

	maxBackoff       = 30 * time.Second
	maxDialAttempts  = 5
	publishTimeout   = 5 * time.Second
	deliveryPrefetch = 1
)

// Client publishes projection requests and results on a direct exchange.
// Each queue is bound with its own name as routing key. A lost connection is
// re-dialed with exponential backoff; repeated failures open a circuit
// breaker so publishers fail fast.
type Client struct {
	url          string
	exchangeName string
	requestQueue string
	resultQueue  string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, requestQueue, resultQueue string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		requestQueue: requestQueue,
		resultQueue:  resultQueue,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) log() *log.Logger {
	if c.logger == nil {
		return log.New(log.DefaultConfig()).WithComponent(log.ComponentAMQP)
	}
	return c.logger
}

// connect dials and declares the topology. Callers hold no lock.
func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.requestQueue, c.resultQueue); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queues: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
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

	for _, q := range queues {
		if q == "" {
			continue
		}
		if _, err := ch.QueueDeclare(
			q,     // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		// routing key is the queue name
		if err := ch.QueueBind(q, q, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	return nil
}

// reconnect drops the current connection and dials again with backoff.
func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.channel = nil, nil
	c.mu.Unlock()

	var err error
	for attempt := 0; attempt < maxDialAttempts; attempt++ {
		if err = c.connect(); err == nil {
			c.log().InfoContext(ctx, "Reconnected to AMQP broker", "attempt", attempt+1)
			return nil
		}
		wait := exponentialBackoff(attempt)
		c.log().WarnContext(ctx, "AMQP reconnect failed", log.FieldError, err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("reconnect after %d attempts: %w", maxDialAttempts, err)
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		return nil
	}
	return c.channel
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isCircuitOpen reports whether calls should be rejected. An open circuit
// turns half-open once openTimeout has passed since the last failure.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
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
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// publish sends body to queue through the exchange.
func (c *Client) publish(ctx context.Context, queue, messageID string, body []byte) error {
	if c.isCircuitOpen() {
		return errors.New("publish: circuit breaker is open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ch := c.currentChannel()
	if ch == nil {
		if err := c.reconnect(ctx); err != nil {
			c.recordFailure()
			return err
		}
		if ch = c.currentChannel(); ch == nil {
			c.recordFailure()
			return errors.New("publish: no open channel")
		}
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := ch.PublishWithContext(
		pctx,
		c.exchangeName, // exchange
		queue,          // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.channel = nil
			c.mu.Unlock()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

// PublishProjectionRequest queues a projection for a worker.
func (c *Client) PublishProjectionRequest(ctx context.Context, req *ProjectionRequest) error {
	body, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.requestQueue, req.ID, body); err != nil {
		return err
	}
	c.log().InfoContext(ctx, "Published projection request",
		log.FieldProjectionID, req.ID,
		log.FieldScenario, req.Scenario.Name,
		log.FieldQueue, c.requestQueue)
	return nil
}

func (c *Client) PublishProjectionResult(ctx context.Context, res *ProjectionResult) error {
	body, err := res.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.resultQueue, res.RequestID, body); err != nil {
		return err
	}
	c.log().InfoContext(ctx, "Published projection result",
		log.FieldProjectionID, res.RequestID,
		log.FieldSuccess, res.Error == "",
		log.FieldQueue, c.resultQueue)
	return nil
}

// ConsumeProjectionRequests hands every request to handler until ctx is
// cancelled. Undecodable messages are dropped; handler errors requeue the
// message once. The consumer reconnects when the broker goes away.
func (c *Client) ConsumeProjectionRequests(ctx context.Context, handler func(context.Context, *ProjectionRequest) error) error {
	for attempt := 0; ; attempt++ {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			c.log().InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}
		c.log().WarnContext(ctx, "Consumer lost connection", log.FieldError, err)
		if err := c.reconnect(ctx); err != nil {
			return err
		}
	}
}

func (c *Client) consume(ctx context.Context, handler func(context.Context, *ProjectionRequest) error) error {
	ch := c.currentChannel()
	if ch == nil {
		return amqp091.ErrClosed
	}
	if err := ch.Qos(deliveryPrefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(
		c.requestQueue, // queue
		"",             // consumer
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log().InfoContext(ctx, "Started consuming projection requests", log.FieldQueue, c.requestQueue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed: %w", amqp091.ErrClosed)
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *ProjectionRequest) error) {
	msg, err := ProjectionRequestFromJSON(d.Body)
	if err != nil {
		c.log().ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
		d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		c.log().ErrorContext(ctx, "Failed to handle message",
			log.FieldError, err,
			log.FieldProjectionID, msg.ID,
			"redelivered", d.Redelivered)
		// one retry, then drop
		d.Nack(false, !d.Redelivered)
		return
	}

	d.Ack(false)
	c.log().DebugContext(ctx, "Processed projection request", log.FieldProjectionID, msg.ID)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
