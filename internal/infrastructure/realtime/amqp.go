// Package realtime implements the private-channel subscription client over
// AMQP. Channels map to bindings on a topic exchange; the domain event name
// travels in the message Type field. Joining a private channel requires a
// signed grant from the backend's broadcasting-auth endpoint.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/clubly/loyalty-agent/internal/core/ports"
)

// ChannelAuthorizer signs channel-join requests using the current bearer
// token. Implemented by the REST client.
type ChannelAuthorizer interface {
	AuthorizeChannel(ctx context.Context, channel string) (string, error)
}

type Config struct {
	URI      string
	Exchange string
}

// Client owns the AMQP connection and one consumer per joined channel.
type Client struct {
	conn     *amqp.Connection
	exchange string
	auth     ChannelAuthorizer
	log      zerolog.Logger

	mu   sync.Mutex
	subs map[string]*subscription
}

// Connect dials the broker and declares the broadcasting exchange.
func Connect(cfg Config, auth ChannelAuthorizer, log zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("realtime dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime exchange declare: %w", err)
	}

	return &Client{
		conn:     conn,
		exchange: cfg.Exchange,
		auth:     auth,
		log:      log,
		subs:     make(map[string]*subscription),
	}, nil
}

// Private joins a named private channel: obtains the signed grant, checks it
// actually names the requested channel, then binds an exclusive queue and
// starts consuming. Joining an already-joined channel returns the existing
// subscription.
func (c *Client) Private(ctx context.Context, channel string) (ports.Channel, error) {
	c.mu.Lock()
	if sub, ok := c.subs[channel]; ok {
		c.mu.Unlock()
		return sub, nil
	}
	c.mu.Unlock()

	grant, err := c.auth.AuthorizeChannel(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("authorize channel %q: %w", channel, err)
	}
	if err := verifyGrant(grant, channel); err != nil {
		return nil, fmt.Errorf("channel %q: %w", channel, err)
	}

	amqpCh, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("join channel %q: %w", channel, err)
	}

	queue, err := amqpCh.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = amqpCh.Close()
		return nil, fmt.Errorf("join channel %q: declare queue: %w", channel, err)
	}
	if err := amqpCh.QueueBind(queue.Name, channel, c.exchange, false, nil); err != nil {
		_ = amqpCh.Close()
		return nil, fmt.Errorf("join channel %q: bind: %w", channel, err)
	}

	tag := "loyalty-agent." + channel
	deliveries, err := amqpCh.Consume(queue.Name, tag, true, true, false, false, nil)
	if err != nil {
		_ = amqpCh.Close()
		return nil, fmt.Errorf("join channel %q: consume: %w", channel, err)
	}

	sub := &subscription{
		name:     channel,
		amqpCh:   amqpCh,
		tag:      tag,
		log:      c.log,
		handlers: make(map[string]func([]byte)),
	}
	go sub.run(deliveries)

	c.mu.Lock()
	c.subs[channel] = sub
	c.mu.Unlock()

	c.log.Debug().Str("channel", channel).Msg("joined realtime channel")
	return sub, nil
}

// Leave cancels the channel's consumer and releases its queue. Leaving a
// channel that is not joined is a no-op.
func (c *Client) Leave(channel string) error {
	c.mu.Lock()
	sub, ok := c.subs[channel]
	delete(c.subs, channel)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return sub.close()
}

// Close leaves every channel and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*subscription)
	c.mu.Unlock()

	for _, sub := range subs {
		_ = sub.close()
	}
	return c.conn.Close()
}

// subscription is one joined channel; it satisfies ports.Channel.
type subscription struct {
	name   string
	amqpCh *amqp.Channel
	tag    string
	log    zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]func([]byte)
}

func (s *subscription) Listen(event string, handler func(payload []byte)) {
	s.mu.Lock()
	s.handlers[event] = handler
	s.mu.Unlock()
}

func (s *subscription) StopListening(event string) {
	s.mu.Lock()
	delete(s.handlers, event)
	s.mu.Unlock()
}

func (s *subscription) run(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		s.mu.RLock()
		handler, ok := s.handlers[d.Type]
		s.mu.RUnlock()
		if !ok {
			s.log.Debug().Str("channel", s.name).Str("event", d.Type).Msg("no listener for event")
			continue
		}
		handler(d.Body)
	}
}

func (s *subscription) close() error {
	if err := s.amqpCh.Cancel(s.tag, false); err != nil {
		_ = s.amqpCh.Close()
		return fmt.Errorf("leave channel %q: %w", s.name, err)
	}
	return s.amqpCh.Close()
}
