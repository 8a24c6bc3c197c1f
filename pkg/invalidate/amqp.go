package invalidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKey is used for every partner change message.
const RoutingKey = "partner.subscription.changed"

// AMQPConfig is read from AMQP_* variables.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE" envDefault:"menukit.events"`
}

// Publisher sends a message to an exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// ChangeMessage is the body of a partner change message.
type ChangeMessage struct {
	PartnerID string    `json:"partner_id"`
	Tags      []string  `json:"tags"`
	At        time.Time `json:"at"`
}

// AMQP publishes partner changes for consumers outside this service.
type AMQP struct {
	pub Publisher
	now func() time.Time
}

// NewAMQP creates an AMQP invalidator. Panics if pub is nil.
func NewAMQP(pub Publisher) *AMQP {
	if pub == nil {
		panic("invalidate: publisher is required")
	}
	return &AMQP{pub: pub, now: time.Now}
}

func (a *AMQP) Invalidate(ctx context.Context, partnerID string) error {
	if partnerID == "" {
		return ErrEmptyPartnerID
	}

	body, err := json.Marshal(ChangeMessage{
		PartnerID: partnerID,
		Tags:      []string{Tag(partnerID)},
		At:        a.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := a.pub.Publish(ctx, RoutingKey, body); err != nil {
		return errors.Join(ErrAMQPInvalidation, err)
	}
	return nil
}

// RabbitMQPublisher publishes persistent JSON messages to a topic exchange.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher dials cfg.URL and declares the topic exchange.
func NewRabbitMQPublisher(cfg AMQPConfig, log *slog.Logger) (*RabbitMQPublisher, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("RabbitMQ publisher connected", "exchange", cfg.Exchange)

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   log,
	}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.logger.Warn("error closing channel", "error", err)
	}
	return p.conn.Close()
}
