package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"laundryops/internal/domain"
)

// AMQPPublisher publishes JSON events to a durable topic exchange and waits
// for the broker confirm on every message.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
}

// confirmation is the part of amqp.DeferredConfirmation publish waits on.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

var (
	ErrPublishNack    = errors.New("publish NACK from broker")
	errNotConfirmMode = errors.New("rabbitmq channel is not in confirm mode")
)

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *AMQPPublisher) Ping() error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

func (p *AMQPPublisher) PublishOrderProcessed(ctx context.Context, event domain.OrderProcessedEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	return p.publish(ctx, RoutingOrderProcessed, msg)
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	deferred, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, OrdersExchange, key, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if deferred == nil {
		return errNotConfirmMode
	}
	return awaitConfirm(ctx, deferred)
}

// awaitConfirm waits for the broker's answer to one message. Each publish
// owns its confirmation, so an abandoned wait never shifts later acks.
func awaitConfirm(ctx context.Context, conf confirmation) error {
	ack, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ack {
		return ErrPublishNack
	}
	return nil
}

func newMessage(event domain.OrderProcessedEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     event.OrderID + "-" + event.ProcessedAt.Format("20060102T150405"),
		CorrelationId: event.OrderID,
		Timestamp:     time.Now().UTC(),
		Headers: amqp.Table{
			"outlet_id": event.OutletID,
		},
		Body: body,
	}, nil
}
