// Package service holds the outbound adapters the gateways depend on:
// the capture event publisher and the password-reset mailers.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/fishtrack/internal/queue"
)

// QueuePublisher publishes capture events to a durable RabbitMQ queue.
// Each call dials its own connection, so a broker outage never leaves the
// publisher in a broken state; errors are logged and returned so the
// caller can choose to ignore them.
type QueuePublisher struct {
    url   string
    queue string
    log   *zap.Logger
}

// NewQueuePublisher returns a publisher for the given broker URL and queue.
func NewQueuePublisher(url, queueName string, log *zap.Logger) *QueuePublisher {
    return &QueuePublisher{url: url, queue: queueName, log: log}
}

// PublishCaptureEvent sends ev as a persistent JSON message.
func (p *QueuePublisher) PublishCaptureEvent(ctx context.Context, ev queue.CaptureEvent) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("rabbitmq: dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        p.log.Warn("rabbitmq: publish failed", zap.Error(err), zap.String("type", ev.Type))
        return err
    }
    return nil
}

// NopPublisher discards events.  It is used when no broker is configured.
type NopPublisher struct{}

// PublishCaptureEvent does nothing.
func (NopPublisher) PublishCaptureEvent(context.Context, queue.CaptureEvent) error { return nil }
