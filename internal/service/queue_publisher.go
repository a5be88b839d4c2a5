// Package service holds the gateway's outbound integrations.  Publisher
// sends approval events to RabbitMQ; errors are logged and returned so the
// approvals flow can ignore them without interrupting the request.
package service

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    q "github.com/iliyamo/portal-compras-gateway/internal/queue"
    "github.com/iliyamo/portal-compras-gateway/internal/workflow"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Close() error
}

// Publisher publishes approval.answered events.  It keeps one connection
// and reopens it after a failure.  It is a workflow.DecisionSink.
type Publisher struct {
    url string
    log logrus.FieldLogger

    // dial opens a channel with the queue declared; replaced in tests.
    dial func(url string) (channel, func() error, error)

    mu        sync.Mutex
    ch        channel
    closeConn func() error
}

func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    return &Publisher{url: url, log: log.WithField("component", "approval-publisher"), dial: dialChannel}
}

func dialChannel(url string) (channel, func() error, error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, nil, errors.Wrap(err, "dial")
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, errors.Wrap(err, "channel open")
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.ApprovalQueueName, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, nil, errors.Wrap(err, "queue declare")
    }
    return ch, conn.Close, nil
}

// RecordDecision publishes the event of d as a persistent message.
func (p *Publisher) RecordDecision(ctx context.Context, d workflow.Decision) error {
    body, err := json.Marshal(q.NewApprovalAnsweredEvent(d))
    if err != nil {
        return errors.Wrap(err, "marshal event")
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch == nil {
        ch, closeConn, err := p.dial(p.url)
        if err != nil {
            p.log.WithError(err).Warn("rabbitmq unavailable")
            return err
        }
        p.ch, p.closeConn = ch, closeConn
    }
    // default exchange, routing key = queue name
    if err := p.ch.PublishWithContext(ctx, "", q.ApprovalQueueName, false, false, pub); err != nil {
        p.log.WithError(err).WithField("taskId", d.TaskID).Warn("publish failed")
        p.resetLocked()
        return errors.Wrap(err, "publish")
    }
    return nil
}

// Close releases the connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.resetLocked()
}

func (p *Publisher) resetLocked() error {
    if p.ch == nil {
        return nil
    }
    _ = p.ch.Close()
    err := p.closeConn()
    p.ch, p.closeConn = nil, nil
    return err
}
