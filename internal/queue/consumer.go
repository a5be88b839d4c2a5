package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// ApprovalLogFile is the file, inside the log directory, that decisions are
// appended to.
const ApprovalLogFile = "approvals.log"

// StartApprovalConsumer connects to RabbitMQ, declares the approval.answered
// queue (durable) and appends every message to logDir/approvals.log in a
// single-line, human-friendly format.  It reconnects with exponential
// backoff and returns only when ctx is cancelled.  Messages that cannot be
// handled are rejected without requeue so a poison message cannot spin.
func StartApprovalConsumer(ctx context.Context, url, logDir string, log logrus.FieldLogger) error {
    log = log.WithField("component", "approval-consumer")
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logDir, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, log logrus.FieldLogger) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("set QoS failed")
    }
    if _, err := ch.QueueDeclare(ApprovalQueueName, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    msgs, err := ch.Consume(ApprovalQueueName, "", false, false, false, false, nil)
    if err != nil {
        return errors.Wrap(err, "queue consume")
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleApprovalMessage(d.Body, logDir); err != nil {
                log.WithError(err).Warn("handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleApprovalMessage appends one approval.answered message to the
// approvals log in logDir, creating the directory when needed.
func HandleApprovalMessage(body []byte, logDir string) error {
    var ev ApprovalAnsweredEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return errors.Wrap(err, "unmarshal")
    }
    if ev.TaskID == 0 {
        return errors.New("event without task_id")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return errors.Wrap(err, "mkdir logs")
    }
    f, err := os.OpenFile(filepath.Join(logDir, ApprovalLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return errors.Wrap(err, "open log file")
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Task answered | task_id=%d | decision=%s | option=%s | subject=%q | user=%s | head_office=%s | note=%q\n",
        ev.AnsweredAt, ev.TaskID, ev.Decision, ev.OptionCode, ev.Subject, ev.Username, ev.HeadOffice, ev.Note)
    if _, err := f.WriteString(line); err != nil {
        return errors.Wrap(err, "write log")
    }
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
