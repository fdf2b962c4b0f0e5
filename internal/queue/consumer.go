package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Journal appends one line per capture event to a writer.
type Journal struct {
    w io.Writer
}

// NewJournal returns a Journal writing to w.
func NewJournal(w io.Writer) *Journal { return &Journal{w: w} }

// OpenJournalFile opens (creating directories as needed) an append-only
// journal file.
func OpenJournalFile(path string) (*os.File, error) {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return nil, fmt.Errorf("mkdir journal dir: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return nil, fmt.Errorf("open journal: %w", err)
    }
    return f, nil
}

// Handle decodes a message body and writes its journal line.
func (j *Journal) Handle(body []byte) error {
    var ev CaptureEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.CaptureID == "" {
        return errors.New("event without type or capture id")
    }
    var line string
    switch ev.Type {
    case CaptureDeleted:
        line = fmt.Sprintf("[%s] %s | capture_id=%s | user_id=%s\n",
            ev.OccurredAt, ev.Type, ev.CaptureID, ev.UserID)
    default:
        line = fmt.Sprintf("[%s] %s | capture_id=%s | user_id=%s | species=%q | weight=%g kg | size=%g cm | at=%g,%g\n",
            ev.OccurredAt, ev.Type, ev.CaptureID, ev.UserID, ev.Species, ev.Weight, ev.Size, ev.Latitude, ev.Longitude)
    }
    if _, err := io.WriteString(j.w, line); err != nil {
        return fmt.Errorf("write journal: %w", err)
    }
    return nil
}

// Consume connects to the broker, declares the durable queue and feeds every
// delivery to j.  It reconnects with exponential backoff and returns only
// when ctx is cancelled.  A message that cannot be handled is rejected
// without requeue so a poison message cannot spin the loop.
func Consume(ctx context.Context, url, queue string, j *Journal, log *zap.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("journal: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, queue, j, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("journal: consume loop ended, reconnecting", zap.Error(err))
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, j *Journal, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("journal: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
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
            if err := j.Handle(d.Body); err != nil {
                log.Error("journal: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}
