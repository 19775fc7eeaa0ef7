package events

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one decoded event.  A returned error rejects the
// message without requeueing it.
type Handler func(Event) error

// Consume reads events from queue until ctx is done, reconnecting with
// exponential backoff when the broker goes away.  It returns ctx.Err().
func Consume(ctx context.Context, url, queue string, handle Handler) error {
    backoff := time.Second
    for {
        conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
        if err != nil {
            log.Warnf("events-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
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
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, queue, handle)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warnf("events-consumer: consume loop ended: %v; reconnecting", err)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle Handler) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warnf("events-consumer: set QoS failed: %v", err)
    }
    if _, err := declareQueue(ch, queue); err != nil {
        return err
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
            if err := Decode(d.Body, handle); err != nil {
                log.Warnf("events-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Decode unmarshals a message body and passes the event to handle.
func Decode(body []byte, handle Handler) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    return handle(ev)
}
