package events

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/kanban-board/internal/config"
)

// dialTimeout keeps a request from hanging on an unreachable broker.
const dialTimeout = 2 * time.Second

// Publisher sends events to subscribers.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
    Close() error
}

// NewPublisher returns an AMQP publisher when events are enabled and a
// no-op one otherwise.
func NewPublisher(cfg config.EventsConfig) Publisher {
    if !cfg.Enabled {
        return Nop{}
    }
    return NewAMQPPublisher(cfg.URL, cfg.Queue)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable queue via
// the default exchange.  The connection is opened on first use and
// re-opened after a failure.
type AMQPPublisher struct {
    url   string
    queue string

    // sem is a one-slot semaphore guarding conn and ch; waiting on it
    // honours the caller's context.
    sem  chan struct{}
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for queue on the broker at url.  No
// connection is made until the first Publish.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
    return &AMQPPublisher{url: url, queue: queue, sem: make(chan struct{}, 1)}
}

// acquire takes the semaphore or returns ctx.Err() if ctx ends first.
func (p *AMQPPublisher) acquire(ctx context.Context) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    select {
    case p.sem <- struct{}{}:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (p *AMQPPublisher) release() { <-p.sem }

// Publish sends ev.  On error the connection is dropped so the next call
// dials again.  Calls are serialized; a call whose ctx ends while another
// one is dialing returns ctx.Err() without touching the broker.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    if err := p.acquire(ctx); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    defer p.release()

    if err := p.connect(); err != nil {
        return err
    }
    err = p.ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent, // store on disk
            MessageId:    ev.ID,
            Type:         ev.Type,
            Timestamp:    ev.OccurredAt,
            Body:         body,
        })
    if err != nil {
        p.reset()
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

// connect opens the connection and channel if needed.  Callers hold p.sem.
func (p *AMQPPublisher) connect() error {
    if p.ch != nil && !p.ch.IsClosed() {
        return nil
    }
    p.reset()

    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    if _, err := declareQueue(ch, p.queue); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return err
    }
    p.conn, p.ch = conn, ch
    return nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.sem <- struct{}{}
    defer p.release()
    p.reset()
    return nil
}

// declareQueue ensures the queue exists (idempotent).  Durable so messages
// survive broker restarts.
func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(
        name,  // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    )
    if err != nil {
        return q, fmt.Errorf("rabbitmq queue declare: %w", err)
    }
    return q, nil
}

// Recorder keeps published events in memory.  Tests use it in place of a
// broker.
type Recorder struct {
    mu     sync.Mutex
    events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
    r.mu.Lock()
    defer r.mu.Unlock()
    return append([]Event(nil), r.events...)
}

// Types returns the types of the recorded events in publish order.
func (r *Recorder) Types() []string {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]string, len(r.events))
    for i, ev := range r.events {
        out[i] = ev.Type
    }
    return out
}
