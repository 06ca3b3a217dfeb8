package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicUser    = "user_events"
	TopicProject = "project_events"
	TopicTask    = "task_events"
)

type Event struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	ProjectID uint      `json:"projectID,omitempty"`
	TaskID    uint      `json:"taskID,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

// DefaultPublishTimeout bounds a single synchronous publish, retries included.
const DefaultPublishTimeout = 5 * time.Second

type Producer struct {
	writer  *kafka.Writer
	timeout time.Duration
}

type ProducerOption func(*Producer)

func WithPublishTimeout(d time.Duration) ProducerOption {
	return func(p *Producer) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewProducer(brokers []string, opts ...ProducerOption) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		MaxAttempts:            3,
		WriteBackoffMax:        500 * time.Millisecond,
	}
	p := &Producer{writer: w, timeout: DefaultPublishTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if e, ok := event.(Event); ok {
		msg.Headers = []kafka.Header{{Key: "event_type", Value: []byte(e.Type)}}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Nop discards events; used when no brokers are configured.
type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                              { return nil }

type Published struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the Type of every recorded Event, in publish order.
func (r *Recorder) Types() []string {
	var types []string
	for _, p := range r.Events() {
		if e, ok := p.Event.(Event); ok {
			types = append(types, e.Type)
		}
	}
	return types
}

func New(brokers []string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewProducer(brokers)
}
