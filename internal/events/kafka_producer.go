// Package events publishes match lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/oggyb/intro-match/internal/models"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	MatchCompleted EventType = "match_completed"
)

// Event is the message published for a ledger transition.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	MatchID    uint64    `json:"match_id"`
	CompanyID  uint64    `json:"company_id"`
	AgentID    uint64    `json:"agent_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer delivers events asynchronously. Produce never blocks the caller;
// delivery is retried with backoff and dropped (with a log line) when it keeps
// failing or the queue is full.
type Producer struct {
	writer      KafkaWriter
	events      chan Event
	logger      *slog.Logger
	closeChan   chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	maxRetries  uint64
	sendTimeout time.Duration
}

// NewProducer creates a producer writing to topic on brokers.
func NewProducer(brokers []string, topic string, logger *slog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Topic:                  topic,
		AllowAutoTopicCreation: true,
	}, logger)
}

func newProducer(w KafkaWriter, logger *slog.Logger) *Producer {
	p := &Producer{
		writer:      w,
		events:      make(chan Event, 1000), // Buffered channel
		logger:      logger.With("component", "kafka_producer"),
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
		maxRetries:  5,
		sendTimeout: 5 * time.Second,
	}
	go p.eventLoop()
	return p
}

// MatchCompleted enqueues a match_completed event for m.
func (p *Producer) MatchCompleted(m models.Match) {
	occurred := time.Now().UTC()
	if m.MatchedAt != nil {
		occurred = *m.MatchedAt
	}
	p.Produce(Event{
		ID:         uuid.NewString(),
		Type:       MatchCompleted,
		MatchID:    m.ID,
		CompanyID:  m.CompanyID,
		AgentID:    m.AgentID,
		OccurredAt: occurred,
	})
}

// Produce enqueues an event without blocking.
func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			"event_type", string(event.Type),
			"match_id", event.MatchID,
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(event)
		case <-p.closeChan:
			// flush what is already queued
			for {
				select {
				case event := <-p.events:
					p.sendEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event", "err", err, "match_id", event.MatchID)
		return
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(event.MatchID, 10)),
		Value: value,
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second

	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
		defer cancel()
		return p.writer.WriteMessages(ctx, msg)
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(b, p.maxRetries)); err != nil {
		p.logger.Error("Failed to produce event",
			"err", err,
			"event_type", string(event.Type),
			"match_id", event.MatchID,
		)
	}
}

// Close stops the loop after flushing queued events and closes the writer.
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		<-p.done
		if err := p.writer.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer", "err", err)
		}
	})
}
