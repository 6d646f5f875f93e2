package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/intro-match/internal/models"
)

// MockKafkaWriter implements KafkaWriter for testing
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestProducer_MatchCompletedDelivered(t *testing.T) {
	w := new(MockKafkaWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).([]kafka.Message)...) }).
		Return(nil)
	w.On("Close").Return(nil)

	var buf bytes.Buffer
	p := newProducer(w, testLogger(&buf))

	matchedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.MatchCompleted(models.Match{ID: 9, CompanyID: 1, AgentID: 2, Status: models.StatusMatched, MatchedAt: &matchedAt})
	p.Close()

	require.Len(t, sent, 1)
	assert.Equal(t, "9", string(sent[0].Key))

	var ev Event
	require.NoError(t, json.Unmarshal(sent[0].Value, &ev))
	assert.Equal(t, MatchCompleted, ev.Type)
	assert.Equal(t, uint64(1), ev.CompanyID)
	assert.Equal(t, uint64(2), ev.AgentID)
	assert.True(t, matchedAt.Equal(ev.OccurredAt))
	assert.NotEmpty(t, ev.ID)
	w.AssertExpectations(t)
}

func TestProducer_RetriesThenGivesUp(t *testing.T) {
	w := new(MockKafkaWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	w.On("Close").Return(nil)

	var buf bytes.Buffer
	p := &Producer{
		writer:      w,
		logger:      testLogger(&buf),
		maxRetries:  2,
		sendTimeout: time.Second,
	}

	p.sendEvent(Event{Type: MatchCompleted, MatchID: 5})

	w.AssertNumberOfCalls(t, "WriteMessages", 3)
	assert.Contains(t, buf.String(), "Failed to produce event")
}

func TestProducer_RetryRecovers(t *testing.T) {
	w := new(MockKafkaWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Once()
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

	var buf bytes.Buffer
	p := &Producer{writer: w, logger: testLogger(&buf), maxRetries: 3, sendTimeout: time.Second}

	p.sendEvent(Event{Type: MatchCompleted, MatchID: 6})

	w.AssertNumberOfCalls(t, "WriteMessages", 2)
	assert.NotContains(t, buf.String(), "Failed to produce event")
}

func TestProducer_DropsWhenQueueFull(t *testing.T) {
	var buf bytes.Buffer
	p := &Producer{
		events: make(chan Event, 1), // Small buffer for test, no loop draining it
		logger: testLogger(&buf),
	}

	p.Produce(Event{Type: MatchCompleted, MatchID: 1})
	p.Produce(Event{Type: MatchCompleted, MatchID: 2}) // This should be dropped

	assert.Len(t, p.events, 1)
	assert.Contains(t, buf.String(), "Kafka producer queue full, dropping event")
}

func TestProducer_SerializeFailure(t *testing.T) {
	orig := jsonMarshal
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("boom") }
	defer func() { jsonMarshal = orig }()

	w := new(MockKafkaWriter)
	var buf bytes.Buffer
	p := &Producer{writer: w, logger: testLogger(&buf), maxRetries: 1, sendTimeout: time.Second}

	p.sendEvent(Event{Type: MatchCompleted, MatchID: 3})

	w.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	assert.Contains(t, buf.String(), "Failed to serialize event")
}
