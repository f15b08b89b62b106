package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type fakeReader struct {
	ch        chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{ch: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.ch <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.ch:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type funcHandler struct {
	topic string
	fn    func([]byte) error
}

func (h funcHandler) Topic() string { return h.topic }

func (h funcHandler) Handle(_ context.Context, data []byte) error { return h.fn(data) }

func TestProducerPublishMessage(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy")

	require.NoError(t, p.PublishMessage(context.Background(), "logs", map[string]int{"count": 2}))
	require.NoError(t, p.Publish(context.Background(), "events", []byte("fund-a"), "raw",
		kafka.Header{Key: "type", Value: []byte("row.updated")}))

	msgs := w.written()
	require.Len(t, msgs, 2)
	assert.Equal(t, "logs", msgs[0].Topic)
	assert.JSONEq(t, `{"count":2}`, string(msgs[0].Value))
	assert.Equal(t, []byte("fund-a"), msgs[1].Key)
	assert.Equal(t, "raw", string(msgs[1].Value))
	assert.Equal(t, "row.updated", string(msgs[1].Headers[0].Value))
}

func TestProducerPublishError(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")}, "snappy")
	err := p.PublishMessage(context.Background(), "logs", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka publish logs")
}

func newTestConsumer(t *testing.T, reader *fakeReader, dlq MessageWriter, dlqTopic string) *Consumer {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerReaderFactory(func(string) MessageReader { return reader }),
		WithConsumerRetry(1, time.Millisecond, 2*time.Millisecond),
		WithConsumerDLQ(dlqTopic),
		func(cfg *ConsumerConfig) { cfg.DLQ = dlq },
	)
	require.NoError(t, err)
	return c
}

func TestConsumerCommitsHandledMessages(t *testing.T) {
	reader := newFakeReader(
		kafka.Message{Topic: "keyfigures", Offset: 1, Value: []byte(`{"fund":"A"}`)},
		kafka.Message{Topic: "keyfigures", Offset: 2, Value: []byte(`{"fund":"B"}`)},
	)
	c := newTestConsumer(t, reader, nil, "")

	var (
		mu    sync.Mutex
		funds []string
	)
	c.RegisterHandler(funcHandler{topic: "keyfigures", fn: func(b []byte) error {
		var m struct{ Fund string }
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		mu.Lock()
		funds = append(funds, m.Fund)
		mu.Unlock()
		return nil
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	assert.ElementsMatch(t, []string{"A", "B"}, funds)
}

func TestConsumerDeadLettersFailures(t *testing.T) {
	reader := newFakeReader(kafka.Message{Topic: "keyfigures", Offset: 7, Key: []byte("A"), Value: []byte("bad")})
	dlq := &fakeWriter{}
	c := newTestConsumer(t, reader, dlq, "keyfigures-dlq")

	calls := 0
	c.RegisterHandler(funcHandler{topic: "keyfigures", fn: func([]byte) error {
		calls++
		return errors.New("invalid payload")
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	assert.Equal(t, 2, calls, "one try plus one retry")
	msgs := dlq.written()
	require.Len(t, msgs, 1)
	assert.Equal(t, "keyfigures-dlq", msgs[0].Topic)
	assert.Equal(t, "bad", string(msgs[0].Value))
	assert.Equal(t, "keyfigures", string(msgs[0].Headers[0].Value))
}

func TestConsumerLeavesFailuresUncommittedWithoutDLQ(t *testing.T) {
	reader := newFakeReader()
	c := newTestConsumer(t, reader, nil, "")
	c.RegisterHandler(funcHandler{topic: "keyfigures", fn: func([]byte) error { panic("boom") }})
	c.readers["keyfigures"] = reader

	c.process(kafka.Message{Topic: "keyfigures", Offset: 3})
	assert.Empty(t, reader.commits())
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c := newTestConsumer(t, newFakeReader(), nil, "")
	assert.Error(t, c.Start())
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}
