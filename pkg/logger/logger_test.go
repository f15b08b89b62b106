package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu    sync.Mutex
	topic string
	batch [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batch = append(p.batch, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) batches() [][]AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batch
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With("fund_table")

	l.Info("row built",
		String("fund", "Global Bond"),
		Float64("hz", 0.005),
		Int("rows", 3),
		Bool("async", true),
		Duration("took", 1500*time.Millisecond),
		Strings("warnings", []string{"A", "B"}),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "row built", entry["message"])
	assert.Equal(t, "fund_table", entry["component"])
	assert.Equal(t, "Global Bond", entry["fund"])
	assert.InDelta(t, 0.005, entry["hz"], 1e-12)
	assert.EqualValues(t, 3, entry["rows"])
	assert.Equal(t, true, entry["async"])
	assert.EqualValues(t, 1500, entry["took"])
	assert.Equal(t, "A, B", entry["warnings"])
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With("x").Error("ignored", Error(errors.New("boom")))
	})
}

func TestErrorFieldNil(t *testing.T) {
	k, v := Error(nil).GetKeyValue()
	assert.Equal(t, "error", k)
	assert.Nil(t, v)
}

func TestCollectorAggregatesErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{})
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "logs",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		l.Error("snapshot failed", String("fund", "A"))
	}
	l.Error("snapshot failed", String("fund", "B"))
	l.Warn("not collected")
	assert.Equal(t, 2, l.collector.Pending())

	l.RemoveCollector()

	batches := pub.batches()
	require.Len(t, batches, 1)
	assert.Equal(t, "logs", pub.topic)
	require.Len(t, batches[0], 2)

	counts := map[interface{}]int{}
	for _, e := range batches[0] {
		assert.Equal(t, "error", e.Level)
		assert.Contains(t, e.Caller, "logger_test.go")
		counts[e.Fields["fund"]] = e.Count
	}
	assert.Equal(t, map[interface{}]int{"A": 3, "B": 1}, counts)
}

func TestCollectorThresholdFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Publisher:      pub,
	})

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	assert.Equal(t, 0, c.Pending())

	c.Close()
	require.Len(t, pub.batches(), 1)
	assert.Len(t, pub.batches()[0], 2)
}

func TestCollectorIncludeWarn(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{})
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub, IncludeWarn: true})

	l.Warn("weight fallback", String("fund", "A"))
	assert.Equal(t, 1, l.collector.Pending())
	l.RemoveCollector()
}
