package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"SumReport/internal/domain/models"
	pkgkafka "SumReport/pkg/kafka"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaEventPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w, "none"), "table-events")

	ev := models.TableEvent{
		Type:    models.EventTableRefreshed,
		BatchID: "b1",
		Rows:    []models.FundRow{{Fund: "Alpha"}},
		At:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishTableEvent(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "table-events", w.msgs[0].Topic)
	assert.Equal(t, []byte("b1"), w.msgs[0].Key)

	var got models.TableEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, models.EventTableRefreshed, got.Type)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
