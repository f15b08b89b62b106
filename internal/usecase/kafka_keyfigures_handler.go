package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	pkgkafka "SumReport/pkg/kafka"
)

// KafkaKeyFiguresHandler consumes key-figure messages and upserts fund rows.
type KafkaKeyFiguresHandler struct {
	topic   string
	builder *ReportBuilder
	table   *FundTable
	metrics domrepo.Metrics
}

func NewKafkaKeyFiguresHandler(topic string, builder *ReportBuilder, table *FundTable, metrics domrepo.Metrics) *KafkaKeyFiguresHandler {
	return &KafkaKeyFiguresHandler{topic: topic, builder: builder, table: table, metrics: metrics}
}

func (h *KafkaKeyFiguresHandler) Topic() string { return h.topic }

// incoming message schema: {fund, modified_duration, effective_yield, coupon, rul}
type keyFiguresMessage struct {
	Fund             string   `json:"fund"`
	ModifiedDuration float64  `json:"modified_duration"`
	EffectiveYield   float64  `json:"effective_yield"`
	Coupon           float64  `json:"coupon"`
	RUL              *float64 `json:"rul"`
}

func (h *KafkaKeyFiguresHandler) Handle(ctx context.Context, b []byte) error {
	var m keyFiguresMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode key figures: %w", err)
	}
	m.Fund = strings.TrimSpace(m.Fund)
	if m.Fund == "" {
		h.recordError("consumer_invalid")
		return fmt.Errorf("key figures message without fund")
	}

	rul := h.builder.RULFor(m.Fund)
	if m.RUL != nil {
		rul = *m.RUL
	}
	row := h.builder.Compute(ctx, ScenarioParams{
		Fund:   m.Fund,
		Source: SourceKafka,
		RUL:    rul,
		KeyFigures: models.KeyFigures{
			ModifiedDuration: m.ModifiedDuration,
			EffectiveYield:   m.EffectiveYield,
			Coupon:           m.Coupon,
		},
	})

	start := time.Now()
	_, err := h.table.Upsert(ctx, row)
	if h.metrics != nil {
		h.metrics.RecordLatency("consumer_upsert_seconds", time.Since(start).Seconds())
	}
	if err != nil {
		h.recordError("consumer_store")
		return err
	}
	return nil
}

func (h *KafkaKeyFiguresHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*KafkaKeyFiguresHandler)(nil)
