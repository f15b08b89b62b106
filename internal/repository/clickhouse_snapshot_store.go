package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SumReport/internal/domain/models"
	pkgch "SumReport/pkg/clickhouse"
	applogger "SumReport/pkg/logger"

	"github.com/sony/gobreaker"
)

const snapshotColumns = "ts, batch_id, fund, hz_return, up_100, up_50, down_50, down_100, " +
	"modified_duration, effective_yield, coupon, rul, source, warnings"

// BreakerSettings tunes the circuit breaker around snapshot writes.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	table    string
	cb       *gobreaker.CircuitBreaker
	l        *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client, database string, bs BreakerSettings) *CHSnapshotStore {
	if database == "" {
		database = "sumreport"
	}
	s := &CHSnapshotStore{
		ch:       ch,
		db:       ch.DB(),
		database: database,
		table:    database + ".fund_snapshots",
	}
	if bs.FailureThreshold == 0 {
		bs.FailureThreshold = 3
	}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "clickhouse-snapshots",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if s.l != nil {
				s.l.Warn("circuit breaker state change",
					applogger.String("breaker", name),
					applogger.String("from", from.String()),
					applogger.String("to", to.String()),
				)
			}
		},
	})
	return s
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            ts DateTime64(3),
            batch_id String,
            fund LowCardinality(String),
            hz_return Float64,
            up_100 Float64,
            up_50 Float64,
            down_50 Float64,
            down_100 Float64,
            modified_duration Float64,
            effective_yield Float64,
            coupon Float64,
            rul Float64,
            source String,
            warnings String
        ) ENGINE = MergeTree ORDER BY (fund, ts)`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init snapshots: %w", err)
		}
	}
	return nil
}

// Write inserts snapshots in one multi-row statement through the breaker.
func (s *CHSnapshotStore) Write(ctx context.Context, snaps []models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	start := time.Now()

	values := make([]string, 0, len(snaps))
	args := make([]interface{}, 0, len(snaps)*14)
	for _, sn := range snaps {
		warnings, err := encodeWarnings(sn.Row.Warnings)
		if err != nil {
			return err
		}
		r := sn.Row
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			sn.Timestamp,
			sn.BatchID,
			r.Fund,
			r.Scenarios.HorizonReturn,
			r.Scenarios.Up100,
			r.Scenarios.Up50,
			r.Scenarios.Down50,
			r.Scenarios.Down100,
			r.KeyFigures.ModifiedDuration,
			r.KeyFigures.EffectiveYield,
			r.KeyFigures.Coupon,
			r.RealizedUnlevered,
			r.Source,
			warnings,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, snapshotColumns, strings.Join(values, ","))

	_, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.ExecContext(ctx, q, args...)
	})
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse write_snapshots error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(snaps)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("write snapshots: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse write_snapshots ok",
			applogger.Int("rows", len(snaps)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// History returns snapshots for fund in [from, to], newest first.
func (s *CHSnapshotStore) History(ctx context.Context, fund string, from, to time.Time, limit int) ([]models.Snapshot, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE fund = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", snapshotColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, fund, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("fund", fund),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.Snapshot, 0, limit)
	for rows.Next() {
		var (
			sn       models.Snapshot
			warnings string
		)
		r := &sn.Row
		if err := rows.Scan(
			&sn.Timestamp, &sn.BatchID, &r.Fund,
			&r.Scenarios.HorizonReturn, &r.Scenarios.Up100, &r.Scenarios.Up50, &r.Scenarios.Down50, &r.Scenarios.Down100,
			&r.KeyFigures.ModifiedDuration, &r.KeyFigures.EffectiveYield, &r.KeyFigures.Coupon,
			&r.RealizedUnlevered, &r.Source, &warnings,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if warnings != "" {
			if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings: %w", err)
			}
		}
		r.UpdatedAt = sn.Timestamp
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.
func (s *CHSnapshotStore) Close() error {
	return nil
}

func encodeWarnings(ws []models.Warning) (string, error) {
	if len(ws) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(ws)
	if err != nil {
		return "", fmt.Errorf("encode warnings: %w", err)
	}
	return string(b), nil
}
