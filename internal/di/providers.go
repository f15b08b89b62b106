package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"SumReport/internal/domain/models"
	"SumReport/internal/domain/repository"
	"SumReport/internal/handler/api"
	"SumReport/internal/handler/ws"
	internalrepo "SumReport/internal/repository"
	"SumReport/internal/service/ratelimit"
	"SumReport/internal/services/scenario"
	"SumReport/internal/services/trendline"
	"SumReport/internal/usecase"
	"SumReport/pkg/cache"
	pkgch "SumReport/pkg/clickhouse"
	"SumReport/pkg/config"
	xhttp "SumReport/pkg/http"
	pkgkafka "SumReport/pkg/kafka"
	applogger "SumReport/pkg/logger"
	"SumReport/pkg/metrics"
	"SumReport/pkg/queue"
	"SumReport/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRedisCache connects to Redis, or returns nil when it is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers an in-process L1 over Redis, or falls back to memory only.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Redis.MemoryMaxSize))
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Redis.MemoryMaxSize),
		cache.WithLayeredMemoryTTL(5*time.Second),
	)
}

func ProvideTableStore(c cache.Service, cfg *config.Config, l *applogger.Logger) repository.TableStore {
	s := internalrepo.NewCacheTableStore(c, cfg.Redis.TableTTL)
	s.SetLogger(l.With("table_store"))
	return s
}

func ProvideReportSource(cfg *config.Config) repository.ReportSource {
	return internalrepo.NewDirReportSource(cfg.Report.Dir, cfg.Report.Extensions)
}

// ProvideClickHouseClient connects to ClickHouse, or returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore returns nil when ClickHouse is disabled. The schema is
// created by the App on start.
func ProvideSnapshotStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.SnapshotStore {
	if ch == nil {
		return nil
	}
	b := cfg.ClickHouse.Breaker
	s := internalrepo.NewCHSnapshotStore(ch, cfg.ClickHouse.Database, internalrepo.BreakerSettings{
		MaxRequests:      b.MaxRequests,
		Interval:         b.Interval,
		Timeout:          b.Timeout,
		FailureThreshold: b.FailureThreshold,
	})
	s.SetLogger(l.With("snapshots"))
	return s
}

// ProvideKafkaProducer creates a Kafka producer, or returns nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideEventPublisher(p *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if p == nil || cfg.Kafka.Topics.TableEvents == "" {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(p, cfg.Kafka.Topics.TableEvents)
}

// ProvideKafkaConsumer creates the key figures consumer, or returns nil when
// Kafka or the topic is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.Topics.KeyFigures == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l.With("kafka_consumer")),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(nil)
}

// ProvideWeights serves hedge weights from config.
func ProvideWeights(cfg *config.Config) scenario.WeightSource {
	byFund := make(map[string]map[models.Currency]float64, len(cfg.Hedge.FundWeights))
	for fund, w := range cfg.Hedge.FundWeights {
		byFund[fund] = currencyRates(w)
	}
	return scenario.StaticWeights{ByFund: byFund, Default: currencyRates(cfg.Hedge.DefaultWeights)}
}

func ProvideReportBuilder(cfg *config.Config, weights scenario.WeightSource, m *metrics.Recorder, l *applogger.Logger) *usecase.ReportBuilder {
	return usecase.NewReportBuilder(weights,
		usecase.WithHedgeCosts(currencyRates(cfg.Hedge.Costs)),
		usecase.WithFundRUL(cfg.Report.RUL),
		usecase.WithBuilderMetrics(m),
		usecase.WithBuilderLogger(l.With("report_builder")),
	)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l.With("ws_hub"))
}

func ProvideFundTable(
	cfg *config.Config,
	source repository.ReportSource,
	builder *usecase.ReportBuilder,
	store repository.TableStore,
	snapshots repository.SnapshotStore,
	events repository.EventPublisher,
	hub *ws.Hub,
	m *metrics.Recorder,
	l *applogger.Logger,
) *usecase.FundTable {
	opts := []usecase.FundTableOption{
		usecase.WithNotifier(hub),
		usecase.WithTableMetrics(m),
		usecase.WithTableLogger(l.With("fund_table")),
	}
	if snapshots != nil {
		opts = append(opts, usecase.WithSnapshots(snapshots))
	}
	if events != nil {
		opts = append(opts, usecase.WithEvents(events))
	}
	return usecase.NewFundTable(source, builder, store, usecase.FundTableConfig{
		Workers: cfg.Report.Workers,
		LockTTL: cfg.Redis.LockTTL,
		Timeout: cfg.Report.RefreshTimeout,
	}, opts...)
}

func ProvideTrendlineService(m *metrics.Recorder, l *applogger.Logger) *usecase.TrendlineService {
	return usecase.NewTrendlineService(trendline.NewFitter(trendline.WithLogger(l.With("trendline"))), m)
}

// ProvideQueue creates the refresh job queue on the Redis client, or returns
// nil when disabled.
func ProvideQueue(cfg *config.Config, rc *cache.RedisCache, table *usecase.FundTable, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(l.With("queue"), &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Queue.Name))
	q.RegisterJob(usecase.NewRefreshTableJob(table, l.With("refresh_job")))
	return q
}

func ProvideKafkaHandlers(cfg *config.Config, builder *usecase.ReportBuilder, table *usecase.FundTable, m *metrics.Recorder) []pkgkafka.MessageHandler {
	if cfg.Kafka.Topics.KeyFigures == "" {
		return nil
	}
	return []pkgkafka.MessageHandler{
		usecase.NewKafkaKeyFiguresHandler(cfg.Kafka.Topics.KeyFigures, builder, table, m),
	}
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideHTTPServer registers the health, API, dashboard and websocket routes.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	trends *usecase.TrendlineService,
	builder *usecase.ReportBuilder,
	table *usecase.FundTable,
	q *queue.RedisQueue,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	snapshots repository.SnapshotStore,
	rc *cache.RedisCache,
) *xhttp.Server {
	var jobs queue.Publisher
	if q != nil {
		jobs = q
	}
	probes := map[string]api.Probe{}
	if snapshots != nil {
		probes["clickhouse"] = snapshots.Health
	}
	if rc != nil {
		probes["redis"] = func(ctx context.Context) error { return rc.Client().Ping(ctx).Err() }
	}
	handlers := []xhttp.Handler{
		api.NewHealthHandler(l.With("health"), probes),
		api.NewReportEchoHandler(l.With("api"), trends, builder, table, jobs, cfg.Report.RefreshTimeout),
		api.NewDashboardHandler(l.With("dashboard"), table),
		ws.NewHandler(hub, table, cfg.Server.AllowedOrigins, l.With("ws")),
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		xhttp.WithLogger(l.With("http")),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithMiddleware(ratelimit.Middleware(limiter, l.With("ratelimit"))))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application server. When Kafka is enabled and the
// collector is configured, aggregated error logs are published to the logs topic.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	q *queue.RedisQueue,
	snapshots repository.SnapshotStore,
	events repository.EventPublisher,
	producer *pkgkafka.Producer,
	limiter *ratelimit.Limiter,
	c cache.Service,
	rc *cache.RedisCache,
	ch *pkgch.Client,
) *server.App {
	if producer != nil && cfg.Log.Collector.Enabled && cfg.Kafka.Topics.Logs != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      producer,
			IncludeWarn:    cfg.Log.Collector.IncludeWarn,
		})
	}

	var closers []io.Closer
	// events owns the producer when it exists
	if producer != nil && events == nil {
		closers = append(closers, producer)
	}
	if cl, ok := c.(io.Closer); ok {
		closers = append(closers, cl)
	}
	if rc != nil {
		if _, layered := c.(*cache.LayeredCache); !layered {
			closers = append(closers, rc)
		}
	}
	if ch != nil {
		closers = append(closers, ch)
	}

	return server.New(cfg, server.Deps{
		Logger:    l,
		HTTP:      httpServer,
		Hub:       hub,
		Consumer:  consumer,
		Handlers:  handlers,
		Queue:     q,
		Snapshots: snapshots,
		Events:    events,
		Limiter:   limiter,
		Closers:   closers,
	})
}

func currencyRates(in map[string]float64) map[models.Currency]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[models.Currency]float64, len(in))
	for k, v := range in {
		out[models.NormalizeCurrency(k)] = v
	}
	return out
}
