package server

import (
	"context"
	"fmt"
	"io"
	"time"

	domrepo "SumReport/internal/domain/repository"
	"SumReport/internal/handler/ws"
	"SumReport/internal/service/ratelimit"
	"SumReport/pkg/config"
	xhttp "SumReport/pkg/http"
	pkgkafka "SumReport/pkg/kafka"
	applogger "SumReport/pkg/logger"
	"SumReport/pkg/queue"
)

const (
	schemaInitTimeout = 30 * time.Second
	limiterPruneEvery = time.Minute
	limiterIdle       = 10 * time.Minute
)

// Deps are the components the App starts and stops. Optional ones are nil
// when disabled in config.
type Deps struct {
	Logger    *applogger.Logger
	HTTP      *xhttp.Server
	Hub       *ws.Hub
	Consumer  *pkgkafka.Consumer
	Handlers  []pkgkafka.MessageHandler
	Queue     *queue.RedisQueue
	Snapshots domrepo.SnapshotStore
	Events    domrepo.EventPublisher
	Limiter   *ratelimit.Limiter
	// Closers run last, in order, e.g. cache and ClickHouse clients.
	Closers []io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	l   *applogger.Logger
	d   Deps
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, d Deps) *App {
	l := d.Logger
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, d: d}
}

// Run starts every component and blocks until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.d.Snapshots != nil {
		initCtx, initCancel := context.WithTimeout(ctx, schemaInitTimeout)
		err := a.d.Snapshots.Init(initCtx)
		initCancel()
		if err != nil {
			return fmt.Errorf("snapshot store: %w", err)
		}
		a.l.Info("snapshot store ready")
	}

	if a.d.Hub != nil {
		go a.d.Hub.Run(ctx)
	}

	if a.d.Queue != nil {
		if err := a.d.Queue.Start(); err != nil {
			return fmt.Errorf("job queue: %w", err)
		}
	}

	if a.d.Consumer != nil && len(a.d.Handlers) > 0 {
		topics := make([]string, 0, len(a.d.Handlers))
		for _, h := range a.d.Handlers {
			a.d.Consumer.RegisterHandler(h)
			topics = append(topics, h.Topic())
		}
		if err := a.d.Consumer.Start(); err != nil {
			a.stopQueue()
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	if a.d.Limiter != nil {
		go a.pruneLimiter(ctx)
	}

	if a.d.HTTP != nil {
		if err := a.d.HTTP.Start(); err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	a.l.Info("sumreport started", applogger.String("env", a.cfg.Environment))
	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) pruneLimiter(ctx context.Context) {
	t := time.NewTicker(limiterPruneEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.d.Limiter.Prune(limiterIdle); n > 0 {
				a.l.Debug("rate limiter pruned", applogger.Int("keys", n))
			}
		}
	}
}

// shutdown stops inbound traffic first, then background workers, then
// outbound clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.d.HTTP != nil {
		if err := a.d.HTTP.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.d.Consumer != nil {
		if err := a.d.Consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.stopQueue()

	// flush aggregated logs while the producer is still open
	a.l.RemoveCollector()

	if a.d.Events != nil {
		if err := a.d.Events.Close(); err != nil {
			a.l.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.d.Snapshots != nil {
		if err := a.d.Snapshots.Close(); err != nil {
			a.l.Warn("snapshot store close error", applogger.Error(err))
		}
	}
	for _, c := range a.d.Closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}

func (a *App) stopQueue() {
	if a.d.Queue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.d.Queue.Stop(ctx); err != nil {
		a.l.Warn("job queue stop error", applogger.Error(err))
	}
}
