package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/agents/base"
	"github.com/KulikovMichael/sgr-base-agent/config"
	"github.com/KulikovMichael/sgr-base-agent/executor"
	"github.com/KulikovMichael/sgr-base-agent/gateway"
	"github.com/KulikovMichael/sgr-base-agent/hooks"
	"github.com/KulikovMichael/sgr-base-agent/logging"
	"github.com/KulikovMichael/sgr-base-agent/metrics"
	"github.com/KulikovMichael/sgr-base-agent/models"
	"github.com/KulikovMichael/sgr-base-agent/sessionstore"
	"github.com/KulikovMichael/sgr-base-agent/tracelog"
	"github.com/KulikovMichael/sgr-base-agent/tracing"
	"go.uber.org/zap"
)

// app is one wired agent session plus the infrastructure it runs on.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	state  *base.BusinessState
	exec   *executor.Executor
	sink   *tracelog.FileSink

	closers []func(context.Context) error
}

// newApp wires the reference agent for sessionID. A session found in the store is resumed;
// an empty sessionID starts a new session with a generated id.
func newApp(ctx context.Context, opts *Options, sessionID string) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.onClose(func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	if cfg.Tracing.Endpoint != "" {
		tp, err := tracing.InitTracer(ctx, tracing.OTelConfig{
			ServiceName:    tracing.TracerName,
			ExportEndpoint: cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.onClose(tp.Shutdown)
	}

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}

	store, closer, err := sessionstore.Open(ctx, cfg.Session.StoreURL, cfg.Session.TTL)
	if err != nil {
		a.close()
		return nil, err
	}
	a.onClose(func(context.Context) error { return closer.Close() })

	a.state = base.NewBusinessState(sessionID)
	if sessionID != "" {
		err := store.Load(ctx, sessionID, a.state)
		switch {
		case errors.Is(err, sessionstore.ErrNotFound):
		case err != nil:
			a.close()
			return nil, err
		default:
			logger.Info("SessionResumed",
				zap.String("session_id", sessionID),
				zap.Int("messages", len(a.state.ChatHistory)),
			)
		}
	}

	backend := opts.backend
	if backend == nil {
		backend = models.NewOpenAIBackend(cfg.LLM.APIKey).
			WithTimeout(cfg.LLM.Timeout).
			WithLogger(logger)
	}
	gw := gateway.New(backend, cfg.LLM.Model).
		WithBaseURL(cfg.LLM.BaseURL).
		WithRetry(cfg.Gateway.MaxAttempts, cfg.Gateway.RetryDelay).
		WithLogger(logger)

	var hookFirer sgr.HookFirer
	if opts.Verbose {
		hookFirer = hooks.NewRegistry().Register(hooks.NewLoggerHook(os.Stderr))
	}

	a.sink = tracelog.NewFileSink(cfg.Trace.Dir).WithLogger(logger)
	a.exec = base.New(a.state, gw, a.sink, base.Options{
		Executor: executor.Config{MaxSteps: cfg.Agent.MaxSteps},
		Logger:   logger,
		Hooks:    hookFirer,
		Store:    store,
	})

	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *app) serveMetrics(addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("MetricsServerFailed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	a.logger.Info("MetricsServerStarted", zap.String("addr", addr))
	a.onClose(srv.Shutdown)
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.logger != nil {
			a.logger.Warn("CloseFailed", zap.Error(err))
		}
	}
	a.closers = nil
}

// send runs one user message and renders the reply.
func (a *app) send(ctx context.Context, message string) (string, error) {
	reply, err := a.exec.Send(ctx, message)
	if err != nil {
		if errors.Is(err, executor.ErrMaxStepsExceeded) {
			return "", fmt.Errorf("no answer after %d steps: %w", reply.Steps, err)
		}
		var unknown *sgr.UnknownToolRequestedError
		if errors.As(err, &unknown) {
			return "", fmt.Errorf("model chose an unavailable action: %w", err)
		}
		return "", err
	}
	return reply.Answer, nil
}
