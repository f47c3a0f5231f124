package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"tracknow/internal/config"
	"tracknow/internal/grpcserver"
	"tracknow/internal/http/pprofserver"
	"tracknow/internal/logx"
	"tracknow/internal/notify"
	"tracknow/internal/realtime"
	"tracknow/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// Runner runs the API process.
type Runner struct {
	runFn func(*dig.Container) error
	exit  func(int)
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run, exit: os.Exit}
}

// MustRun starts the API using the provided DI container and exits the
// process on a fatal error.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	logger := containerLogger(container)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		if r.exit != nil {
			r.exit(1)
		}
	}
}

func containerLogger(container *dig.Container) logx.Logger {
	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	return logger
}

func run(container *dig.Container) error {
	return container.Invoke(apiRun)
}

type apiIn struct {
	dig.In

	Ctx        context.Context
	Config     *config.Config
	Logger     logx.Logger
	Pool       *pgxpool.Pool
	Redis      *goredis.Client
	Server     *http.Server
	GRPC       *grpcserver.Server
	Async      *realtime.Async
	Bridge     *realtime.RedisBridge
	Producer   *kafka.Producer
	Dispatcher *notify.Dispatcher
}

func apiRun(in apiIn) error {
	ctx, cancel := context.WithCancel(in.Ctx)
	defer cancel()

	tasks := []task{
		{"realtime publisher", in.Async.Run},
		{"notification dispatcher", in.Dispatcher.Run},
		{"pprof", func(ctx context.Context) error { return pprofserver.Run(ctx, in.Config.Pprof, in.Logger) }},
	}
	if in.Bridge != nil {
		tasks = append(tasks, task{"realtime redis bridge", in.Bridge.Run})
	}
	if in.GRPC != nil && in.Config.GRPCPort > 0 {
		addr := fmt.Sprintf(":%d", in.Config.GRPCPort)
		tasks = append(tasks, task{"grpc health", func(ctx context.Context) error {
			return in.GRPC.ListenAndServe(ctx, addr)
		}})
	}
	var wg sync.WaitGroup
	startTasks(ctx, &wg, in.Logger, tasks...)

	serveErr := startServer(in.Server, in.Logger)
	var err error
	select {
	case <-ctx.Done():
		in.Logger.Info("shutting down")
	case err = <-serveErr:
		in.Logger.Error("http server failed", logx.Err(err))
	}

	gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
	cancel()
	wg.Wait()
	closeResources(in.Logger, in.Pool, in.Redis, in.Producer)
	return err
}

type task struct {
	name string
	run  func(context.Context) error
}

// startTasks runs each task in its own goroutine. A task that stops early is
// logged; the process keeps serving.
func startTasks(ctx context.Context, wg *sync.WaitGroup, logger logx.Logger, tasks ...task) {
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			if err := t.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background task stopped", logx.String("task", t.name), logx.Err(err))
			}
		}(t)
	}
}

func startServer(server *http.Server, logger logx.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.Err(err))
	}
}

func closeResources(logger logx.Logger, pool *pgxpool.Pool, redis *goredis.Client, producer *kafka.Producer) {
	if err := producer.Close(); err != nil {
		logger.Warn("kafka producer close error", logx.Err(err))
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			logger.Warn("redis close error", logx.Err(err))
		}
	}
	if pool != nil {
		pool.Close()
	}
	_ = logger.Sync()
}
