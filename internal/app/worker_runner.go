package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"tracknow/internal/jobs"
	"tracknow/internal/logx"
	"tracknow/internal/notify"
	"tracknow/internal/realtime"
	"tracknow/internal/transport/kafka"
)

// WorkerRunner runs the payment consumer and scheduled jobs.
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the worker using the provided DI container
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

type workerIn struct {
	dig.In

	Ctx        context.Context
	Logger     logx.Logger
	Pool       *pgxpool.Pool
	Redis      *goredis.Client
	Consumer   *kafka.Consumer
	Producer   *kafka.Producer
	Warmup     *jobs.ReportWarmupJob
	Async      *realtime.Async
	Dispatcher *notify.Dispatcher
}

func workerRun(in workerIn) error {
	if in.Consumer == nil {
		return fmt.Errorf("kafka consumer is nil: KAFKA_BROKERS is not configured")
	}
	defer closeWorker(in)

	ctx, cancel := context.WithCancel(in.Ctx)
	defer cancel()

	tasks := []task{
		{"realtime publisher", in.Async.Run},
		{"notification dispatcher", in.Dispatcher.Run},
	}
	if in.Warmup != nil {
		tasks = append(tasks, task{"report warmup", in.Warmup.Run})
	}
	var wg sync.WaitGroup
	startTasks(ctx, &wg, in.Logger, tasks...)
	defer wg.Wait()
	defer cancel()

	in.Logger.Info("tracknow worker started")
	return in.Consumer.Run(ctx)
}

func closeWorker(in workerIn) {
	if err := in.Consumer.Close(); err != nil {
		in.Logger.Error("kafka consumer close error", logx.Err(err))
	}
	closeResources(in.Logger, in.Pool, in.Redis, in.Producer)
}
