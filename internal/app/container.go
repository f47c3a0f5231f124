package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"tracknow/internal/config"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
	"tracknow/internal/repository"
)

type dbConnectFunc func(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	loadConfig func() (*config.Config, error)
	dbConnect  dbConnectFunc
	logFatalf  func(string, ...any)
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		loadConfig: config.Load,
		dbConnect:  connectDBWithRetry,
		logFatalf:  log.Fatalf,
	}
}

// WithConfig sets the configuration loader
func (b *ContainerBuilder) WithConfig(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadConfig = fn
	}
	return b
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...any)) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds the API container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	return b.must(b.build(ctx))
}

// MustBuildWorker builds the background worker container.
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	return b.must(b.buildWorker(ctx))
}

func (b *ContainerBuilder) must(container *dig.Container, err error) *dig.Container {
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

type registrar struct {
	name string
	fn   func(*dig.Container) error
}

func (b *ContainerBuilder) shared(ctx context.Context) []registrar {
	return []registrar{
		{"core", func(c *dig.Container) error { return registerCore(c, ctx, b.loadConfig) }},
		{"DB", func(c *dig.Container) error { return registerDB(c, b.dbConnect) }},
		{"storage", registerStorage},
		{"metrics", registerMetrics},
		{"realtime", registerRealtime},
		{"notify", registerNotify},
		{"service", registerDomainServices},
	}
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	return assemble(append(b.shared(ctx),
		registrar{"http", registerHTTP},
		registrar{"grpc", registerGRPC},
	)...)
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	return assemble(append(b.shared(ctx),
		registrar{"worker", registerWorker},
	)...)
}

func assemble(steps ...registrar) (*dig.Container, error) {
	container := dig.New()
	for _, s := range steps {
		if err := s.fn(container); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return container, nil
}

// MustBuildContainer builds and returns the API container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds and returns the worker container
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, loadConfig func() (*config.Config, error)) error {
	return provideAll(container,
		func() context.Context { return ctx },
		loadConfig,
		newLogger,
	)
}

func registerDB(container *dig.Container, dbConnect dbConnectFunc) error {
	providerDB := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*pgxpool.Pool, error) {
		return dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
	}
	providerCatalog := func(ctx context.Context, pool *pgxpool.Pool) (*domain.StatusCatalog, error) {
		return repository.LoadStatusCatalog(ctx, pool)
	}
	return provideAll(container, providerDB, providerCatalog)
}
