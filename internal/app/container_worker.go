package app

import (
	"context"
	"time"

	"go.uber.org/dig"

	"tracknow/internal/config"
	"tracknow/internal/domain"
	"tracknow/internal/jobs"
	"tracknow/internal/logx"
	"tracknow/internal/service/payment"
	"tracknow/internal/service/report"
	"tracknow/internal/transport/kafka"
)

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config, logger logx.Logger, p *payment.Processor) (*kafka.Consumer, error) {
			k := cfg.Kafka
			return kafka.NewConsumer(logger, k.Brokers, k.GroupID, k.PaymentsTopic, makePaymentsHandler(p))
		},
		newReportWarmupJob,
	)
}

// makePaymentsHandler adapts the processor to the consumer. Domain errors
// returned by the processor are treated as permanent by the consumer.
func makePaymentsHandler(p *payment.Processor) kafka.HandleFunc {
	return func(ctx context.Context, out domain.PaymentOutcome) error {
		_, err := p.Handle(ctx, out)
		return err
	}
}

// newReportWarmupJob returns nil when no schedule is configured.
func newReportWarmupJob(cfg *config.Config, svc *report.Service, logger logx.Logger) *jobs.ReportWarmupJob {
	if cfg.Report.WarmupCron == "" {
		return nil
	}
	return jobs.NewReportWarmupJob(svc, cfg.Report.WarmupCron, 30*time.Second, logger)
}
