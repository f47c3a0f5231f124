package app

import (
	"os"

	"tracknow/internal/config"
	"tracknow/internal/logx"
)

const serviceName = "tracknow"

func newLogger(cfg *config.Config) (logx.Logger, error) {
	return logx.New(logx.Options{
		Backend: cfg.Log.Backend,
		Level:   cfg.Log.Level,
		Service: serviceName,
	}, os.Stdout)
}
