package observability

import (
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/codstats/internal/config"
	"github.com/riskibarqy/codstats/internal/platform/logging"
)

// InitPyroscope starts continuous profiling when enabled. Only the scheduled
// poller runs long enough for profiles to be useful.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.Pyroscope.Enabled {
		logger.Info("pyroscope disabled")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.Pyroscope.AppName,
		ServerAddress:   cfg.Pyroscope.ServerAddress,
		AuthToken:       cfg.Pyroscope.AuthToken,
		UploadRate:      cfg.Pyroscope.UploadRate,
		Tags: map[string]string{
			"env":     cfg.Env,
			"service": cfg.ServiceName,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.Pyroscope.ServerAddress,
		"application", cfg.Pyroscope.AppName,
	)

	return profiler.Stop, nil
}
