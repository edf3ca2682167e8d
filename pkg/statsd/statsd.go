// Package statsd is a thin, nil-safe reporter over the DataDog statsd
// client. A disabled reporter swallows every metric, so callers never
// need to branch on whether metrics are configured.
package statsd

import (
	"time"

	std "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/goto/salt/log"
)

// Config represents configuration options for the statsd reporter.
type Config struct {
	Enabled      bool    `mapstructure:"enabled" default:"false"`
	Address      string  `mapstructure:"address" default:"127.0.0.1:8125"`
	Prefix       string  `mapstructure:"prefix" default:"scout"`
	SamplingRate float64 `mapstructure:"sampling_rate" default:"1"`
}

// Reporter publishes metrics. A nil or disabled reporter is valid and
// publishes nothing.
type Reporter struct {
	client *std.Client
	logger log.Logger
	config Config
}

// Init validates the config and initializes the statsd client.
func Init(logger log.Logger, cfg Config) (*Reporter, error) {
	reporter := &Reporter{logger: logger, config: cfg}
	if !cfg.Enabled {
		logger.Warn("statsd is disabled")
		return reporter, nil
	}

	client, err := std.New(cfg.Address,
		std.WithNamespace(cfg.Prefix),
		std.WithoutTelemetry())
	if err != nil {
		return nil, err
	}
	reporter.client = client
	return reporter, nil
}

// Close closes the statsd connection.
func (sd *Reporter) Close() {
	if sd != nil && sd.client != nil {
		sd.client.Close()
	}
}

// Incr returns an increment counter metric.
func (sd *Reporter) Incr(name string) *Metric {
	if sd == nil {
		return nil
	}
	return &Metric{
		rate:   sd.config.SamplingRate,
		logger: sd.logger,
		name:   name,
		publishFunc: func(name string, tags []string, rate float64) error {
			if sd.client == nil {
				return nil
			}
			return sd.client.Incr(name, tags, rate)
		},
	}
}

// Timing returns a timer metric.
func (sd *Reporter) Timing(name string, value time.Duration) *Metric {
	if sd == nil {
		return nil
	}
	return &Metric{
		rate:   sd.config.SamplingRate,
		logger: sd.logger,
		name:   name,
		publishFunc: func(name string, tags []string, rate float64) error {
			if sd.client == nil {
				return nil
			}
			return sd.client.Timing(name, value, tags, rate)
		},
	}
}
