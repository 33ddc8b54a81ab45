package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ObservabilityConfig struct {
	ServiceName string         `koanf:"service_name"`
	Environment string         `koanf:"environment"`
	Logging     LoggingConfig  `koanf:"logging"`
	NewRelic    NewRelicConfig `koanf:"new_relic"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

type NewRelicConfig struct {
	LicenseKey                string `koanf:"license_key"`
	AppLogForwardingEnabled   bool   `koanf:"app_log_forwarding_enabled"`
	DistributedTracingEnabled bool   `koanf:"distributed_tracing_enabled"`
}

func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: "logwatch",
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NewRelic: NewRelicConfig{
			DistributedTracingEnabled: true,
		},
	}
}

func (o *ObservabilityConfig) Validate() error {
	if o.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if o.Logging.Level == "" {
		o.Logging.Level = "info"
	}
	if _, err := zerolog.ParseLevel(o.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level %q: %w", o.Logging.Level, err)
	}
	switch o.Logging.Format {
	case "":
		o.Logging.Format = "json"
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", o.Logging.Format)
	}
	return nil
}

// NewRelicEnabled reports whether a license key was configured.
func (o *ObservabilityConfig) NewRelicEnabled() bool {
	return o != nil && o.NewRelic.LicenseKey != ""
}

// ZerologLevel returns the parsed level, info when unparseable.
func (o *ObservabilityConfig) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(o.Logging.Level)
	if err != nil || o.Logging.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
