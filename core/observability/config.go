package observability

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperterse/sqltask/core/parser"
)

// Config controls OpenTelemetry export. Export is off unless
// SQLTASK_OTEL_ENABLED is set.
type Config struct {
	Enabled           bool
	TracesEnabled     bool
	MetricsEnabled    bool
	ServiceName       string
	ServiceVersion    string
	Environment       string
	OTLPEndpoint      string
	TraceSamplingRate float64
}

// ResolveConfig builds the configuration from defaults and SQLTASK_OTEL_* variables
func ResolveConfig(serviceVersion string) (Config, error) {
	cfg := Config{
		Enabled:           false,
		TracesEnabled:     true,
		MetricsEnabled:    true,
		ServiceName:       "sqltask",
		ServiceVersion:    "dev",
		Environment:       "development",
		OTLPEndpoint:      "localhost:4317",
		TraceSamplingRate: 1.0,
	}
	if serviceVersion != "" {
		cfg.ServiceVersion = serviceVersion
	}

	overrideBool("SQLTASK_OTEL_ENABLED", &cfg.Enabled)
	overrideBool("SQLTASK_OTEL_TRACES_ENABLED", &cfg.TracesEnabled)
	overrideBool("SQLTASK_OTEL_METRICS_ENABLED", &cfg.MetricsEnabled)
	overrideString("SQLTASK_OTEL_SERVICE_NAME", &cfg.ServiceName)
	overrideString("SQLTASK_OTEL_SERVICE_VERSION", &cfg.ServiceVersion)
	overrideString("SQLTASK_OTEL_ENVIRONMENT", &cfg.Environment)
	overrideString("SQLTASK_OTEL_ENDPOINT", &cfg.OTLPEndpoint)
	overrideFloat("SQLTASK_OTEL_TRACE_SAMPLING_RATIO", &cfg.TraceSamplingRate)

	if cfg.TraceSamplingRate < 0 {
		cfg.TraceSamplingRate = 0
	}
	if cfg.TraceSamplingRate > 1 {
		cfg.TraceSamplingRate = 1
	}

	for name, target := range map[string]*string{
		"service name":  &cfg.ServiceName,
		"environment":   &cfg.Environment,
		"otlp endpoint": &cfg.OTLPEndpoint,
	} {
		value, err := parser.SubstituteEnvVars(strings.TrimSpace(*target))
		if err != nil {
			return Config{}, fmt.Errorf("resolve observability %s: %w", name, err)
		}
		*target = value
	}

	return cfg, nil
}

func overrideString(name string, target *string) {
	if value := os.Getenv(name); value != "" {
		*target = value
	}
}

func overrideBool(name string, target *bool) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err == nil {
		*target = parsed
	}
}

func overrideFloat(name string, target *float64) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err == nil {
		*target = parsed
	}
}
