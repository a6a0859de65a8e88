package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath is an .hcl file or a directory of them.
	PipelinePath string `yaml:"pipeline" validate:"required"`
	// Outputs overrides the outputs listed in the pipeline block.
	Outputs []string `yaml:"outputs"`

	BatchSize     int `yaml:"batch_size" validate:"gte=1"`
	PrefetchDepth int `yaml:"prefetch_depth" validate:"gte=1"`
	Workers       int `yaml:"workers" validate:"gte=1"`
	Iterations    int `yaml:"iterations" validate:"gte=0"`
	// SampleBytes is the size of each synthetic sample fed to external sources.
	SampleBytes int `yaml:"sample_bytes" validate:"gte=1"`

	LogFormat       string `yaml:"log_format" validate:"logformat"`
	LogLevel        string `yaml:"log_level" validate:"loglevel"`
	HealthcheckPort int    `yaml:"healthcheck_port" validate:"gte=0,lte=65535"`
	TraceExporter   string `yaml:"trace_exporter" validate:"oneof=none stdout"`
	MetricExporter  string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
}

// DefaultConfig returns the configuration used when neither a config file
// nor a flag sets a value.
func DefaultConfig() Config {
	return Config{
		BatchSize:      1,
		PrefetchDepth:  2,
		Workers:        4,
		Iterations:     1,
		SampleBytes:    16,
		LogFormat:      "text",
		LogLevel:       "info",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("logformat", validateLogFormat)
	_ = configValidate.RegisterValidation("loglevel", validateLogLevel)
}

func validateLogFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "text", "json":
		return true
	}
	return false
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid configuration: field %s fails %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig. Fields
// missing from the file keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
