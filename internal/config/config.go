// Package config loads the concurrentd configuration from the environment and
// the command line, flags taking precedence.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fogfactory/concurrent"
)

// Environment variables read by Load.
const (
	EnvMaxTasks     = "CONCURRENT_MAX_TASKS"
	EnvWorkers      = "CONCURRENT_WORKERS"
	EnvNATSURL      = "CONCURRENT_NATS_URL"
	EnvNATSSubject  = "CONCURRENT_NATS_SUBJECT"
	EnvNATSQueue    = "CONCURRENT_NATS_QUEUE"
	EnvOTLPEndpoint = "CONCURRENT_OTLP_ENDPOINT"
	EnvSentryDSN    = "CONCURRENT_SENTRY_DSN"
	EnvEnvironment  = "CONCURRENT_ENVIRONMENT"
	EnvLogLevel     = "CONCURRENT_LOG_LEVEL"
)

// Config holds the process configuration.
type Config struct {
	MaxConcurrent int
	Workers       int

	NATSURL     string
	NATSSubject string
	NATSQueue   string

	OTLPEndpoint string
	SentryDSN    string
	Environment  string

	LogLevel string
	Dev      bool

	// Input is the JSON-lines request file of batch mode, "-" for stdin.
	Input string
}

// Default returns the configuration before environment and flags apply.
func Default() Config {
	return Config{
		MaxConcurrent: concurrent.DefaultMaxConcurrent,
		Workers:       runtime.GOMAXPROCS(0),
		NATSSubject:   "concurrent.requests",
		NATSQueue:     "concurrentd",
		Environment:   "development",
		LogLevel:      "info",
		Input:         "-",
	}
}

// Load builds the configuration: defaults, then environment, then args.
func Load(name string, args []string) (Config, error) {
	cfg := Default()

	cfg.MaxConcurrent = getEnvInt(EnvMaxTasks, cfg.MaxConcurrent)
	cfg.Workers = getEnvInt(EnvWorkers, cfg.Workers)
	cfg.NATSURL = getEnv(EnvNATSURL, cfg.NATSURL)
	cfg.NATSSubject = getEnv(EnvNATSSubject, cfg.NATSSubject)
	cfg.NATSQueue = getEnv(EnvNATSQueue, cfg.NATSQueue)
	cfg.OTLPEndpoint = getEnv(EnvOTLPEndpoint, cfg.OTLPEndpoint)
	cfg.SentryDSN = getEnv(EnvSentryDSN, cfg.SentryDSN)
	cfg.Environment = getEnv(EnvEnvironment, cfg.Environment)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.IntVar(&cfg.MaxConcurrent, "max-tasks", cfg.MaxConcurrent, "admission permits shared by chunks and stages")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "goroutines running per-element work (0 runs inline)")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "serve requests from this NATS server instead of reading --input")
	fs.StringVar(&cfg.NATSSubject, "nats-subject", cfg.NATSSubject, "subject receiving requests")
	fs.StringVar(&cfg.NATSQueue, "nats-queue", cfg.NATSQueue, "queue group shared by service instances")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", cfg.OTLPEndpoint, "OTLP/HTTP host:port receiving traces")
	fs.StringVar(&cfg.SentryDSN, "sentry-dsn", cfg.SentryDSN, "report failed requests to Sentry")
	fs.StringVar(&cfg.Environment, "environment", cfg.Environment, "deployment environment reported to tracing and Sentry")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "human-readable logs")
	fs.StringVarP(&cfg.Input, "input", "i", cfg.Input, "JSON-lines request file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max tasks must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return fmt.Errorf("a NATS subject is required with a NATS URL")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// NewLogger builds the process logger.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// getEnvInt retrieves an integer from environment variable with default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
