// Package service is the request/response envelope around the engines. It
// assigns request ids, times every request, keeps rolling metrics and routes
// method names to engines by prefix.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fogfactory/concurrent"
	"github.com/fogfactory/concurrent/value"
)

var (
	// ErrUnknownMethod is returned for a method no engine or general handler
	// serves.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrDuplicateEngine is returned when an engine prefix is registered twice.
	ErrDuplicateEngine = errors.New("engine prefix already registered")
)

// ConcurrentPrefix routes methods to the concurrency Processor.
const ConcurrentPrefix = "concurrent_"

const (
	methodHealthCheck     = "health_check"
	methodGetCapabilities = "get_capabilities"
	methodGetMetrics      = "get_metrics"
)

var generalMethods = mapset.NewSet(methodHealthCheck, methodGetCapabilities, methodGetMetrics)

// Engine is the contract every processing engine honours.
type Engine interface {
	Process(ctx context.Context, method string, data any, options map[string]string) (any, error)
	Capabilities() []string
}

// Metrics are the rolling counters of a Service.
type Metrics struct {
	TotalOperations uint64
	// AverageProcessingTime is the running mean latency, in seconds.
	AverageProcessingTime float64
}

type route struct {
	prefix string
	name   string
	// component is the health_check key of the engine.
	component string
	engine    Engine
}

// Service dispatches Requests to engines.
type Service struct {
	processor *concurrent.Processor
	routes    []route
	prefixes  mapset.Set[string]

	mu      sync.RWMutex
	metrics Metrics

	logger      *zap.Logger
	tracer      trace.Tracer
	reportError func(error)
	started     time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithErrorReporter sets a hook called with every failed request's error.
func WithErrorReporter(report func(error)) Option {
	return func(s *Service) { s.reportError = report }
}

// New builds a Service with the Processor registered under ConcurrentPrefix.
func New(processor *concurrent.Processor, opts ...Option) *Service {
	s := &Service{
		processor: processor,
		prefixes:  mapset.NewThreadUnsafeSet[string](),
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("github.com/fogfactory/concurrent/service"),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	_ = s.register(ConcurrentPrefix, "concurrent_processor", concurrentEngine{processor})
	return s
}

// Register routes every method starting with prefix to engine. Register is
// not safe to call concurrently with Handle.
func (s *Service) Register(prefix string, engine Engine) error {
	return s.register(prefix, strings.TrimSuffix(prefix, "_")+"_engine", engine)
}

func (s *Service) register(prefix, component string, engine Engine) error {
	if !s.prefixes.Add(prefix) {
		return fmt.Errorf("%w: %s", ErrDuplicateEngine, prefix)
	}
	s.routes = append(s.routes, route{
		prefix:    prefix,
		name:      strings.TrimSuffix(prefix, "_"),
		component: component,
		engine:    engine,
	})
	return nil
}

// Handle serves one request. It never fails: errors are reported in the
// Response.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx, span := s.tracer.Start(ctx, "service.handle", trace.WithAttributes(
		attribute.String("request_id", req.RequestID),
		attribute.String("method", req.Method),
	))
	defer span.End()

	logger := s.logger.With(zap.String("request_id", req.RequestID), zap.String("method", req.Method))
	logger.Debug("processing request")

	start := time.Now()
	result, err := s.dispatch(ctx, req)
	elapsed := time.Since(start)
	s.updateMetrics(elapsed)

	processingTime := strconv.FormatFloat(elapsed.Seconds(), 'f', -1, 64)
	if err != nil {
		code := errorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("request failed", zap.String("error_code", code), zap.Duration("elapsed", elapsed), zap.Error(err))
		if s.reportError != nil {
			s.reportError(fmt.Errorf("request %s (%s): %w", req.RequestID, req.Method, err))
		}
		return Response{
			RequestID: req.RequestID,
			Error:     err.Error(),
			Metadata: map[string]string{
				"error_code":      code,
				"processing_time": processingTime,
			},
		}
	}

	logger.Debug("request processed", zap.Duration("elapsed", elapsed))
	return Response{
		RequestID: req.RequestID,
		Success:   true,
		Result:    result,
		Metadata: map[string]string{
			"processing_time": processingTime,
			"language":        "go",
		},
	}
}

func (s *Service) dispatch(ctx context.Context, req Request) (any, error) {
	if generalMethods.Contains(req.Method) {
		return s.general(req.Method), nil
	}
	for _, r := range s.routes {
		if strings.HasPrefix(req.Method, r.prefix) {
			return r.engine.Process(ctx, req.Method, req.Data, req.Options)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, req.Method)
}

func (s *Service) general(method string) any {
	switch method {
	case methodHealthCheck:
		components := value.Object{}
		for _, r := range s.routes {
			components.Set(r.component, "active")
		}
		return value.Object{
			{Key: "status", Value: "healthy"},
			{Key: "language", Value: "go"},
			{Key: "components", Value: components},
			{Key: "uptime", Value: time.Since(s.started).Seconds()},
		}
	case methodGetCapabilities:
		caps := value.Object{}
		for _, r := range s.routes {
			caps.Set(r.name, toValues(r.engine.Capabilities()))
		}
		return caps
	}

	m := s.Metrics()
	stats := s.processor.LimiterStats()
	return value.Object{
		{Key: "total_operations", Value: float64(m.TotalOperations)},
		{Key: "average_processing_time", Value: m.AverageProcessingTime},
		{Key: "concurrent_tasks", Value: float64(s.processor.ActiveTaskCount())},
		{Key: "max_concurrent_tasks", Value: float64(s.processor.MaxConcurrentTasks())},
		{Key: "admission", Value: value.Object{
			{Key: "active", Value: float64(stats.Active)},
			{Key: "total_acquired", Value: float64(stats.TotalAcquired)},
			{Key: "peak", Value: float64(stats.Peak)},
			{Key: "average_wait_seconds", Value: stats.AverageWait().Seconds()},
		}},
	}
}

func (s *Service) updateMetrics(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.TotalOperations++
	n := float64(s.metrics.TotalOperations)
	s.metrics.AverageProcessingTime = (s.metrics.AverageProcessingTime*(n-1) + elapsed.Seconds()) / n
}

// Metrics returns a snapshot of the rolling metrics.
func (s *Service) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

func errorCode(err error) string {
	if errors.Is(err, ErrUnknownMethod) {
		return concurrent.CodeUnknownMethod
	}
	return concurrent.ErrorCode(err)
}

func toValues(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
