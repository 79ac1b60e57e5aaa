package service

import (
	"context"
	"strings"

	"github.com/fogfactory/concurrent"
)

// concurrentMethods maps the wire names accepted after ConcurrentPrefix to
// Processor methods. Names missing here are passed through unchanged.
var concurrentMethods = map[string]string{
	"parallel_process": concurrent.ParallelProcess,
	"batch_process":    concurrent.BatchProcess,
	"map_reduce":       concurrent.MapReduce,
	"pipeline":         concurrent.PipelineProcess,
}

// concurrentEngine adapts a Processor to the Engine contract.
type concurrentEngine struct {
	processor *concurrent.Processor
}

func (e concurrentEngine) Process(ctx context.Context, method string, data any, options map[string]string) (any, error) {
	name := strings.TrimPrefix(method, ConcurrentPrefix)
	if mapped, ok := concurrentMethods[name]; ok {
		name = mapped
	}
	return e.processor.Process(ctx, name, data, options)
}

func (e concurrentEngine) Capabilities() []string {
	return e.processor.Capabilities()
}
