package concurrent

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Option keys read from a request's option map.
const (
	OptionBatchSize = "batch_size"
	OptionOperation = "operation"
	OptionStages    = "stages"
)

// Options is the parsed form of a request's option map.
type Options struct {
	// BatchSize is the batch_process chunk size. Defaults to DefaultBatchSize
	// when absent, unparsable or not positive.
	BatchSize int
	// Operation is the map_reduce reducer name, "sum" by default. It is
	// validated by the map_reduce method only.
	Operation string
	// Stages is the pipeline_process stage list: comma-separated, entries
	// trimmed, empty entries dropped. Absent means DefaultStages; an empty
	// string means no stages.
	Stages []string
}

// ParseOptions resolves raw options against their defaults.
func ParseOptions(raw map[string]string) Options {
	opts := Options{
		BatchSize: DefaultBatchSize,
		Operation: DefaultOperation,
		Stages:    DefaultStages(),
	}

	if s, ok := raw[OptionBatchSize]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			opts.BatchSize = n
		}
	}
	if s, ok := raw[OptionOperation]; ok {
		opts.Operation = s
	}
	if s, ok := raw[OptionStages]; ok {
		opts.Stages = lo.Compact(lo.Map(strings.Split(s, ","), func(name string, _ int) string {
			return strings.TrimSpace(name)
		}))
	}
	return opts
}
