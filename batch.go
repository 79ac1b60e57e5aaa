package concurrent

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fogfactory/concurrent/value"
)

// DefaultBatchSize is the chunk size used when none is configured.
const DefaultBatchSize = 10

// BatchScheduler splits a sequence into fixed-size chunks and processes them
// one after another. Each chunk runs under its own admission permit; the
// elements of a chunk are transformed in parallel on the pool.
type BatchScheduler struct {
	limiter *Limiter
	pool    *Pool
}

// NewBatchScheduler builds a scheduler drawing permits from limiter and
// workers from pool.
func NewBatchScheduler(limiter *Limiter, pool *Pool) *BatchScheduler {
	return &BatchScheduler{limiter: limiter, pool: pool}
}

// Batch partitions items into ceil(len/size) chunks and maps f over each one.
// f receives the chunk ordinal alongside the element. A non-positive size
// falls back to DefaultBatchSize.
func (b *BatchScheduler) Batch(ctx context.Context, items []any, size int, f func(item any, batchID int) any) ([][]any, error) {
	if size <= 0 {
		size = DefaultBatchSize
	}

	chunks := lo.Chunk(items, size)
	out := make([][]any, 0, len(chunks))
	for batchID, chunk := range chunks {
		processed, err := b.runChunk(ctx, batchID, chunk, f)
		if err != nil {
			return nil, err
		}
		out = append(out, processed)
	}
	return out, nil
}

func (b *BatchScheduler) runChunk(ctx context.Context, batchID int, chunk []any, f func(any, int) any) ([]any, error) {
	ctx, span := tracer.Start(ctx, "concurrent.batch.chunk", trace.WithAttributes(
		attribute.Int("batch_id", batchID),
		attribute.Int("chunk_len", len(chunk)),
	))
	defer span.End()

	var processed []any
	err := b.limiter.Do(ctx, func() error {
		processed = ParallelMap(b.pool, chunk, func(item any, _ int) any {
			return f(item, batchID)
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return processed, nil
}

// batchElement wraps one element of a chunk for the batch_process method.
func batchElement(item any, batchID int) any {
	return value.Object{
		{Key: "input", Value: item},
		{Key: "processed", Value: true},
		{Key: "batch_id", Value: float64(batchID)},
	}
}

func (p *Processor) batchProcess(ctx context.Context, data any, opts Options) (any, error) {
	items, ok := value.AsArray(data)
	if !ok {
		return nil, ErrInputShape
	}

	batches, err := p.batch.Batch(ctx, items, opts.BatchSize, batchElement)
	if err != nil {
		return nil, err
	}

	return value.Object{
		{Key: "batches", Value: lo.Map(batches, func(chunk []any, _ int) any { return chunk })},
		{Key: "batch_count", Value: float64(len(batches))},
		{Key: "batch_size", Value: float64(opts.BatchSize)},
	}, nil
}
