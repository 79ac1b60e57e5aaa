/*
concurrent is a bounded-concurrency engine processing semi-structured values (see package value).

A Processor serves four methods:

- parallel_process maps a fixed transform over an array on the worker Pool, keeping input order.
- batch_process cuts an array into chunks. Chunks run one after another, each under one admission permit; the elements of a chunk run in parallel.
- map_reduce squares the numeric elements of an array in parallel, then folds the squares with sum, avg, max or min.
- pipeline_process feeds a value through named stages in order, each stage under its own admission permit.

Two resources bound the work. The Limiter caps how many chunks and stages are in flight across every request served by a Processor
(16 by default). The Pool caps the goroutines running per-element work; it is not gated by the Limiter, so a chunk holding a single
permit still uses every worker.

Admission is scoped: Limiter.Do releases its permit on every exit path, so a failing stage or a cancelled request never leaks capacity.

	proc, err := concurrent.New(concurrent.WithMaxConcurrent(8))
	if err != nil {
		return err
	}
	defer proc.Close()

	out, err := proc.Process(ctx, concurrent.BatchProcess, []any{1.0, 2.0, 3.0}, map[string]string{"batch_size": "2"})
*/

package concurrent
