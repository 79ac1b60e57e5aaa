package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/fogfactory/concurrent"
)

// Load describes one profiling run.
type Load struct {
	// Items is the length of the input array.
	Items int
	// BatchSize is the batch_process chunk size.
	BatchSize int
	// Workers and MaxConcurrent size the processor.
	Workers       int
	MaxConcurrent int
	// Rounds is how many times every method is run.
	Rounds int
}

// Profile runs every processor method against a synthetic load and writes a
// CPU profile to dir, named concurrent_{date}_items{n}_w{workers}.prof. It
// returns the profile path.
//
// use pprof to read the file (go install github.com/google/pprof@latest), e.g.
// pprof -http=:8080 $file
func Profile(dir string, load Load) (string, error) {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("concurrent_%s_items%d_w%d.prof",
		strings.ReplaceAll(time.Now().Truncate(time.Second).Format(time.DateTime), " ", "-"),
		load.Items,
		load.Workers)))
	if err != nil {
		return "", err
	}
	defer f.Close()

	proc, err := concurrent.New(
		concurrent.WithWorkers(load.Workers),
		concurrent.WithMaxConcurrent(load.MaxConcurrent),
	)
	if err != nil {
		return "", err
	}
	defer proc.Close()

	data := lo.Times(load.Items, func(i int) any {
		if i%3 == 0 {
			return fmt.Sprint("item-", i)
		}
		return float64(i)
	})
	options := map[string]string{concurrent.OptionBatchSize: fmt.Sprint(load.BatchSize)}
	methods := []string{
		concurrent.ParallelProcess,
		concurrent.BatchProcess,
		concurrent.MapReduce,
		concurrent.PipelineProcess,
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		return "", err
	}
	defer pprof.StopCPUProfile()

	ctx := context.Background()
	start := time.Now()
	for range max(load.Rounds, 1) {
		for _, method := range methods {
			if _, err := proc.Process(ctx, method, data, options); err != nil {
				return "", fmt.Errorf("%s: %w", method, err)
			}
		}
	}
	stats := proc.LimiterStats()
	fmt.Printf("(par: %s, permits: %d, peak: %d, avg wait: %s)\n",
		time.Since(start), stats.TotalAcquired, stats.Peak, stats.AverageWait())

	return f.Name(), nil
}
