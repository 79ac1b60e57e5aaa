// Command concurrentd serves concurrency requests. With a NATS URL it answers
// request-reply traffic on a subject; otherwise it reads one JSON request per
// line and writes one JSON response per line, in input order.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fogfactory/concurrent"
	"github.com/fogfactory/concurrent/internal/config"
	"github.com/fogfactory/concurrent/internal/natsrpc"
	"github.com/fogfactory/concurrent/internal/tracing"
	"github.com/fogfactory/concurrent/service"
)

const maxLineSize = 16 << 20

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "concurrentd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load("concurrentd", args)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.OTLPEndpoint != "" {
		tc := tracing.DefaultConfig("concurrentd")
		tc.OTLPEndpoint = cfg.OTLPEndpoint
		tc.Environment = cfg.Environment
		shutdown, err := tracing.Setup(ctx, tc, logger)
		if err != nil {
			return err
		}
		defer func() { _ = tracing.Shutdown(shutdown, logger) }()
	}

	svcOpts := []service.Option{service.WithLogger(logger)}
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		svcOpts = append(svcOpts, service.WithErrorReporter(func(err error) {
			sentry.CaptureException(err)
		}))
	}

	proc, err := concurrent.New(
		concurrent.WithMaxConcurrent(cfg.MaxConcurrent),
		concurrent.WithWorkers(cfg.Workers),
	)
	if err != nil {
		return fmt.Errorf("build processor: %w", err)
	}
	defer proc.Close()

	svc := service.New(proc, svcOpts...)
	logger.Info("processor ready",
		zap.Int("max_concurrent_tasks", proc.MaxConcurrentTasks()),
		zap.Int("workers", cfg.Workers))

	if cfg.NATSURL != "" {
		return serveNATS(ctx, cfg, svc, logger)
	}

	in := stdin
	if cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return serveLines(ctx, svc, in, stdout, cfg.MaxConcurrent)
}

func serveNATS(ctx context.Context, cfg config.Config, svc *service.Service, logger *zap.Logger) error {
	conn, err := natsrpc.Connect(ctx, natsrpc.DefaultConnectionConfig(cfg.NATSURL), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := natsrpc.Close(conn); err != nil {
			logger.Warn("failed to close NATS connection", zap.Error(err))
		}
	}()

	return natsrpc.NewServer(svc, cfg.NATSSubject, cfg.NATSQueue, logger).Serve(ctx, conn)
}

// serveLines handles every request line of in, at most limit at a time, and
// writes the responses to out in input order. Blank lines are skipped.
func serveLines(ctx context.Context, svc *service.Service, in io.Reader, out io.Writer, limit int) error {
	var lines [][]byte
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}

	srv := natsrpc.NewServer(svc, "", "", nil)
	responses := make([][]byte, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			responses[i] = srv.Reply(gctx, line)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	for _, resp := range responses {
		w.Write(resp)
		w.WriteByte('\n')
	}
	return w.Flush()
}
