// Command bench runs a synthetic workload of slow, occasionally failing
// fetches against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"time"

	"github.com/IvanBrykalov/swrcache/cache"
	"github.com/IvanBrykalov/swrcache/config"
	pmet "github.com/IvanBrykalov/swrcache/metrics/prom"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "drive a synthetic stale-while-revalidate workload",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML or TOML file with cache settings"},
			&cli.DurationFlag{Name: "duration", Usage: "hard TTL (0 = default)"},
			&cli.DurationFlag{Name: "cold", Usage: "soft TTL (0 = 2/3 of the hard TTL)"},
			&cli.IntFlag{Name: "keys", Value: 10_000, Usage: "keyspace size"},
			&cli.IntFlag{Name: "workers", Value: 2 * runtime.GOMAXPROCS(0), Usage: "number of worker goroutines"},
			&cli.DurationFlag{Name: "run", Value: 10 * time.Second, Usage: "benchmark duration"},
			&cli.DurationFlag{Name: "fetch-latency", Value: 5 * time.Millisecond, Usage: "simulated fetch latency"},
			&cli.FloatFlag{Name: "fail-rate", Value: 0.01, Usage: "fraction of fetches that fail [0..1]"},
			&cli.DurationFlag{Name: "refresh-every", Usage: "run Refresh on a schedule (0 = disabled)"},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), Usage: "random seed"},
			&cli.StringFlag{Name: "http", Value: ":8080", Usage: "serve Prometheus metrics at addr; empty = disabled"},
			&cli.StringFlag{Name: "pprof", Usage: "serve pprof at addr (e.g. :6060); empty = disabled"},
			&cli.StringFlag{Name: "log-level", Usage: "trace | debug | info | warn | error"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	// ---- Settings: config file first, flags override ----
	var cfg config.Config
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	} else {
		cfg.LogLevel = hclog.Info
	}
	if cmd.IsSet("duration") {
		cfg.Duration = cmd.Duration("duration")
	}
	if cmd.IsSet("cold") {
		cfg.DurationUntilCold = cmd.Duration("cold")
	}
	if cmd.IsSet("log-level") {
		lvl := hclog.LevelFromString(cmd.String("log-level"))
		if lvl == hclog.NoLevel {
			return fmt.Errorf("unknown log level %q", cmd.String("log-level"))
		}
		cfg.LogLevel = lvl
	}
	if err := cache.CheckDurations(cfg.Duration, cfg.DurationUntilCold); err != nil {
		return err
	}
	logger := cfg.Logger("bench")

	// ---- pprof server (on DefaultServeMux) ----
	if addr := cmd.String("pprof"); addr != "" {
		srv := serve(logger.Named("pprof"), addr, http.DefaultServeMux)
		defer shutdown(srv)
	}

	// ---- Build cache ----
	opt := config.Options[string](cfg, logger.Named("cache"))
	if addr := cmd.String("http"); addr != "" {
		opt.Metrics = pmet.New(nil, "swr", "bench", nil)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := serve(logger.Named("metrics"), addr, mux)
		defer shutdown(srv)
	}
	c := cache.New[string, string](opt)

	// ---- Periodic reclamation; the cache itself only evicts lazily ----
	if every := cmd.Duration("refresh-every"); every > 0 {
		sched := cron.New()
		if _, err := sched.AddFunc("@every "+every.String(), c.Refresh); err != nil {
			return fmt.Errorf("refresh schedule: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	w := workload{
		keys:     cmd.Int("keys"),
		workers:  cmd.Int("workers"),
		latency:  cmd.Duration("fetch-latency"),
		failRate: cmd.Float("fail-rate"),
		seed:     cmd.Int64("seed"),
	}
	if err := w.validate(); err != nil {
		return err
	}

	logger.Info("starting", "workers", w.workers, "keys", w.keys, "run", cmd.Duration("run"),
		"duration", opt.Duration, "cold", opt.DurationUntilCold)

	runCtx, cancel := context.WithTimeout(ctx, cmd.Duration("run"))
	defer cancel()
	res, err := w.drive(runCtx, c)
	if err != nil {
		return err
	}
	res.print(os.Stdout, c.Stats())
	return nil
}

// serve starts an HTTP server in the background.
func serve(logger hclog.Logger, addr string, h http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}
	go func() {
		logger.Info("serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
