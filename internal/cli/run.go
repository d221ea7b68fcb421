package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/NetPo4ki/primescope/batch"
	"github.com/NetPo4ki/primescope/config"
	"github.com/NetPo4ki/primescope/kernel"
	"github.com/NetPo4ki/primescope/observe/prom"
	"github.com/NetPo4ki/primescope/strategy"
)

type runFlags struct {
	configPath  string
	strategy    string
	n           int64
	batchSize   int64
	concurrency int
	trials      int
	verify      bool
	metricsAddr string
	printConfig bool
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or all strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			if f.printConfig {
				data, err := cfg.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("debug") && cfg.Log.Level != "" {
				a.log = a.newLogger(cfg.Log.Level)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.run(ctx, cmd, cfg)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fl.StringVar(&f.strategy, "strategy", config.AllStrategies, "strategy id, or \"all\"")
	fl.Int64Var(&f.n, "n", config.DefaultN, "inclusive upper bound of the range [1, N]")
	fl.Int64Var(&f.batchSize, "batch-size", config.DefaultBatchSize, "integers per batch")
	fl.IntVar(&f.concurrency, "concurrency", -1, "-1 unbounded, 0 hardware default, k > 0 explicit cap")
	fl.IntVar(&f.trials, "trials", 1, "runs per strategy")
	fl.BoolVar(&f.verify, "verify", false, "compare every total against a sequential count")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fl.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration as YAML and exit")
	return cmd
}

// resolveConfig layers explicitly set flags over the file (or defaults).
func resolveConfig(cmd *cobra.Command, f runFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if fl.Changed("n") {
		cfg.N = f.n
	}
	if fl.Changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if fl.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fl.Changed("trials") {
		cfg.Trials = f.trials
	}
	if fl.Changed("verify") {
		cfg.Verify = f.verify
	}
	if fl.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	lim, err := cfg.Limit()
	if err != nil {
		return err
	}
	strategies, err := cfg.Strategies()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := prom.New(reg)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		shutdown, err := a.serveMetrics(cfg.Metrics.Addr, reg)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	a.log.Info().
		Int64("n", cfg.N).
		Int64("batch_size", cfg.BatchSize).
		Str("limit", lim.String()).
		Int("strategies", len(strategies)).
		Int("trials", cfg.Trials).
		Msg("starting benchmark")

	var want int64 = -1
	if cfg.Verify {
		part, err := batch.New(cfg.N, cfg.BatchSize)
		if err != nil {
			return err
		}
		start := time.Now()
		if want, err = kernel.Sequential(ctx, part, nil); err != nil {
			return fmt.Errorf("sequential reference: %w", err)
		}
		a.log.Info().Int64("total", want).Dur("elapsed", time.Since(start)).Msg("sequential reference")
	}

	out := cmd.OutOrStdout()
	for _, s := range strategies {
		obs := metrics.For(string(s.ID()))
		run := strategy.Config{
			N: cfg.N, BatchSize: cfg.BatchSize, Limit: lim,
			Observer: obs, ScopeObserver: obs,
		}
		for trial := 1; trial <= cfg.Trials; trial++ {
			start := time.Now()
			total, err := s.Execute(ctx, run)
			elapsed := time.Since(start)
			if err != nil {
				a.log.Error().Err(err).Str("strategy", string(s.ID())).Int("trial", trial).Msg("run failed")
				return err
			}
			if want >= 0 && total != want {
				return fmt.Errorf("%s: %w: total %d, sequential %d", s.ID(), batch.ErrAggregation, total, want)
			}
			fmt.Fprintf(out, "%-18s trial=%d total=%d elapsed=%s\n", s.ID(), trial, total, elapsed.Round(time.Microsecond))
			a.log.Debug().Str("strategy", string(s.ID())).Int("trial", trial).Int64("total", total).Dur("elapsed", elapsed).Msg("trial finished")
		}
		snap := obs.GetSnapshot()
		a.log.Debug().
			Str("strategy", snap.Strategy).
			Int64("batches", snap.BatchesFinished).
			Int64("peak_in_flight", snap.PeakInFlight).
			Int64("tasks", snap.TasksStarted).
			Dur("join_wait", snap.JoinWaitSum).
			Msg("strategy metrics")
	}
	return nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("metrics server")
		}
	}()
	a.log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
