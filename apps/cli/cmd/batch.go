package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/httprepro/packages/batch"
	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/abdul-hamid-achik/httprepro/packages/export/metrics"
	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/spf13/cobra"
)

type batchFlags struct {
	request  requestFlags
	variant  string
	count    int
	mode     string
	strategy string
	rate     float64
	notifyOn string
	json     bool
	verbose  bool

	metricsOut    string
	metricsFormat string
}

func newBatchCmd(g *globalOptions) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch [url]",
		Short: "Capture the same request many times",
		Long: `Capture the same request many times and report the first failure.

Sequential mode waits for each request and stops at the first failure.
Concurrent mode launches every request at once and waits for all of them.
A variant preset fixes strategy, mode and option forwarding in one go.

Examples:
  # Ten sequential requests, URL passed straight to the transport
  httprepro batch https://api.example.com/health --variant repro

  # Fifty concurrent POSTs, paced at 20 launches per second
  httprepro batch https://api.example.com/items -n 50 --mode concurrent --rate 20 -d '{"a":1}'

  # Only the URL reaches each request; method, headers and body are dropped
  httprepro batch https://api.example.com --variant url-only -H 'X-Trace: 1'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, f, args)
		},
	}

	f.request.bind(cmd)
	cmd.Flags().StringVar(&f.variant, "variant", "", "Preset: repro, norepro, repro-concurrent, norepro-concurrent, url-only")
	cmd.Flags().IntVarP(&f.count, "count", "n", 10, "Number of requests")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "sequential", "sequential or concurrent (ignored with --variant)")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "direct-url", "direct-url or parsed-options (ignored with --variant)")
	cmd.Flags().Float64VarP(&f.rate, "rate", "r", 0, "Concurrent launches per second, 0 for no pacing")
	cmd.Flags().StringVar(&f.notifyOn, "notify-on", "", "Forward to webhooks on: always, failure, success")
	cmd.Flags().BoolVar(&f.json, "json", false, "Output the outcome as JSON")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print every request")
	cmd.Flags().StringVar(&f.metricsOut, "metrics-out", "", "Write per-call metrics to this file")
	cmd.Flags().StringVar(&f.metricsFormat, "metrics-format", "", "json or prometheus (default: from --metrics-out extension)")

	return cmd
}

func runBatch(cmd *cobra.Command, g *globalOptions, f *batchFlags, args []string) error {
	flags := cmd.Flags()
	cfg := *g.cfg
	if flags.Changed("count") {
		cfg.Count = f.count
	}
	if flags.Changed("mode") {
		cfg.Mode = f.mode
	}
	if flags.Changed("variant") {
		cfg.Variant = f.variant
	}
	if flags.Changed("rate") {
		cfg.Rate = f.rate
	}
	if flags.Changed("notify-on") {
		cfg.NotifyOn = f.notifyOn
	}
	if flags.Changed("verbose") {
		cfg.Verbose = &f.verbose
	}

	url, err := resolveURL(&cfg, args)
	if err != nil {
		return err
	}
	req, err := f.request.build(&cfg, url)
	if err != nil {
		return err
	}

	var (
		bcfg   *batch.Config
		client *http.Client
		name   string
	)
	if cfg.Variant != "" {
		v, err := batch.LookupVariant(cfg.Variant)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		bcfg = v.Config(cfg.Count)
		client = v.Client(clientOptions(&cfg)...)
		name = v.Name
	} else {
		mode, err := batch.ParseMode(cfg.Mode)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		strategy, err := http.ParseStrategy(f.strategy)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		bcfg = &batch.Config{Count: cfg.Count, Mode: mode, ForwardOptions: true}
		client = http.NewClient(append(clientOptions(&cfg), http.WithStrategy(strategy))...)
	}
	bcfg.Rate = cfg.Rate

	notifier, err := buildNotifier(&cfg, newConsole(cmd, &cfg))
	if err != nil {
		return err
	}

	reporter := batch.NewReporter(
		batch.WithWriter(cmd.OutOrStdout()),
		batch.WithNoColor(cfg.GetNoColor()),
		batch.WithVerbose(cfg.GetVerbose()),
		batch.WithQuiet(f.json),
	)

	opts := []batch.RunnerOption{
		batch.WithCapturer(capture.New(client)),
		batch.WithNotifier(notifier),
		batch.WithReporter(reporter),
		batch.WithLogger(g.logger),
		batch.WithVariantName(name),
	}
	if f.metricsOut != "" {
		exporter, err := metrics.NewExporter(f.metricsFormat, f.metricsOut)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		collector := metrics.NewCollector(exporter)
		defer collector.Close()
		opts = append(opts, batch.WithCollector(collector))
	}

	runner := batch.NewRunner(bcfg, opts...)

	outcome, err := runner.Run(cmd.Context(), req)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if f.json {
		if err := reporter.JSONSummary(outcome); err != nil {
			return err
		}
	}

	if !outcome.OK() {
		if outcome.FailedCall == 0 {
			return withExitCode(failureExitCode(outcome.Failure),
				fmt.Errorf("batch stopped after %d of %d calls: %w", outcome.Attempted, outcome.Count, outcome.Failure))
		}
		return withExitCode(failureExitCode(outcome.Failure),
			fmt.Errorf("call %d of %d failed: %w", outcome.FailedCall, outcome.Count, outcome.Failure))
	}
	return nil
}
