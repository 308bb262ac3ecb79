package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/abdul-hamid-achik/httprepro/packages/core/config"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalOptions holds the persistent flags and what PersistentPreRunE builds
// from them
type globalOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFile    string
	noColor    bool

	cfg     *config.Config
	logger  *slog.Logger
	logSink io.Closer
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "httprepro",
		Short: "Reproduce intermittent HTTP client failures.",
		Long: `httprepro issues the same HTTP request once, many times in a row or many
times at once, and reports whether every response came back 200 with a body
that could be read. Two ways of handing the URL to the transport can be
compared side by side.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return g.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file (default: .httprepro.json or .httprepro.yaml in the working directory)")
	pf.StringVar(&g.envFile, "env-file", "", "Load HTTPREPRO_* variables from this dotenv file (default: ./.env if present)")
	pf.StringVar(&g.logLevel, "log-level", "", "Trace log level: debug, info, warn, error")
	pf.StringVar(&g.logFile, "log-file", "", "Also write the trace log to this rotating file")
	pf.BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newGetCmd(g))
	root.AddCommand(newBatchCmd(g))
	root.AddCommand(newCompareCmd(g))
	root.AddCommand(newVariantsCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the CLI and exits with a code describing the failure
func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// setup layers defaults, config file, environment and flags, then builds the
// trace logger
func (g *globalOptions) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(g.envFile); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	fileCfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	envCfg, err := config.FromEnv()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	flagCfg := &config.Config{
		LogLevel: g.logLevel,
		LogFile:  g.logFile,
	}
	if cmd.Flags().Changed("no-color") {
		flagCfg.NoColor = config.BoolPtr(g.noColor)
	}

	g.cfg = fileCfg.Merge(envCfg).Merge(flagCfg)
	if err := g.cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	return g.setupLogger(cmd.ErrOrStderr())
}

func (g *globalOptions) setupLogger(stderr io.Writer) error {
	var w io.Writer = stderr
	if g.cfg.LogFile != "" {
		if dir := filepath.Dir(g.cfg.LogFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return withExitCode(ExitConfigError, fmt.Errorf("creating log directory: %w", err))
			}
		}
		sink := &lumberjack.Logger{
			Filename:   g.cfg.LogFile,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
		g.logSink = sink
		w = io.MultiWriter(stderr, sink)
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: g.cfg.SlogLevel()})
	g.logger = slog.New(h)
	slog.SetDefault(g.logger)
	return nil
}

func (g *globalOptions) close() error {
	if g.logSink == nil {
		return nil
	}
	err := g.logSink.Close()
	g.logSink = nil
	return err
}
