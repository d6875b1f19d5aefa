//go:build unix

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/srodi/topres/pkg/collector/process"
	"github.com/srodi/topres/pkg/config"
	"github.com/srodi/topres/pkg/logging"
	"github.com/srodi/topres/pkg/report"
	"github.com/srodi/topres/pkg/retention"
	"github.com/srodi/topres/pkg/sampler"
	"github.com/srodi/topres/pkg/ui"
)

// newReader allows tests to substitute the process table.
var newReader = func(opts process.Options) (process.Reader, error) {
	return process.NewCollector(opts)
}

type cliOptions struct {
	cfg    *config.Config
	devLog bool
}

// parseArgs loads the optional config file and lets explicitly set flags override it.
func parseArgs(args []string) (cliOptions, error) {
	def := config.Default()
	fs := flag.NewFlagSet("topres", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a .yaml or .toml config file")
	rounds := fs.Int("rounds", def.Rounds, "number of sampling rounds")
	interval := fs.Duration("interval", def.Interval.Duration, "delay between rounds (e.g. 10s, 1m)")
	topN := fs.Int("topn", def.TopN, "processes kept per resource category each round")
	outputDir := fs.String("output-dir", def.OutputDir, "directory reports are written to and swept from")
	format := fs.String("format", def.Format, "report format: json or yaml")
	retentionWindow := fs.Duration("retention", def.Retention.Duration, "delete reports older than this")
	prefix := fs.String("prefix", def.ReportPrefix, "report file name prefix")
	procPath := fs.String("proc", def.ProcPath, "proc filesystem mount point (linux)")
	logLevel := fs.String("log-level", def.LogLevel, "debug, info, warn or error")
	banner := fs.Bool("banner", def.Banner, "print the banner when stdout is a terminal")
	devLog := fs.Bool("dev-log", false, "human-readable log output")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rounds":
			cfg.Rounds = *rounds
		case "interval":
			cfg.Interval = config.Duration{Duration: *interval}
		case "topn":
			cfg.TopN = *topN
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "format":
			cfg.Format = *format
		case "retention":
			cfg.Retention = config.Duration{Duration: *retentionWindow}
		case "prefix":
			cfg.ReportPrefix = *prefix
		case "proc":
			cfg.ProcPath = *procPath
		case "log-level":
			cfg.LogLevel = *logLevel
		case "banner":
			cfg.Banner = *banner
		}
	})
	if err := cfg.Validate(); err != nil {
		return cliOptions{}, err
	}
	return cliOptions{cfg: cfg, devLog: *devLog}, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "topres: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(opts.cfg.LogLevel, opts.devLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "topres: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	if err := run(ctx, opts.cfg, clock.New(), logger, os.Stdout); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

// run samples, writes the report, prints a summary to out, and sweeps expired reports.
// An interrupted run still produces a report if at least one round completed.
func run(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *zap.Logger, out io.Writer) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	reader, err := newReader(process.Options{ProcPath: cfg.ProcPath, Logger: logger.Named("collector")})
	if err != nil {
		return fmt.Errorf("initializing process reader: %w", err)
	}

	params := cfg.Params()
	if cfg.Banner && isTerminal(out) {
		fmt.Fprint(out, ui.Banner())
		fmt.Fprint(out, ui.RunHeader(params.Rounds, params.Interval, params.TopN))
	}

	loop := sampler.NewLoop(reader, clk, logger.Named("sampler"))
	res, runErr := loop.Run(ctx, params)
	if res.Completed == 0 {
		return runErr
	}
	if runErr != nil {
		logger.Warn("writing report for partial run", zap.Error(runErr))
	}

	// Reporting and cleanup still happen after an interrupt.
	finishCtx := context.WithoutCancel(ctx)
	host, err := report.DescribeHost(finishCtx)
	if err != nil {
		logger.Warn("host metadata incomplete", zap.Error(err))
	}
	doc := report.Build(res, host, clk.Now())

	emitter := report.Emitter{
		Dir:    cfg.OutputDir,
		Prefix: cfg.ReportPrefix,
		Format: format,
		Logger: logger.Named("report"),
	}
	path, outputErr := emitter.Emit(doc)
	if outputErr == nil {
		fmt.Fprintf(out, "Output written to %s\n\n", path)
		if err := report.WriteTable(out, doc); err != nil {
			logger.Warn("printing summary", zap.Error(err))
		}
	}

	sweeper := retention.Sweeper{
		Dir:       cfg.OutputDir,
		Prefix:    cfg.ReportPrefix + "_",
		Suffixes:  []string{"." + report.JSON.Ext(), "." + report.YAML.Ext()},
		Retention: cfg.Retention.Duration,
		Logger:    logger.Named("retention"),
	}
	if _, err := sweeper.Sweep(finishCtx, clk.Now()); err != nil {
		logger.Warn("retention sweep incomplete", zap.Error(err))
	}

	if outputErr != nil {
		return fmt.Errorf("report not written: %w", outputErr)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
