// Command shrink-go losslessly recompresses files under a folder in place,
// keeping a file only when the result is smaller.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"shrink-go/internal/config"
	"shrink-go/internal/engine"
	"shrink-go/internal/failurelog"
	"shrink-go/internal/logging"
	"shrink-go/internal/pipeline"
	"shrink-go/internal/progress"
	"shrink-go/internal/protect"
	"shrink-go/internal/report"
	"shrink-go/internal/selector"
	"shrink-go/internal/staging"
	"shrink-go/internal/tracing"
	"shrink-go/internal/walker"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

// exitError carries a process exit code out of RunE without cobra printing it.
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

type options struct {
	configPath string
	workers    int
	logDir     string
	stagingDir string
	engines    []string
	exclude    []string
	browse     bool
	trace      bool
	verbose    bool
	pause      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)

	code := 0
	if err != nil {
		code = 1
		var exit exitError
		if errors.As(err, &exit) {
			code = int(exit)
		} else {
			fmt.Fprintf(os.Stderr, "shrink-go: %v\n", err)
		}
	}

	if pause, _ := cmd.Flags().GetBool("pause"); pause {
		waitForEnter()
	}
	return code
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "shrink-go [flags] [directory]",
		Short: "Losslessly recompress files in place",
		Long: `Scan a directory tree breadth first, skipping protected system folders,
and run every candidate file through a lossless transform. A file is replaced
only when the result is strictly smaller, and its timestamps are kept.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShrink(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Config file path")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Number of workers (0 = number of CPUs)")
	flags.StringVar(&opts.logDir, "log-dir", "", "Directory for the skipped-files log")
	flags.StringVar(&opts.stagingDir, "staging-dir", "", "Directory for per-worker staging files")
	flags.StringSliceVar(&opts.engines, "engine", nil, fmt.Sprintf("Engines to enable (available: %s)", strings.Join(engine.Names(), ", ")))
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Additional exclusion glob")
	flags.BoolVar(&opts.browse, "browse", false, "Pick the directory with a folder dialog")
	flags.BoolVar(&opts.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every file")
	flags.BoolVar(&opts.pause, "pause", false, "Wait for Enter before exiting")

	return cmd
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("log-dir") {
		cfg.LogDir = opts.logDir
	}
	if flags.Changed("staging-dir") {
		cfg.StagingDir = opts.stagingDir
	}
	if flags.Changed("engine") {
		cfg.Engines = opts.engines
	}
	cfg.Exclude = append(cfg.Exclude, opts.exclude...)

	if err := cfg.Validate(engine.Names()); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runShrink(cmd *cobra.Command, opts *options, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, opts.verbose)

	if opts.trace {
		shutdown, err := tracing.Init(os.Stderr, version)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("failed to shut down tracer provider", "err", err)
			}
		}()
	}

	root, err := selector.New().Select(args, opts.browse)
	if err != nil {
		return err
	}
	if root == "" {
		logger.Info("no folder selected, nothing to do")
		return nil
	}

	set, err := engine.New(cfg.Engines...)
	if err != nil {
		return err
	}
	globs, err := cfg.ExcludeGlobs()
	if err != nil {
		return err
	}
	roots := protect.Default(cfg.Protected...)

	logger.Info("scanning", "root", root, "engines", set.Names(), "protected", roots.Len())
	scan := walker.Walk(ctx, root, walker.NewFilter(set, roots, globs))
	for _, err := range scan.Errors {
		logger.Debug("scan", "err", err)
	}
	total := scan.Queue.Len()
	if total == 0 {
		logger.Info("no candidate files found", "root", scan.Root, "dirs", scan.Dirs)
		if ctx.Err() != nil {
			return exitError(1)
		}
		return nil
	}
	logger.Info("found candidate files", "files", total, "dirs", scan.Dirs)

	area, err := staging.NewArea(cfg.StagingDir, cfg.Verify)
	if err != nil {
		return err
	}
	defer func() {
		if err := area.Close(); err != nil {
			logger.Warn("failed to remove staging directory", "dir", area.Dir(), "err", err)
		}
	}()

	failures := failurelog.New(cfg.LogDir, nil)
	bar := progress.New(int64(total), os.Stdout)

	result, runErr := pipeline.Run(ctx, scan.Queue, pipeline.Options{
		Workers:  cfg.Workers,
		Engine:   set,
		Staging:  area,
		Failures: failures,
		Logger:   logger,
		Progress: bar,
	})
	bar.Finish()
	if result == nil {
		return runErr
	}

	fmt.Fprint(os.Stdout, report.Format(result))
	if n := failures.Count(); n > 0 {
		logger.Info("some files were skipped", "count", n, "log", failures.Path())
	}

	if !result.Success {
		return exitError(1)
	}
	return nil
}

func waitForEnter() {
	fmt.Fprint(os.Stdout, "Press Enter to close")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
