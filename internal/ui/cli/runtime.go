package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"jpslite/internal/core/config"
	"jpslite/internal/core/convert"
	"jpslite/internal/shared/observability"
	"jpslite/internal/shared/util"
	"jpslite/internal/ui/progress"
	"jpslite/internal/watcher"
)

const defaultConfigPath = "./jpslite.toml"

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("jpslite v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(opts.progress, opts.verbose)
	defer cleanupLogs()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	if len(opts.args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: jpslite [flags] <file pattern>")
		return 2
	}
	pattern := opts.args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := firstNonEmpty(opts.otlpEndpoint, cfg.Observability.OTLPEndpoint); endpoint != "" {
		shutdown, err := observability.InitTracing(ctx, endpoint, versionString)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			return 1
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	if addr := firstNonEmpty(opts.metricsAddr, cfg.Observability.MetricsAddr); addr != "" {
		obs := NewObservabilityServer(addr)
		if err := obs.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() { _ = obs.Stop(context.Background()) }()
	}

	converter, err := convert.New(convert.Options{
		Pattern:      pattern,
		OutputFile:   opts.outputFile,
		OutputDir:    firstNonEmpty(opts.outputDir, cfg.OutputDir),
		GeometryWKT:  opts.geometry,
		GeometryFile: opts.geometryFile,
		FrameRate:    firstPositive(opts.frameRate, cfg.FrameRate),
		ExcludeFiles: cfg.Exclude.Files,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	if opts.progress && !opts.watch {
		if _, err := progress.Run(ctx, converter); err != nil {
			return 1
		}
		return 0
	}

	results, err := converter.Run(ctx, nil)
	if err != nil {
		slog.Error("batch conversion finished with failures", "error", err)
		if !opts.watch {
			return 1
		}
	}
	slog.Info("finished converting files", "converted", len(results))

	if !opts.watch {
		return 0
	}

	if err := runWatch(ctx, converter, cfg, pattern); err != nil {
		slog.Error("watch mode failed", "error", err)
		return 1
	}
	return 0
}

// runWatch re-converts matched trajectory files as they change, until the
// context is cancelled.
func runWatch(ctx context.Context, converter *convert.Converter, cfg *config.Config, pattern string) error {
	files, err := converter.Files()
	if err != nil {
		return err
	}

	dirs := make(map[string]bool)
	dirs[filepath.Dir(pattern)] = true
	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}
	watchDirs := make([]string, 0, len(dirs))
	for d := range dirs {
		watchDirs = append(watchDirs, d)
	}

	limiter := util.NewLimiter(cfg.Watch.RatePerSecond, cfg.Watch.Burst)

	w, err := watcher.NewWatcher(cfg.Watch.Debounce,
		[]string{filepath.Base(pattern)}, cfg.Exclude.Files,
		func(paths []string) {
			for _, path := range paths {
				if !limiter.Allow(1) {
					observability.WatcherReconversionsDropped.Inc()
					slog.Warn("reconversion rate limited, skipping", "path", path)
					continue
				}
				if _, err := converter.ConvertFile(ctx, path); err != nil {
					slog.Error("reconversion failed", "path", path, "error", err)
				}
			}
		})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(watchDirs); err != nil {
		return err
	}

	slog.Info("watching for trajectory changes", "pattern", pattern, "dirs", len(watchDirs))
	<-ctx.Done()
	return nil
}

func configureLogging(progressMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	cleanup := func() {}
	if progressMode {
		// In progress mode, keep log lines out of the live bar.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err == nil {
			if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
				output = f
				cleanup = func() { _ = f.Close() }
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return cleanup
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "jpslite", "jpslite.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "jpslite", "jpslite.log")
	}

	return "jpslite.log"
}

// loadConfig loads the TOML config: an explicit path must exist, the default
// path is optional.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.Default(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
