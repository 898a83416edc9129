// adloop: digital signage ads player for Raspberry Pi displays.
// Rotates a directory of image and video ads on a single screen in
// landscape or portrait orientation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"adloop/internal/config"
	"adloop/internal/display"
	"adloop/internal/engine"
	"adloop/internal/input"
	"adloop/internal/playlist"
	"adloop/internal/render"
	"adloop/internal/surface"
	"adloop/internal/system"
	"adloop/internal/video"
)

// Build-time variables set by the Makefile via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adloop",
		Short: "adloop — digital signage ads rotation player",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(mediaCmd())
	rootCmd.AddCommand(testcardsCmd())
	rootCmd.AddCommand(serviceCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd is the primary command: it wires the display surface, the
// playlist catalog, the video delegate and the keyboard reader into
// the playback engine and blocks until quit.
func runCmd() *cobra.Command {
	var (
		configPath string
		logPath    string
		fbDevice   string
		framePath  string
		watch      bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the ads rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logPath, verbose)
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			defer logger.Sync()

			// Anything escaping the loop is logged before the process
			// dies; a signage box must never crash silently.
			defer func() {
				if r := recover(); r != nil {
					logger.Error("fatal error",
						zap.Any("panic", r), zap.Stack("stack"))
					os.Exit(1)
				}
			}()

			logger.Info("adloop starting",
				zap.String("version", version), zap.String("built", buildTime))

			settings := config.Load(configPath, logger)
			if err := system.EnsureDir(settings.AdsDirectory); err != nil {
				logger.Warn("could not create ads directory",
					zap.String("dir", settings.AdsDirectory), zap.Error(err))
			}

			geom := display.Resolve(settings.ForceOrientation, logger)

			surf, err := surface.New(surface.Options{
				Device:    fbDevice,
				FramePath: framePath,
				Width:     geom.Width,
				Height:    geom.Height,
				Logger:    logger,
			})
			if err != nil {
				logger.Error("display setup failed", zap.Error(err))
				return fmt.Errorf("display setup: %w", err)
			}
			defer surf.Release()

			// The surface has the final say on extents: the hardware
			// may have refused the requested mode.
			width, height := surf.Bounds()
			comp := render.NewCompositor(width, height, settings.BackgroundColor)

			keys := input.NewReader(logger)
			if err := keys.Start(); err != nil {
				logger.Warn("keyboard controls unavailable", zap.Error(err))
			}
			defer keys.Restore()

			catalog := playlist.NewCatalog(
				settings.AdsDirectory, settings.SupportedFormats, logger)

			delegate := video.NewDelegate(video.Options{
				HardwareAcceleration: settings.HardwareAcceleration,
				Compositor:           comp,
				Surface:              surf,
				Keys:                 keys.Events(),
			}, logger)

			var changes <-chan struct{}
			if watch {
				w, err := playlist.NewWatcher(settings.AdsDirectory, logger)
				if err != nil {
					logger.Warn("directory watch unavailable", zap.Error(err))
				} else {
					go func() {
						if err := w.Start(); err != nil {
							logger.Warn("watcher stopped", zap.Error(err))
						}
					}()
					defer w.Stop()
					changes = w.Changes()
				}
			}

			eng := engine.New(engine.Options{
				Settings:   settings,
				Catalog:    catalog,
				Compositor: comp,
				Surface:    surf,
				Player:     delegate,
				Events:     keys.Events(),
				Changes:    changes,
			}, logger)

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// A signal can land while an external player owns the slot.
			// Stopping the delegate unblocks the engine so the loop can
			// notice the cancelled context and exit.
			go func() {
				<-ctx.Done()
				delegate.Stop()
			}()

			if err := eng.Run(ctx); err != nil {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the settings file")
	cmd.Flags().StringVar(&logPath, "log", "adloop.log", "Log file (in addition to stdout; empty disables)")
	cmd.Flags().StringVar(&fbDevice, "fb", "", "Framebuffer device (default /dev/fb0)")
	cmd.Flags().StringVar(&framePath, "frame-file", "", "Write frames to this PNG instead of the framebuffer")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the playlist when the ads directory changes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("adloop %s\nBuilt: %s\n", version, buildTime)
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a system health check",
		Run: func(cmd *cobra.Command, args []string) {
			logger := toolLogger()
			defer logger.Sync()

			status := system.RunHealthCheck(logger)
			fmt.Printf("CPU Temperature : %.1f°C\n", status.CPUTempC)
			fmt.Printf("Disk Usage      : %.1f%%\n", status.DiskUsedPct)
			fmt.Printf("Disk Free       : %d MB\n", status.DiskFreeBytes/1024/1024)
			fmt.Printf("Throttled       : %v\n", status.Throttled)
		},
	}
}

// newLogger builds the run logger: console encoding teed to stdout and
// a log file, matching the on-device debugging workflow.
func newLogger(logPath string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if logPath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logPath)
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// toolLogger is the quieter console logger for one-shot commands.
func toolLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stdout"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
