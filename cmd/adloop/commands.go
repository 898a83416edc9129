package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"adloop/internal/config"
	"adloop/internal/media"
	"adloop/internal/service"
	"adloop/internal/system"
	"adloop/internal/testcards"
)

// mediaCmd groups the ad content tooling: add, list, clean.
func mediaCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage ad media files",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the settings file")

	add := &cobra.Command{
		Use:   "add <file>",
		Short: "Copy a media file into the ads directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := toolLogger()
			defer logger.Sync()

			if !media.IsSupported(args[0]) {
				return fmt.Errorf("unsupported media type: %s", filepath.Base(args[0]))
			}

			settings := config.Load(configPath, logger)
			dst, err := system.CopyFile(args[0], settings.AdsDirectory)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s (%s)\n", dst, media.Detect(dst))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the ads directory contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := toolLogger()
			defer logger.Sync()

			settings := config.Load(configPath, logger)
			entries, err := os.ReadDir(settings.AdsDirectory)
			if err != nil {
				return fmt.Errorf("read ads directory: %w", err)
			}

			n := 0
			for _, ent := range entries {
				if ent.IsDir() {
					continue
				}
				info, err := ent.Info()
				if err != nil {
					continue
				}
				n++
				fmt.Printf("%2d. %-40s %8.1f MB  %s\n",
					n, ent.Name(),
					float64(info.Size())/1024/1024,
					media.Detect(ent.Name()))
			}
			if n == 0 {
				fmt.Printf("No media files in %s\n", settings.AdsDirectory)
			}
			return nil
		},
	}

	var olderThan time.Duration
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Remove ads older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := toolLogger()
			defer logger.Sync()

			settings := config.Load(configPath, logger)
			removed, err := system.CleanOldFiles(settings.AdsDirectory, olderThan, logger)
			if err != nil {
				return fmt.Errorf("clean ads directory: %w", err)
			}
			fmt.Printf("Removed %d file(s) older than %s\n", removed, olderThan)
			return nil
		},
	}
	clean.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff for removal")

	cmd.AddCommand(add, list, clean)
	return cmd
}

// testcardsCmd generates sample content so a fresh install shows
// something immediately.
func testcardsCmd() *cobra.Command {
	var (
		configPath string
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "testcards",
		Short: "Generate sample ad images",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := toolLogger()
			defer logger.Sync()

			target := dir
			if target == "" {
				settings := config.Load(configPath, logger)
				target = settings.AdsDirectory
			}

			paths, err := testcards.Generate(target, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Generated %d test cards in %s\n", len(paths), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the settings file")
	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (default: ads directory from settings)")
	return cmd
}

// serviceCmd manages the systemd unit for unattended operation.
func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the adloop systemd service",
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Install the systemd unit (requires root)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := toolLogger()
			defer logger.Sync()

			if err := service.Install(logger); err != nil {
				return err
			}
			fmt.Printf("Installed %s\nEnable with: adloop service enable\n", service.UnitPath)
			return nil
		},
	}

	enable := &cobra.Command{
		Use:   "enable",
		Short: "Enable and start the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.Enable(); err != nil {
				return err
			}
			fmt.Println("Service enabled and started")
			return nil
		},
	}

	disable := &cobra.Command{
		Use:   "disable",
		Short: "Stop and disable the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.Disable(); err != nil {
				return err
			}
			fmt.Println("Service stopped and disabled")
			return nil
		},
	}

	var configPath string
	status := &cobra.Command{
		Use:   "status",
		Short: "Show service and content status",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Service   : %s\n", service.State())

			// Status must stay read-only, so the settings file is only
			// parsed when it already exists.
			settings := config.Default()
			cfgState := "missing (defaults in effect)"
			if _, err := os.Stat(configPath); err == nil {
				settings = config.Load(configPath, zap.NewNop())
				cfgState = configPath
			}
			fmt.Printf("Config    : %s\n", cfgState)

			count := 0
			if entries, err := os.ReadDir(settings.AdsDirectory); err == nil {
				for _, ent := range entries {
					if !ent.IsDir() && media.IsSupported(ent.Name()) {
						count++
					}
				}
			}
			fmt.Printf("Ads       : %d file(s) in %s\n", count, settings.AdsDirectory)

			orientation := settings.ForceOrientation
			if orientation == "" {
				orientation = "autodetect"
			}
			fmt.Printf("Display   : %s, %ds per ad\n", orientation, settings.DisplayDuration)
			return nil
		},
	}
	status.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the settings file")

	cmd.AddCommand(install, enable, disable, status)
	return cmd
}
