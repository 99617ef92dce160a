package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxyoga/batchcaption/internal/backends"
	"github.com/fluxyoga/batchcaption/pkg/config"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/process"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

func newCheckCmd() *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Smoke-test every backend against a single image",
		Long: `Invoke each captioning backend once against the given image and report
whether it produced a caption. Useful for verifying that the worker scripts
and their model dependencies are installed correctly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath == "" {
				return fmt.Errorf("no image given; use --image")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := logger.CreateLogger(cfg.Logging.Level)
			mgr := process.NewManager(log)
			ctx := mgr.WatchSignals(context.Background())

			return runCheck(ctx, cfg, log, imagePath)
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "image file to test against")

	return cmd
}

func runCheck(ctx context.Context, cfg *config.Config, log logger.Logger, imagePath string) error {
	inv := backends.NewInvoker(cfg, log)

	style, err := types.ParseStyle(cfg.Style)
	if err != nil {
		return err
	}

	printInfo(fmt.Sprintf("Checking %d backends against %s", len(backends.Supported()), imagePath))

	results, err := inv.CheckAll(ctx, imagePath, style, cfg.MaxTokens)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			printError(fmt.Sprintf("%-14s error: %v", r.Backend, r.Err))
		case r.Result.Failed():
			failed++
			printError(fmt.Sprintf("%-14s failed after %s: %s", r.Backend, r.Elapsed, r.Result.FailReason))
		default:
			printSuccess(fmt.Sprintf("%-14s ok in %s", r.Backend, r.Elapsed))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d backends failed the check", failed, len(results))
	}
	printSuccess("All backends passed")
	return nil
}
