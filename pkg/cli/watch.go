package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxyoga/batchcaption/internal/watcher"
	"github.com/fluxyoga/batchcaption/pkg/config"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/process"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

func newWatchCmd() *cobra.Command {
	var flags runFlags
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a folder and caption new images as they arrive",
		Long: `Run one batch pass over the source folder, then keep watching it and
caption every image that is added afterwards. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			if cfg.SourceFolder == "" {
				return fmt.Errorf("no source folder given; use --source_folder")
			}
			return runWatch(cfg, skipInitial)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&skipInitial, "skip_initial", false, "do not caption existing images before watching")

	return cmd
}

func runWatch(cfg *config.Config, skipInitial bool) error {
	log := logger.CreateLogger(cfg.Logging.Level)

	mgr := process.NewManager(log)
	ctx := mgr.WatchSignals(context.Background())

	eng, notify := buildEngine(cfg, log)

	if !skipInitial {
		summary, err := eng.Run(ctx)
		if err != nil {
			notify.NotifyRunFailed(err)
			return err
		}
		notify.NotifyRunComplete(len(summary.Processed), len(summary.Skipped), len(summary.Failed), summary.Elapsed)
	}

	if ctx.Err() != nil {
		return nil
	}

	handler := func(ctx context.Context, img types.ImageFile) {
		eng.ProcessOne(ctx, img)
	}

	w, err := watcher.New(cfg.SourceFolder, cfg.CaptionExt, cfg.SettlingDelay(), handler, log)
	if err != nil {
		return err
	}
	mgr.RegisterShutdownHandler(func() {
		w.Stop()
	})

	printInfo(fmt.Sprintf("Watching %s for new images (Ctrl-C to stop)", cfg.SourceFolder))
	return w.Start(ctx)
}
