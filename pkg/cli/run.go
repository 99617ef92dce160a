package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxyoga/batchcaption/internal/backends"
	"github.com/fluxyoga/batchcaption/internal/engine"
	"github.com/fluxyoga/batchcaption/internal/progress"
	"github.com/fluxyoga/batchcaption/internal/store"
	"github.com/fluxyoga/batchcaption/pkg/config"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/notifier"
	"github.com/fluxyoga/batchcaption/pkg/process"
)

// runFlags carries the flag values shared by the run and watch commands.
// The underscore spellings match the worker script arguments so existing
// invocations keep working unchanged.
type runFlags struct {
	sourceFolder string
	model        string
	style        string
	template     string
	overwrite    bool
	maxTokens    int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sourceFolder, "source_folder", "", "folder containing the images to caption")
	cmd.Flags().StringVar(&f.model, "model", "", "captioning backend (blip, blip2, gpt-4-vision, vit-gpt2, florence-2)")
	cmd.Flags().StringVar(&f.style, "style", "", "caption style (detailed, simple, tags, artistic)")
	cmd.Flags().StringVar(&f.template, "template", "", "caption template; {caption} is replaced by the generated text")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "regenerate captions even when one already exists")
	cmd.Flags().IntVar(&f.maxTokens, "max_tokens", 0, "maximum caption length in tokens")
}

// apply overrides config values with flags the user explicitly set.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("source_folder") {
		cfg.SourceFolder = f.sourceFolder
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = f.model
	}
	if cmd.Flags().Changed("style") {
		cfg.Style = f.style
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = f.template
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.Overwrite = f.overwrite
	}
	if cmd.Flags().Changed("max_tokens") {
		cfg.MaxTokens = f.maxTokens
	}
	return cfg.Validate()
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Caption every image in a folder once",
		Long: `Run one batch captioning pass over the source folder. Images that already
have a caption sidecar are skipped unless --overwrite is given. Progress is
emitted as JSON lines on stdout.`,
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
			return runBatch(cfg)
		},
	}

	flags.register(cmd)

	return cmd
}

func runBatch(cfg *config.Config) error {
	log := logger.CreateLogger(cfg.Logging.Level)

	mgr := process.NewManager(log)
	ctx := mgr.WatchSignals(context.Background())

	eng, notify := buildEngine(cfg, log)

	summary, err := eng.Run(ctx)
	if err != nil {
		notify.NotifyRunFailed(err)
		return err
	}

	notify.NotifyRunComplete(len(summary.Processed), len(summary.Skipped), len(summary.Failed), summary.Elapsed)

	if len(summary.Failed) > 0 {
		printError(fmt.Sprintf("%d of %d images failed", len(summary.Failed), summary.TotalFiles))
	} else {
		printSuccess(fmt.Sprintf("Captioned %d images (%d skipped)", len(summary.Processed), len(summary.Skipped)))
	}
	return nil
}

// buildEngine wires the captioning pipeline from configuration.
func buildEngine(cfg *config.Config, log logger.Logger) (*engine.Engine, *notifier.RunNotifier) {
	inv := backends.NewInvoker(cfg, log)
	st := store.New()
	rep := progress.NewReporter(os.Stdout)
	eng := engine.New(cfg, inv, st, rep, log)
	notify := notifier.New(cfg.Notifications.Enabled, log)
	return eng, notify
}
