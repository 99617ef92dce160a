package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxyoga/batchcaption/pkg/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a batchcaption.yaml with the built-in defaults to the current
directory so it can be edited instead of passing flags on every run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")

	return cmd
}

func runInit(force bool) error {
	path := config.DefaultConfigName

	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("configuration already exists. Use --force to overwrite")
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("Wrote %s", path))
	return nil
}
