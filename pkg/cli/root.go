// Package cli provides the command-line interface for batchcaption.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxyoga/batchcaption/pkg/config"
)

var (
	cfgFile   string
	verbosity string
	version   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "batchcaption",
	Short: "Batch caption generation for image datasets",
	Long: `batchcaption walks a folder of images and generates a caption sidecar
file for each one by dispatching to a captioning backend (BLIP, BLIP-2,
GPT-4 Vision, ViT-GPT2 or Florence-2).

Progress is reported as JSON lines on stdout so the tool can drive a UI;
all diagnostics go to stderr.`,

	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("batchcaption v%s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the CLI
func Execute(v string) error {
	version = v

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	return rootCmd.Execute()
}

// initializeRootCommand sets up the root command and its flags.
// This replaces the init() function to make initialization explicit and testable.
func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: batchcaption.yaml)")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "", "log level (debug, info, warn, error)")

	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	// Subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newBackendsCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("batchcaption")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BATCHCAPTION")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbosity == "debug" {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig builds the effective configuration from the config file,
// environment and the verbosity flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbosity != "" {
		cfg.Logging.Level = verbosity
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("batchcaption v%s\n", version)
		},
	}
}

// Helper functions

func printSuccess(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.GreenString("[batchcaption]"), message)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("[batchcaption]"), message)
}

func printInfo(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.CyanString("[batchcaption]"), message)
}
