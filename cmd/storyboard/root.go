package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/storyboard/internal/cli"
	"github.com/aretw0/storyboard/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "Storyboard plays branching narrative scenarios",
	Long: `Storyboard compiles loosely structured scenario documents (JSON or YAML)
into a graph of acts and nodes, and plays them with resumable progress.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", "", "Directory containing scenario documents (env STORYBOARD_DIR)")
	rootCmd.PersistentFlags().String("url", "", "Base URL to fetch scenario documents from (env STORYBOARD_URL)")
	rootCmd.PersistentFlags().String("store", "", "Progress store: memory, file, redis, sqlite or postgres (env STORYBOARD_STORE)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the environment and applies explicit flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("url") {
		cfg.URL, _ = flags.GetString("url")
	}
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	return cfg, nil
}

// openApp builds the application for a command. Callers must Close it.
func openApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogJSON, debug)

	app, err := cli.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storyboard: %w", err)
	}
	return app, nil
}
