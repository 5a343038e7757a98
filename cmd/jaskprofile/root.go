package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/jaskprofile/internal/config"
	"github.com/jask/jaskprofile/internal/logging"
	"github.com/jask/jaskprofile/internal/tui"
)

var (
	configPath string
	startRoute string
)

var rootCmd = &cobra.Command{
	Use:   "jaskprofile",
	Short: "Manage your account profile from the terminal",
	Long: `jaskprofile opens a terminal UI for signing in, viewing and editing your
display name, and logging out.

The account backend is either the local sqlite store or a remote API
(see "jaskprofile serve"). Use "jaskprofile config init" to create a config.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $HOME/.config/jaskprofile/config.toml)")
	rootCmd.Flags().StringVar(&startRoute, "route", string(tui.RouteEntry), "route to open first (/, /dashboard, /profile)")
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout belongs to the UI.
	closer, err := logging.ToFile(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	backend, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(tui.New(ctx, backend, tui.Route(startRoute)), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func stderrLogging(cfg config.Config) {
	logging.New(cfg.Log, os.Stderr)
}
