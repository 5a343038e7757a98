package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/jaskprofile/internal/config"
)

var (
	initForce   bool
	initBackend string
	initURL     string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with a fresh jwt secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.Path(configPath)
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		cfg, err := config.Load(configPath)
		if err != nil && !initForce {
			return err
		}
		if err != nil {
			// start from defaults when the existing file is broken
			cfg, err = config.Load(os.DevNull)
			if err != nil {
				return err
			}
		}
		if cfg.Auth.JWTSecret == "" || initForce {
			secret, err := newSecret()
			if err != nil {
				return err
			}
			cfg.Auth.JWTSecret = secret
		}
		if initBackend != "" {
			cfg.Backend.Kind = initBackend
		}
		if initURL != "" {
			cfg.Backend.URL = initURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.Path(configPath))
	},
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	configInitCmd.Flags().StringVar(&initBackend, "backend", "", "backend kind: local or remote")
	configInitCmd.Flags().StringVar(&initURL, "url", "", "remote backend url")
	configCmd.AddCommand(configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
